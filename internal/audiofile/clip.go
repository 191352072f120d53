package audiofile

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// Clip is decoded audio with interleaved samples in [-1, 1].
type Clip struct {
	Samples    []float64
	Channels   int
	SampleRate int
}

// Frames returns the number of sample frames.
func (c *Clip) Frames() int {
	if c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playing time of the clip.
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / float64(c.SampleRate) * float64(time.Second))
}

// Validate checks the channel count, sample rate and frame alignment.
func (c *Clip) Validate() error {
	switch {
	case c.Channels <= 0:
		return fmt.Errorf("%w: %d channels", ErrInvalidClip, c.Channels)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidClip, c.SampleRate)
	case len(c.Samples)%c.Channels != 0:
		return fmt.Errorf("%w: %d samples do not fill %d-channel frames",
			ErrInvalidClip, len(c.Samples), c.Channels)
	}
	return nil
}

// Mono returns the average of all channels per frame.
func (c *Clip) Mono() []float64 {
	frames := c.Frames()
	out := make([]float64, frames)
	if frames == 0 {
		return out
	}
	scale := 1 / float64(c.Channels)
	for i := range out {
		var sum float64
		for _, v := range c.Samples[i*c.Channels : (i+1)*c.Channels] {
			sum += v
		}
		out[i] = sum * scale
	}
	return out
}

func fullScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16, 24, 32:
		return math.Ldexp(1, bitDepth-1), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}

func intsToFloats(data []int, bitDepth int) ([]float64, error) {
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v) / scale
	}
	return out, nil
}

func floatsToInts(samples []float64, bitDepth int) ([]int, error) {
	scale, err := fullScale(bitDepth)
	if err != nil {
		return nil, err
	}
	hi := scale - 1
	out := make([]int, len(samples))
	for i, v := range samples {
		if math.IsNaN(v) {
			continue
		}
		out[i] = int(math.Round(core.Clamp(v, -1, 1) * hi))
	}
	return out, nil
}
