package fx

import (
	"fmt"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// MaxChannels is the largest channel count a filter keeps history for.
const MaxChannels = 8

// Buffer is one block of decoded PCM handed to a filter.
//
// Planar buffers store channel c in Samples[c*frames:(c+1)*frames];
// interleaved buffers store frame f of channel c at Samples[f*Channels+c].
// Time is the playback position of the first frame in seconds and only ever
// grows during one playback.
type Buffer struct {
	Samples     []float64
	Channels    int
	SampleRate  float64
	Interleaved bool
	Time        float64
}

// Frames returns the number of samples per channel.
func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Validate checks the buffer layout.
func (b Buffer) Validate() error {
	if b.Channels < 1 || b.Channels > MaxChannels {
		return fmt.Errorf("%w: channel count must be in [1, %d]: %d", ErrInvalidBuffer, MaxChannels, b.Channels)
	}
	if b.SampleRate <= 0 || !core.IsFinite(b.SampleRate) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidBuffer, b.SampleRate)
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("%w: %d samples do not split into %d channels", ErrInvalidBuffer, len(b.Samples), b.Channels)
	}
	return nil
}

// channel returns the index of the first sample of channel ch and the
// distance between consecutive samples of that channel.
func (b Buffer) channel(ch int) (start, stride int) {
	if b.Interleaved {
		return ch, b.Channels
	}
	return ch * b.Frames(), 1
}
