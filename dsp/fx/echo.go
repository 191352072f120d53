package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// Echo parameter slots.
const (
	ParamEchoDelay = iota + 1
	ParamEchoDecay
	ParamEchoFilterStrength

	echoParamCount
)

// Echo is a feedback delay with one circular line per channel and a
// one-pole low-pass smoothing the fed-back tap.
//
// Lines are allocated on the first Process call, once sample rate and
// channel count are known. Afterwards the active length may shrink but never
// grows past the allocated capacity; longer delays are clamped.
type Echo struct {
	ParameterSet

	rings    [][]float64
	prevTap  []float64
	capacity int
	length   int
	cursor   int

	lastTime float64
	started  bool
}

// NewEcho returns an echo with validated parameters.
func NewEcho(delaySeconds, decay, filterStrength float64) (*Echo, error) {
	e := &Echo{}
	e.initParams(echoParamCount)
	if err := e.SetParams(delaySeconds, decay, filterStrength); err != nil {
		return nil, err
	}
	return e, nil
}

func (*Echo) isFilter() {}

// Kind returns KindEcho.
func (*Echo) Kind() Kind { return KindEcho }

// RequiresSampleHistory is true: the delay line spans buffers.
func (*Echo) RequiresSampleHistory() bool { return true }

// SetParams validates and applies delay time in seconds, feedback decay in
// (0, 1) and tap smoothing strength in [0, 1). On error the previous parameters stay in
// effect.
func (e *Echo) SetParams(delaySeconds, decay, filterStrength float64) error {
	if delaySeconds <= 0 || !core.IsFinite(delaySeconds) {
		return fmt.Errorf("%w: echo delay must be > 0: %f", ErrInvalidParameter, delaySeconds)
	}
	if decay <= 0 || decay >= 1 || math.IsNaN(decay) {
		return fmt.Errorf("%w: echo decay must be in (0, 1): %f", ErrInvalidParameter, decay)
	}
	if filterStrength < 0 || filterStrength >= 1 || math.IsNaN(filterStrength) {
		return fmt.Errorf("%w: echo filter strength must be in [0, 1): %f", ErrInvalidParameter, filterStrength)
	}
	e.SetParameter(ParamEchoDelay, delaySeconds)
	e.SetParameter(ParamEchoDecay, decay)
	e.SetParameter(ParamEchoFilterStrength, filterStrength)
	return nil
}

// Delay returns the delay time in seconds.
func (e *Echo) Delay() float64 { return e.Parameter(ParamEchoDelay) }

// Decay returns the feedback factor.
func (e *Echo) Decay() float64 { return e.Parameter(ParamEchoDecay) }

// FilterStrength returns the tap smoothing coefficient.
func (e *Echo) FilterStrength() float64 { return e.Parameter(ParamEchoFilterStrength) }

// Capacity returns the allocated line length in samples, 0 before the first
// Process call.
func (e *Echo) Capacity() int { return e.capacity }

// Len returns the active line length in samples.
func (e *Echo) Len() int { return e.length }

// Reset clears the delay lines and the tap smoothing state.
func (e *Echo) Reset() {
	for _, ring := range e.rings {
		core.Zero(ring)
	}
	core.Zero(e.prevTap)
	e.cursor = 0
}

func (e *Echo) ensureLines(buf Buffer) {
	want := int(math.Ceil(e.Delay() * buf.SampleRate))
	if want < 1 {
		want = 1
	}
	if e.rings == nil {
		e.capacity = want
	}
	for len(e.rings) < buf.Channels {
		e.rings = append(e.rings, make([]float64, e.capacity))
		e.prevTap = append(e.prevTap, 0)
	}

	e.length = min(want, e.capacity)
	if e.cursor >= e.length {
		e.cursor = 0
	}
}

// Process filters buf in place.
func (e *Echo) Process(buf Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	e.takeChanges()

	if e.started && buf.Time < e.lastTime {
		e.Reset()
	}
	e.started = true
	e.lastTime = buf.Time

	e.ensureLines(buf)

	wet := e.wet()
	decay := e.Decay()
	strength := e.FilterStrength()
	frames := buf.Frames()

	var starts, strides [MaxChannels]int
	for ch := 0; ch < buf.Channels; ch++ {
		starts[ch], strides[ch] = buf.channel(ch)
	}

	for f := 0; f < frames; f++ {
		for ch := 0; ch < buf.Channels; ch++ {
			i := starts[ch] + f*strides[ch]
			ring := e.rings[ch]

			in := buf.Samples[i]
			tap := strength*e.prevTap[ch] + (1-strength)*ring[e.cursor]
			e.prevTap[ch] = tap

			next := in + tap*decay
			ring[e.cursor] = core.FlushDenormals(next)
			buf.Samples[i] = core.WetMix(in, next, wet)
		}
		e.cursor++
		if e.cursor >= e.length {
			e.cursor = 0
		}
	}
	return nil
}
