package fx

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// Biquad parameter slots.
const (
	ParamBiquadType = iota + 1
	ParamBiquadFrequency
	ParamBiquadResonance

	biquadParamCount
)

// BiquadType selects the response of a [Biquad].
type BiquadType int

const (
	LowPass BiquadType = iota
	HighPass
	BandPass
)

func (t BiquadType) String() string {
	switch t {
	case LowPass:
		return "lowpass"
	case HighPass:
		return "highpass"
	case BandPass:
		return "bandpass"
	default:
		return fmt.Sprintf("BiquadType(%d)", int(t))
	}
}

func (t BiquadType) valid() bool {
	return t >= LowPass && t <= BandPass
}

// biquadCoefficients are the normalized feed-forward (a0..a2) and feedback
// (b1, b2) taps of
//
//	y = a0*x + a1*x1 + a2*x2 - b1*y1 - b2*y2
type biquadCoefficients struct {
	a0, a1, a2 float64
	b1, b2     float64
}

// biquadHistory holds the last two inputs and outputs of one channel.
// x1/y1 are the most recent values.
type biquadHistory struct {
	x1, x2 float64
	y1, y2 float64
}

// Biquad is a resonant second-order IIR filter with per-channel history.
//
// Coefficients are derived from type, frequency, resonance and sample rate
// and only recomputed when one of them changed since the previous call.
type Biquad struct {
	ParameterSet

	coeffs     biquadCoefficients
	history    [MaxChannels]biquadHistory
	sampleRate float64
	lastTime   float64
	started    bool

	recomputes int
}

// NewBiquad returns a biquad with validated parameters.
func NewBiquad(typ BiquadType, frequency, resonance float64) (*Biquad, error) {
	b := &Biquad{}
	b.initParams(biquadParamCount)
	if err := b.SetParams(typ, frequency, resonance); err != nil {
		return nil, err
	}
	return b, nil
}

func (*Biquad) isFilter() {}

// Kind returns KindBiquad.
func (*Biquad) Kind() Kind { return KindBiquad }

// RequiresSampleHistory is false: a biquad settles within a few samples, so
// isolated snippets can be filtered without carried state.
func (*Biquad) RequiresSampleHistory() bool { return false }

// SetParams validates and applies the filter response. On error the
// previous parameters stay in effect.
func (b *Biquad) SetParams(typ BiquadType, frequency, resonance float64) error {
	if !typ.valid() {
		return fmt.Errorf("%w: unknown biquad type %d", ErrInvalidParameter, int(typ))
	}
	if frequency <= 0 || !core.IsFinite(frequency) {
		return fmt.Errorf("%w: biquad frequency must be > 0: %f", ErrInvalidParameter, frequency)
	}
	if resonance <= 0 || !core.IsFinite(resonance) {
		return fmt.Errorf("%w: biquad resonance must be > 0: %f", ErrInvalidParameter, resonance)
	}
	b.SetParameter(ParamBiquadType, float64(typ))
	b.SetParameter(ParamBiquadFrequency, frequency)
	b.SetParameter(ParamBiquadResonance, resonance)
	return nil
}

// Type returns the configured response.
func (b *Biquad) Type() BiquadType { return BiquadType(b.Parameter(ParamBiquadType)) }

// Frequency returns the cutoff or center frequency in Hz.
func (b *Biquad) Frequency() float64 { return b.Parameter(ParamBiquadFrequency) }

// Resonance returns the Q factor.
func (b *Biquad) Resonance() float64 { return b.Parameter(ParamBiquadResonance) }

// Reset clears every channel's history.
func (b *Biquad) Reset() {
	b.history = [MaxChannels]biquadHistory{}
}

// biquadMaxNyquistRatio keeps the design frequency below sampleRate/2,
// where the bilinear prototype's alpha turns negative.
const biquadMaxNyquistRatio = 0.499

func (b *Biquad) updateCoefficients() {
	typ := b.Type()
	freq := b.Frequency()
	res := b.Resonance()
	if !typ.valid() || freq <= 0 || res <= 0 {
		return
	}
	freq = core.Clamp(freq, 0, biquadMaxNyquistRatio*b.sampleRate)

	omega := 2 * math.Pi * freq / b.sampleRate
	sn, cs := math.Sincos(omega)
	alpha := sn / (2 * res)
	scalar := 1 / (1 + alpha)

	var c biquadCoefficients
	switch typ {
	case LowPass:
		c.a0 = 0.5 * (1 - cs) * scalar
		c.a1 = (1 - cs) * scalar
		c.a2 = c.a0
	case HighPass:
		c.a0 = 0.5 * (1 + cs) * scalar
		c.a1 = -(1 + cs) * scalar
		c.a2 = c.a0
	case BandPass:
		c.a0 = alpha * scalar
		c.a1 = 0
		c.a2 = -c.a0
	}
	c.b1 = -2 * cs * scalar
	c.b2 = (1 - alpha) * scalar

	b.coeffs = c
	b.recomputes++
}

// Process filters buf in place.
func (b *Biquad) Process(buf Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	changed := b.takeChanges()
	dirty := changed&(bit(ParamBiquadType)|bit(ParamBiquadFrequency)|bit(ParamBiquadResonance)) != 0
	if buf.SampleRate != b.sampleRate {
		b.sampleRate = buf.SampleRate
		dirty = true
	}
	if b.started && buf.Time < b.lastTime {
		b.Reset()
		dirty = true
	}
	b.started = true
	b.lastTime = buf.Time

	if dirty {
		b.updateCoefficients()
	}

	wet := b.wet()
	frames := buf.Frames()
	for ch := 0; ch < buf.Channels; ch++ {
		start, stride := buf.channel(ch)
		b.processChannel(buf.Samples, start, stride, frames, &b.history[ch], wet)
	}
	return nil
}

// processChannel runs the recurrence over sample pairs. The roles of the two
// output history slots swap within a pair, so only the inputs need rotating
// once per pair. An odd trailing sample reuses the last filtered output.
func (b *Biquad) processChannel(s []float64, start, stride, frames int, h *biquadHistory, wet float64) {
	c := b.coeffs
	x1, x2, y1, y2 := h.x1, h.x2, h.y1, h.y2

	f := 0
	for ; f+1 < frames; f += 2 {
		i0 := start + f*stride
		i1 := i0 + stride

		x := s[i0]
		y2 = c.a0*x + c.a1*x1 + c.a2*x2 - c.b1*y1 - c.b2*y2
		s[i0] = core.WetMix(x, y2, wet)

		x2 = s[i1]
		y1 = c.a0*x2 + c.a1*x + c.a2*x1 - c.b1*y2 - c.b2*y1
		s[i1] = core.WetMix(x2, y1, wet)

		x1 = x2
		x2 = x
	}

	if f < frames {
		i := start + f*stride
		s[i] = core.WetMix(s[i], y1, wet)
	}

	h.x1, h.x2 = x1, x2
	h.y1, h.y2 = core.FlushDenormals(y1), core.FlushDenormals(y2)
}
