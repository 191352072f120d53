package fx

import (
	"fmt"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// Reverb parameter slots.
const (
	ParamReverbFreeze = iota + 1
	ParamReverbRoomSize
	ParamReverbDamp
	ParamReverbWidth
	ParamReverbMix

	reverbParamCount
)

const (
	reverbNumCombs     = 8
	reverbNumAllpasses = 4

	reverbFixedGain       = 0.015
	reverbScaleWet        = 3
	reverbScaleDry        = 2
	reverbScaleDamp       = 0.4
	reverbScaleRoom       = 0.28
	reverbOffsetRoom      = 0.7
	reverbAllpassFeedback = 0.5
	reverbFreezeThreshold = 0.5

	defaultReverbRoomSize = 0.5
	defaultReverbDamp     = 0.5
	defaultReverbWidth    = 1.0
	defaultReverbMix      = 1.0 / 3.0
)

// Line lengths in samples, tuned at 44.1 kHz and used as-is at every rate.
var (
	reverbCombTuning    = [reverbNumCombs]int{1116, 1188, 1277, 1356, 1422, 1491, 1557, 1617}
	reverbAllpassTuning = [reverbNumAllpasses]int{556, 441, 341, 225}
)

type reverbComb struct {
	feedback    float64
	filterStore float64
	damp1       float64
	damp2       float64
	buffer      []float64
	index       int
}

func (c *reverbComb) process(input float64) float64 {
	bufOut := c.buffer[c.index]
	c.filterStore = core.FlushDenormals(bufOut*c.damp2 + c.filterStore*c.damp1)
	c.buffer[c.index] = input + c.filterStore*c.feedback
	c.index++
	if c.index >= len(c.buffer) {
		c.index = 0
	}
	return bufOut - input
}

func (c *reverbComb) mute() {
	core.Zero(c.buffer)
	c.filterStore = 0
}

type reverbAllpass struct {
	feedback float64
	buffer   []float64
	index    int
}

func (a *reverbAllpass) process(input float64) float64 {
	bufOut := a.buffer[a.index]
	a.buffer[a.index] = core.FlushDenormals(input + bufOut*a.feedback)
	a.index++
	if a.index >= len(a.buffer) {
		a.index = 0
	}
	return bufOut - input
}

func (a *reverbAllpass) mute() {
	core.Zero(a.buffer)
}

// reverbNetwork is the mono (left-channel) comb/allpass network.
type reverbNetwork struct {
	combs   [reverbNumCombs]reverbComb
	allpass [reverbNumAllpasses]reverbAllpass
}

func newReverbNetwork() *reverbNetwork {
	n := &reverbNetwork{}
	for i := range n.combs {
		n.combs[i].buffer = make([]float64, reverbCombTuning[i])
	}
	for i := range n.allpass {
		n.allpass[i] = reverbAllpass{
			feedback: reverbAllpassFeedback,
			buffer:   make([]float64, reverbAllpassTuning[i]),
		}
	}
	return n
}

func (n *reverbNetwork) setComb(feedback, damp1, damp2 float64) {
	for i := range n.combs {
		n.combs[i].feedback = feedback
		n.combs[i].damp1 = damp1
		n.combs[i].damp2 = damp2
	}
}

func (n *reverbNetwork) process(input float64) float64 {
	var acc float64
	for i := range n.combs {
		acc += n.combs[i].process(input)
	}
	for i := range n.allpass {
		acc = n.allpass[i].process(acc)
	}
	return acc
}

func (n *reverbNetwork) mute() {
	for i := range n.combs {
		n.combs[i].mute()
	}
	for i := range n.allpass {
		n.allpass[i].mute()
	}
}

// Reverb is a Freeverb-derived network of 8 parallel comb filters feeding 4
// series allpass filters. Each channel runs its own mono network.
//
// In freeze mode (freeze >= 0.5) the combs sustain indefinitely and no new
// input is injected.
type Reverb struct {
	ParameterSet

	networks []*reverbNetwork

	dirty    bool
	gain     float64
	wet1     float64
	wet2     float64
	dry      float64
	feedback float64
	damp1    float64
	damp2    float64

	lastTime float64
	started  bool
}

// NewReverb returns a reverb with Freeverb's initial room size, damping,
// width and mix.
func NewReverb() *Reverb {
	r := &Reverb{dirty: true}
	r.initParams(reverbParamCount)
	r.SetParameter(ParamReverbRoomSize, defaultReverbRoomSize)
	r.SetParameter(ParamReverbDamp, defaultReverbDamp)
	r.SetParameter(ParamReverbWidth, defaultReverbWidth)
	r.SetParameter(ParamReverbMix, defaultReverbMix)
	r.update()
	return r
}

func (*Reverb) isFilter() {}

// Kind returns KindReverb.
func (*Reverb) Kind() Kind { return KindReverb }

// RequiresSampleHistory is true: the tail spans buffers.
func (*Reverb) RequiresSampleHistory() bool { return true }

// SetParams validates and applies freeze amount in [0, 1], room size > 0,
// damping >= 0 and stereo width > 0. On error the previous parameters stay
// in effect.
func (r *Reverb) SetParams(freeze, roomSize, damp, width float64) error {
	if freeze < 0 || freeze > 1 || !core.IsFinite(freeze) {
		return fmt.Errorf("%w: reverb freeze must be in [0, 1]: %f", ErrInvalidParameter, freeze)
	}
	if roomSize <= 0 || !core.IsFinite(roomSize) {
		return fmt.Errorf("%w: reverb room size must be > 0: %f", ErrInvalidParameter, roomSize)
	}
	if damp < 0 || !core.IsFinite(damp) {
		return fmt.Errorf("%w: reverb damp must be >= 0: %f", ErrInvalidParameter, damp)
	}
	if width <= 0 || !core.IsFinite(width) {
		return fmt.Errorf("%w: reverb width must be > 0: %f", ErrInvalidParameter, width)
	}
	r.SetParameter(ParamReverbFreeze, freeze)
	r.SetParameter(ParamReverbRoomSize, roomSize)
	r.SetParameter(ParamReverbDamp, damp)
	r.SetParameter(ParamReverbWidth, width)
	return nil
}

// SetMix sets the internal wet/dry ratio of the network in [0, 1].
func (r *Reverb) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || !core.IsFinite(mix) {
		return fmt.Errorf("%w: reverb mix must be in [0, 1]: %f", ErrInvalidParameter, mix)
	}
	r.SetParameter(ParamReverbMix, mix)
	return nil
}

// Frozen reports whether the freeze parameter is engaged.
func (r *Reverb) Frozen() bool {
	return r.Parameter(ParamReverbFreeze) >= reverbFreezeThreshold
}

// RoomSize returns the room size parameter.
func (r *Reverb) RoomSize() float64 { return r.Parameter(ParamReverbRoomSize) }

// Damp returns the damping parameter.
func (r *Reverb) Damp() float64 { return r.Parameter(ParamReverbDamp) }

// Width returns the stereo width parameter.
func (r *Reverb) Width() float64 { return r.Parameter(ParamReverbWidth) }

// Mix returns the internal wet/dry ratio.
func (r *Reverb) Mix() float64 { return r.Parameter(ParamReverbMix) }

// Mute clears every comb and allpass line. It does nothing while frozen, so
// a frozen tail survives.
func (r *Reverb) Mute() {
	if r.Frozen() {
		return
	}
	for _, n := range r.networks {
		n.mute()
	}
}

// Reset is Mute.
func (r *Reverb) Reset() {
	r.Mute()
}

const reverbDerivedParams = 1<<ParamReverbFreeze | 1<<ParamReverbRoomSize |
	1<<ParamReverbDamp | 1<<ParamReverbWidth | 1<<ParamReverbMix

// update recomputes gains and comb coefficients from the parameters.
func (r *Reverb) update() {
	mix := r.Mix()
	wet := mix * reverbScaleWet
	width := r.Width()

	r.dry = (1 - mix) * reverbScaleDry
	r.wet1 = wet * (width/2 + 0.5)
	r.wet2 = wet * ((1 - width) / 2)

	if r.Frozen() {
		r.feedback = 1
		r.damp1 = 0
		r.gain = 0
	} else {
		r.feedback = r.RoomSize()*reverbScaleRoom + reverbOffsetRoom
		r.damp1 = r.Damp() * reverbScaleDamp
		r.gain = reverbFixedGain
	}
	r.damp2 = 1 - r.damp1

	for _, n := range r.networks {
		n.setComb(r.feedback, r.damp1, r.damp2)
	}
	r.dirty = false
}

// Process filters buf in place.
func (r *Reverb) Process(buf Buffer) error {
	if err := buf.Validate(); err != nil {
		return err
	}

	if r.takeChanges()&reverbDerivedParams != 0 {
		r.dirty = true
	}
	for len(r.networks) < buf.Channels {
		n := newReverbNetwork()
		n.setComb(r.feedback, r.damp1, r.damp2)
		r.networks = append(r.networks, n)
	}
	if r.dirty {
		r.update()
	}

	if r.started && buf.Time < r.lastTime {
		r.Mute()
	}
	r.started = true
	r.lastTime = buf.Time

	wet := r.wet()
	frames := buf.Frames()
	for ch := 0; ch < buf.Channels; ch++ {
		start, stride := buf.channel(ch)
		n := r.networks[ch]
		for f := 0; f < frames; f++ {
			i := start + f*stride
			in := buf.Samples[i]
			// Mono network: the right output collapses onto the left.
			out := n.process(in * r.gain)
			filtered := out*r.wet1 + out*r.wet2 + in*r.dry
			buf.Samples[i] = core.WetMix(in, filtered, wet)
		}
	}
	return nil
}
