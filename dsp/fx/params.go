package fx

import (
	"fmt"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// ParamWet is the parameter slot every filter reserves for its wet amount.
const ParamWet = 0

// Kind identifies one of the filter variants.
type Kind int

const (
	KindBiquad Kind = iota
	KindEcho
	KindReverb
)

func (k Kind) String() string {
	switch k {
	case KindBiquad:
		return "biquad"
	case KindEcho:
		return "echo"
	case KindReverb:
		return "reverb"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Filter is the closed set of processors in this package: *Biquad, *Echo
// and *Reverb.
type Filter interface {
	Kind() Kind
	SetParameter(index int, value float64)
	Parameter(index int) float64
	NumParameters() int
	SetStrength(wetness float64) error
	Strength() float64
	// RequiresSampleHistory reports whether the output depends on audio from
	// earlier buffers. Consumers working on isolated snippets must refuse
	// such filters.
	RequiresSampleHistory() bool
	// Process filters buf.Samples in place.
	Process(buf Buffer) error
	// Reset clears all sample history.
	Reset()

	isFilter()
}

// ParameterSet stores indexed parameters, tracks which ones changed since the
// last processing call and holds the wet strength blended into the output.
type ParameterSet struct {
	params   []float64
	changed  uint64
	strength float64
}

// initParams allocates count zeroed slots with full wet and every slot
// flagged as changed.
func (p *ParameterSet) initParams(count int) {
	if count < 1 {
		count = 1
	}
	p.params = make([]float64, count)
	p.params[ParamWet] = 1
	p.strength = 1
	p.changed = changeMask(count)
}

func changeMask(count int) uint64 {
	if count >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<uint(count) - 1
}

// SetParameter stores value in slot index and flags it as changed.
// Indices outside the declared range are ignored.
func (p *ParameterSet) SetParameter(index int, value float64) {
	if index < 0 || index >= len(p.params) {
		return
	}
	p.params[index] = value
	if index < 64 {
		p.changed |= 1 << uint(index)
	}
}

// Parameter returns slot index, or 0 for indices outside the declared range.
func (p *ParameterSet) Parameter(index int) float64 {
	if index < 0 || index >= len(p.params) {
		return 0
	}
	return p.params[index]
}

// NumParameters returns the number of declared slots.
func (p *ParameterSet) NumParameters() int {
	return len(p.params)
}

// SetStrength sets the wet strength in [0, 1].
func (p *ParameterSet) SetStrength(wetness float64) error {
	if wetness < 0 || wetness > 1 || !core.IsFinite(wetness) {
		return fmt.Errorf("%w: strength must be in [0, 1]: %f", ErrInvalidParameter, wetness)
	}
	p.strength = wetness
	return nil
}

// Strength returns the wet strength.
func (p *ParameterSet) Strength() float64 {
	return p.strength
}

// wet is the effective blend amount for the processed signal.
func (p *ParameterSet) wet() float64 {
	return p.Parameter(ParamWet) * p.strength
}

// takeChanges returns the change mask and clears it.
func (p *ParameterSet) takeChanges() uint64 {
	c := p.changed
	p.changed = 0
	return c
}

func bit(index int) uint64 {
	return 1 << uint(index)
}

func validWet(wet float64) error {
	if wet < 0 || wet > 1 || !core.IsFinite(wet) {
		return fmt.Errorf("%w: wet must be in [0, 1]: %f", ErrInvalidParameter, wet)
	}
	return nil
}

// SetWet validates wet and stores it in the ParamWet slot.
func (p *ParameterSet) SetWet(wet float64) error {
	if err := validWet(wet); err != nil {
		return err
	}
	p.SetParameter(ParamWet, wet)
	return nil
}
