package fx

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Params holds named numeric settings for building a filter by name.
type Params map[string]float64

// Get returns the value for key, or def if it is missing or not finite.
func (p Params) Get(key string, def float64) float64 {
	v, ok := p[key]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Only reports an error naming the first key, in sorted order, that is not
// one of keys or a shared setting (wet, strength).
func (p Params) Only(keys ...string) error {
	var unknown []string
	for key := range p {
		if key == "wet" || key == "strength" || slices.Contains(keys, key) {
			continue
		}
		unknown = append(unknown, key)
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: unknown setting %q (known: %s, wet, strength)",
		ErrInvalidParameter, unknown[0], strings.Join(keys, ", "))
}

// Factory builds a configured filter.
type Factory func(p Params) (Filter, error)

// Registry maps filter names to factories. Registries are explicit values
// handed to the code that needs them; there is no package-level instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a new registry holding the built-in filters:
// lowpass, highpass, bandpass, echo and reverb.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister("lowpass", biquadFactory(LowPass))
	r.MustRegister("highpass", biquadFactory(HighPass))
	r.MustRegister("bandpass", biquadFactory(BandPass))
	r.MustRegister("echo", echoFactory)
	r.MustRegister("reverb", reverbFactory)
	return r
}

// Register adds a factory under name.
func (r *Registry) Register(name string, factory Factory) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownFilter)
	}
	if factory == nil {
		return fmt.Errorf("fx: nil factory for %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateFilter, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, factory Factory) {
	if err := r.Register(name, factory); err != nil {
		panic("fx registry: " + err.Error())
	}
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the filter registered under name.
func (r *Registry) New(name string, p Params) (Filter, error) {
	factory, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
	}
	return factory(p)
}

// NewFromSpec builds a filter from "name:key=value,key=value".
func (r *Registry) NewFromSpec(spec string) (Filter, error) {
	name, p, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}
	return r.New(name, p)
}

// ParseSpec splits "name:key=value,..." into a name and its params.
// Keys are lower-cased.
func ParseSpec(spec string) (string, Params, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(spec), ":")
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty filter spec", ErrUnknownFilter)
	}

	p := Params{}
	if strings.TrimSpace(rest) == "" {
		return name, p, nil
	}
	for _, kv := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return "", nil, fmt.Errorf("%w: malformed setting %q in %q", ErrInvalidParameter, kv, spec)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", nil, fmt.Errorf("%w: setting %q: %v", ErrInvalidParameter, key, err)
		}
		p[key] = v
	}
	return name, p, nil
}

// applyCommon applies the wet and strength settings shared by all filters.
func applyCommon(f Filter, p Params) error {
	if err := validWet(p.Get("wet", 1)); err != nil {
		return err
	}
	f.SetParameter(ParamWet, p.Get("wet", 1))
	return f.SetStrength(p.Get("strength", 1))
}

func biquadFactory(typ BiquadType) Factory {
	return func(p Params) (Filter, error) {
		if err := p.Only("frequency", "resonance"); err != nil {
			return nil, err
		}
		b, err := NewBiquad(typ, p.Get("frequency", 1000), p.Get("resonance", math.Sqrt2/2))
		if err != nil {
			return nil, err
		}
		if err := applyCommon(b, p); err != nil {
			return nil, err
		}
		return b, nil
	}
}

func echoFactory(p Params) (Filter, error) {
	if err := p.Only("delay", "decay", "filter"); err != nil {
		return nil, err
	}
	e, err := NewEcho(p.Get("delay", 0.25), p.Get("decay", 0.5), p.Get("filter", 0))
	if err != nil {
		return nil, err
	}
	if err := applyCommon(e, p); err != nil {
		return nil, err
	}
	return e, nil
}

func reverbFactory(p Params) (Filter, error) {
	if err := p.Only("freeze", "roomsize", "damp", "width", "mix"); err != nil {
		return nil, err
	}
	r := NewReverb()
	err := r.SetParams(
		p.Get("freeze", 0),
		p.Get("roomsize", defaultReverbRoomSize),
		p.Get("damp", defaultReverbDamp),
		p.Get("width", defaultReverbWidth),
	)
	if err != nil {
		return nil, err
	}
	if err := r.SetMix(p.Get("mix", defaultReverbMix)); err != nil {
		return nil, err
	}
	if err := applyCommon(r, p); err != nil {
		return nil, err
	}
	return r, nil
}
