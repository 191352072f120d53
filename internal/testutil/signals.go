// Package testutil holds deterministic signals and assertions shared by the
// filter and spectrum tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine generates length samples of a sine wave starting at phase 0.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise generates white noise in [-amplitude, amplitude) from a fixed seed.
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at pos.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Interleave packs equally long channel slices into one frame-interleaved slice.
func Interleave(channels ...[]float64) []float64 {
	if len(channels) == 0 {
		return nil
	}
	frames := len(channels[0])
	out := make([]float64, frames*len(channels))
	for ch, data := range channels {
		for i := 0; i < frames && i < len(data); i++ {
			out[i*len(channels)+ch] = data[i]
		}
	}
	return out
}

// Planar concatenates channel slices back to back.
func Planar(channels ...[]float64) []float64 {
	var out []float64
	for _, data := range channels {
		out = append(out, data...)
	}
	return out
}

// Clone returns a copy of buf.
func Clone(buf []float64) []float64 {
	return append([]float64(nil), buf...)
}
