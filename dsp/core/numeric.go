package core

import "math"

// SilenceDB is the floor used when an amplitude has no finite dB value.
const SilenceDB = -120.0

// Clamp limits value to the inclusive range [min, max].
func Clamp(value, min, max float64) float64 {
	if min > max {
		min, max = max, min
	}

	if value < min {
		return min
	}

	if value > max {
		return max
	}

	return value
}

// WetMix blends a processed sample back into its source:
// dry + (wet - dry) * amount. An amount of 0 returns dry unchanged.
func WetMix(dry, wet, amount float64) float64 {
	return dry + (wet-dry)*amount
}

// FlushDenormals converts tiny denormal-like values to exact zero.
// Recursive comb and allpass state decays into this range when fed silence.
func FlushDenormals(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// LinearToDB converts linear amplitude to dB (20*log10 convention).
// Returns -Inf for zero and NaN for negative values.
func LinearToDB(linear float64) float64 {
	if linear < 0 {
		return math.NaN()
	}

	if linear == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(linear)
}

// LinearToDBFloor converts linear amplitude to dB and never returns a value
// below floor. Non-finite results collapse to floor as well.
func LinearToDBFloor(linear, floor float64) float64 {
	db := LinearToDB(linear)
	if !IsFinite(db) || db < floor {
		return floor
	}

	return db
}
