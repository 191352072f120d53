package core

import "github.com/cwbudde/algo-vecmath"

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
// Reused capacity is not cleared.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// Peak returns the largest absolute sample value in buf.
func Peak(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}
	return vecmath.MaxAbs(buf)
}

// NormalizePeak scales buf in place so its peak does not exceed ceiling.
// Buffers already below the ceiling are left untouched. The applied gain is
// returned (1 when nothing changed).
func NormalizePeak(buf []float64, ceiling float64) float64 {
	if ceiling <= 0 {
		return 1
	}
	peak := Peak(buf)
	if peak <= ceiling {
		return 1
	}
	gain := ceiling / peak
	vecmath.ScaleBlockInPlace(buf, gain)
	return gain
}
