package spectrum

import (
	"math"
	"sync"

	"github.com/cwbudde/algo-audiofx/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	buf.data = core.EnsureLen(buf.data, need)
	return buf.data[:n], buf.data[n:need], buf
}

// Magnitude returns |X[k]| for each complex bin.
//
// Scratch buffers are pooled, so in steady state this allocates only the
// output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))

	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}

	vecmath.Magnitude(out, re, im)
	scratchPool.Put(buf)
	return out
}

// BinFrequency returns the center frequency in Hz of bin k of an fftSize-point
// transform.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(k) * sampleRate / float64(fftSize)
}

// BinRMS converts the magnitude of bin k of a real-input transform to the RMS
// level of the sinusoid it represents. DC and Nyquist bins have no mirrored
// twin and are not doubled.
func BinRMS(magnitude float64, k, fftSize int) float64 {
	if fftSize <= 0 {
		return 0
	}
	n := float64(fftSize)
	if k == 0 || (fftSize > 1 && 2*k == fftSize) {
		return magnitude / n
	}
	return magnitude * math.Sqrt2 / n
}
