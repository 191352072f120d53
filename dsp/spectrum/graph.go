package spectrum

import (
	"fmt"
	"iter"
	"math"

	"github.com/cwbudde/algo-audiofx/dsp/core"
)

// TransformKind selects how bin magnitudes are expressed.
type TransformKind int

const (
	// TransformRMS expresses each bin as the RMS level of its sinusoid.
	TransformRMS TransformKind = iota
	// TransformDB expresses each bin in dB relative to full scale, floored
	// at core.SilenceDB.
	TransformDB
)

func (k TransformKind) String() string {
	switch k {
	case TransformRMS:
		return "rms"
	case TransformDB:
		return "db"
	default:
		return fmt.Sprintf("TransformKind(%d)", int(k))
	}
}

func (k TransformKind) apply(rms float64) float64 {
	if k == TransformDB {
		return core.LinearToDBFloor(rms, core.SilenceDB)
	}
	return rms
}

// RenderMode controls how a graph moves between successive results.
type RenderMode int

const (
	// RenderStatic snaps to each new result.
	RenderStatic RenderMode = iota
	// RenderDecay fades from the previously displayed values toward the new
	// result as elapsed time grows.
	RenderDecay
)

func (m RenderMode) String() string {
	switch m {
	case RenderStatic:
		return "static"
	case RenderDecay:
		return "decay"
	default:
		return fmt.Sprintf("RenderMode(%d)", int(m))
	}
}

// Point is one frequency/magnitude pair of a graph.
type Point struct {
	Frequency float64
	Magnitude float64
}

// Graph holds one transformed spectrum. Populating replaces its slices
// wholesale, so sequences handed out earlier keep reading consistent data.
type Graph struct {
	kind  TransformKind
	mode  RenderMode
	decay float64

	freqs  []float64
	target []float64
	start  []float64
}

func newGraph(kind TransformKind) *Graph {
	return &Graph{kind: kind}
}

// Kind returns the magnitude transform of the graph.
func (g *Graph) Kind() TransformKind { return g.kind }

// Mode returns the render mode and decay factor in effect.
func (g *Graph) Mode() (RenderMode, float64) { return g.mode, g.decay }

// Len returns the number of points.
func (g *Graph) Len() int { return len(g.freqs) }

func (g *Graph) setMode(mode RenderMode, decay float64) {
	g.mode = mode
	g.decay = decay
}

func displayed(mode RenderMode, decay, start, target, elapsed float64) float64 {
	if mode != RenderDecay || start == target {
		return target
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return target + (start-target)*math.Pow(decay, elapsed)
}

// populate replaces the graph contents with the one-sided spectrum of bins.
// Values shown at elapsed become the starting point of the next fade.
func (g *Graph) populate(bins []complex128, sampleRate, elapsed float64) {
	n := len(bins)
	if n == 0 {
		return
	}
	half := n / 2
	mags := Magnitude(bins[:half+1])

	freqs := make([]float64, half+1)
	target := make([]float64, half+1)
	start := make([]float64, half+1)
	for k, m := range mags {
		freqs[k] = BinFrequency(k, n, sampleRate)
		target[k] = g.kind.apply(BinRMS(m, k, n))
	}

	if len(g.target) == len(target) {
		for k := range start {
			start[k] = displayed(g.mode, g.decay, g.start[k], g.target[k], elapsed)
		}
	} else {
		copy(start, target)
	}

	g.freqs, g.target, g.start = freqs, target, start
}

// Points returns the graph as it looks elapsed seconds after the last
// population. The sequence is lazy and can be ranged over repeatedly.
func (g *Graph) Points(elapsed float64) iter.Seq[Point] {
	freqs, target, start := g.freqs, g.target, g.start
	mode, decay := g.mode, g.decay
	return func(yield func(Point) bool) {
		for k := range freqs {
			p := Point{
				Frequency: freqs[k],
				Magnitude: displayed(mode, decay, start[k], target[k], elapsed),
			}
			if !yield(p) {
				return
			}
		}
	}
}
