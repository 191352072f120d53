package main

import (
	"fmt"
	"io"
	"iter"
	"text/tabwriter"

	"github.com/cwbudde/algo-audiofx/dsp/core"
	"github.com/cwbudde/algo-audiofx/dsp/fx"
	"github.com/cwbudde/algo-audiofx/dsp/spectrum"
	"github.com/cwbudde/algo-audiofx/internal/audiofile"
)

// render runs chain over clip in place, one cfg block at a time, then scales
// the result below ceiling. It returns the applied gain.
func render(chain *fx.Chain, clip *audiofile.Clip, cfg core.ProcessorConfig, ceiling float64) (float64, error) {
	if err := clip.Validate(); err != nil {
		return 0, err
	}
	if cfg.Channels != clip.Channels {
		return 0, fmt.Errorf("config has %d channels, clip has %d", cfg.Channels, clip.Channels)
	}

	chain.Reset()
	step := cfg.BlockSamples()
	for off := 0; off < len(clip.Samples); off += step {
		end := min(off+step, len(clip.Samples))
		buf := fx.Buffer{
			Samples:     clip.Samples[off:end],
			Channels:    cfg.Channels,
			SampleRate:  cfg.SampleRate,
			Interleaved: true,
			Time:        float64(off/cfg.Channels) / cfg.SampleRate,
		}
		if err := chain.Process(buf); err != nil {
			return 0, fmt.Errorf("block at %.3fs: %w", buf.Time, err)
		}
	}

	return core.NormalizePeak(clip.Samples, core.Clamp(ceiling, 0, 1)), nil
}

func collect(seq iter.Seq[spectrum.Point]) []spectrum.Point {
	var out []spectrum.Point
	for p := range seq {
		out = append(out, p)
	}
	return out
}

type band struct {
	low, high float64
	peak      float64
}

// bands folds points into n groups of equal width, keeping the loudest
// magnitude of each group.
func bands(points []spectrum.Point, n int) []band {
	if len(points) == 0 || n <= 0 {
		return nil
	}
	n = min(n, len(points))
	out := make([]band, n)
	for i := range out {
		lo := i * len(points) / n
		hi := (i + 1) * len(points) / n
		b := band{low: points[lo].Frequency, high: points[hi-1].Frequency, peak: points[lo].Magnitude}
		for _, p := range points[lo+1 : hi] {
			b.peak = max(b.peak, p.Magnitude)
		}
		out[i] = b
	}
	return out
}

func printBands(w io.Writer, bs []band, unit string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Low [Hz]\tHigh [Hz]\tPeak [%s]\n", unit); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(tw, "--------\t---------\t---------\n"); err != nil {
		return err
	}
	for _, b := range bs {
		if _, err := fmt.Fprintf(tw, "%.1f\t%.1f\t%.6g\n", b.low, b.high, b.peak); err != nil {
			return err
		}
	}
	return tw.Flush()
}
