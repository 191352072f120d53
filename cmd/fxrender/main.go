// Command fxrender runs an audio file through a filter chain, writes the
// result as PCM WAV and prints the spectrum of the rendered output.
//
// Usage:
//
//	fxrender -in <file> -out <file.wav> [-fx name:key=value,...]... [flags]
//
// Filters are applied in the order the -fx flags are given. Each filter
// accepts "wet" and "strength" besides its own settings.
//
// Examples:
//
//	fxrender -in song.ogg -out out.wav -fx lowpass:frequency=800,resonance=0.7
//	fxrender -in voice.wav -out wet.wav -fx echo:delay=0.25,decay=0.4 -fx reverb:roomsize=0.8
//	fxrender -in song.mp3 -out out.wav -graph db -points 32 -decay 0.5
//	fxrender -list
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cwbudde/algo-audiofx/dsp/core"
	"github.com/cwbudde/algo-audiofx/dsp/fx"
	"github.com/cwbudde/algo-audiofx/dsp/spectrum"
	"github.com/cwbudde/algo-audiofx/internal/audiofile"
	"github.com/sirupsen/logrus"
)

// specList collects repeated -fx flags.
type specList []string

func (s *specList) String() string { return strings.Join(*s, " ") }

func (s *specList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	in, out  string
	specs    specList
	block    int
	bits     int
	ceiling  float64
	graph    string
	points   int
	decay    float64
	elapsed  float64
	verbose  bool
	listOnly bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	o := &options{}
	fs := flag.NewFlagSet("fxrender", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input audio file (wav, aiff, mp3, ogg)")
	fs.StringVar(&o.out, "out", "", "output WAV file")
	fs.Var(&o.specs, "fx", "filter spec name:key=value,... (repeatable)")
	fs.IntVar(&o.block, "block", 1024, "frames per processing block")
	fs.IntVar(&o.bits, "bits", 16, "output bit depth (16, 24 or 32)")
	fs.Float64Var(&o.ceiling, "ceiling", 0.98, "peak ceiling for the rendered output in [0, 1], 0 disables")
	fs.StringVar(&o.graph, "graph", "rms", "spectrum graph: rms, db or none")
	fs.IntVar(&o.points, "points", 24, "number of spectrum bands to print")
	fs.Float64Var(&o.decay, "decay", -1, "decay render factor in [0, 1); negative renders static")
	fs.Float64Var(&o.elapsed, "elapsed", 0, "seconds since the graph was populated, for decay rendering")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	fs.BoolVar(&o.listOnly, "list", false, "list filters and input formats")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: fxrender -in <file> -out <file.wav> [-fx spec]... [flags]\n\n")
		fmt.Fprintf(stderr, "Renders an audio file through a filter chain.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  fxrender -in song.ogg -out out.wav -fx lowpass:frequency=800,resonance=0.7\n")
		fmt.Fprintf(stderr, "  fxrender -in voice.wav -out wet.wav -fx echo:delay=0.25,decay=0.4 -fx reverb\n")
		fmt.Fprintf(stderr, "  fxrender -list\n")
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	log := logrus.StandardLogger()
	log.SetOutput(stderr)
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	filters := fx.DefaultRegistry()
	decoders := audiofile.DefaultRegistry()

	if o.listOnly {
		fmt.Fprintf(stdout, "filters: %s\n", strings.Join(filters.Names(), ", "))
		fmt.Fprintf(stdout, "formats: %s\n", strings.Join(decoders.Formats(), ", "))
		return nil
	}
	if o.in == "" || o.out == "" {
		return errors.New("both -in and -out are required")
	}

	chain, err := buildChain(filters, o.specs)
	if err != nil {
		return err
	}

	clip, err := decoders.DecodeFile(o.in)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"function":    "run",
		"input":       o.in,
		"channels":    clip.Channels,
		"sample_rate": clip.SampleRate,
		"duration":    clip.Duration().String(),
		"filters":     chain.Len(),
	}).Info("Rendering")

	cfg := core.ApplyProcessorOptions(
		core.WithSampleRate(float64(clip.SampleRate)),
		core.WithBlockSize(o.block),
		core.WithChannels(clip.Channels),
	)

	gain, err := render(chain, clip, cfg, o.ceiling)
	if err != nil {
		return err
	}
	if gain != 1 {
		log.WithFields(logrus.Fields{
			"function": "run",
			"gain":     gain,
		}).Info("Output scaled below ceiling")
	}

	if err := audiofile.WriteWAVFile(o.out, clip, o.bits); err != nil {
		return err
	}

	if o.graph == "none" {
		return nil
	}
	return printSpectrum(stdout, clip, o, log)
}

func buildChain(r *fx.Registry, specs []string) (*fx.Chain, error) {
	chain := fx.NewChain()
	for _, spec := range specs {
		f, err := r.NewFromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", spec, err)
		}
		chain.Append(f)
	}
	return chain, nil
}

func printSpectrum(w io.Writer, clip *audiofile.Clip, o *options, log *logrus.Logger) error {
	engine := spectrum.NewEngine(
		spectrum.WithInlineProcessing(),
		spectrum.WithSampleRate(float64(clip.SampleRate)),
		spectrum.WithLogger(log),
	)
	defer engine.Close()

	if o.decay >= 0 {
		if err := engine.SetDecayRenderMode(o.decay); err != nil {
			return err
		}
	}

	mono := clip.Mono()
	if len(mono) > spectrum.MaxFFTSize {
		mono = mono[:spectrum.MaxFFTSize]
	}
	if _, err := engine.Submit(mono); err != nil {
		return err
	}

	elapsed := o.elapsed
	var points []spectrum.Point
	switch o.graph {
	case "rms":
		points = collect(engine.QueryRMSGraph(&elapsed))
	case "db":
		points = collect(engine.QueryDBGraph(&elapsed))
	default:
		return fmt.Errorf("unknown graph %q (rms, db or none)", o.graph)
	}

	return printBands(w, bands(points, o.points), o.graph)
}
