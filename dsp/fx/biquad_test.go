package fx

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-audiofx/internal/testutil"
)

const testSampleRate = 44100.0

func mono(samples []float64) Buffer {
	return Buffer{Samples: samples, Channels: 1, SampleRate: testSampleRate}
}

func TestBiquadRejectsInvalidParams(t *testing.T) {
	b, err := NewBiquad(HighPass, 500, 2)
	if err != nil {
		t.Fatalf("NewBiquad: %v", err)
	}

	tests := []struct {
		name      string
		typ       BiquadType
		frequency float64
		resonance float64
	}{
		{name: "type", typ: BiquadType(7), frequency: 1000, resonance: 1},
		{name: "zero frequency", typ: LowPass, frequency: 0, resonance: 1},
		{name: "negative frequency", typ: LowPass, frequency: -10, resonance: 1},
		{name: "zero resonance", typ: LowPass, frequency: 1000, resonance: 0},
		{name: "nan resonance", typ: LowPass, frequency: 1000, resonance: math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.SetParams(tt.typ, tt.frequency, tt.resonance)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("SetParams err = %v, want ErrInvalidParameter", err)
			}
			if b.Type() != HighPass || b.Frequency() != 500 || b.Resonance() != 2 {
				t.Fatalf("rejected params changed state: %v %v %v", b.Type(), b.Frequency(), b.Resonance())
			}
		})
	}

	if _, err := NewBiquad(LowPass, 0, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("NewBiquad err = %v, want ErrInvalidParameter", err)
	}
}

func TestBiquadDryIsIdentity(t *testing.T) {
	for _, typ := range []BiquadType{LowPass, HighPass, BandPass} {
		for _, n := range []int{1, 64, 65} {
			b, err := NewBiquad(typ, 2000, 4)
			if err != nil {
				t.Fatalf("NewBiquad: %v", err)
			}
			if err := b.SetWet(0); err != nil {
				t.Fatalf("SetWet: %v", err)
			}

			in := testutil.Noise(int64(n), 0.8, n)
			buf := testutil.Clone(in)
			if err := b.Process(mono(buf)); err != nil {
				t.Fatalf("Process: %v", err)
			}
			testutil.RequireSliceEqual(t, buf, in)
		}
	}
}

func TestBiquadCoefficientsRecomputedOnlyOnChange(t *testing.T) {
	b, err := NewBiquad(LowPass, 1000, 0.7)
	if err != nil {
		t.Fatalf("NewBiquad: %v", err)
	}

	steps := []struct {
		name       string
		mutate     func()
		sampleRate float64
		want       int
	}{
		{name: "first call", mutate: func() {}, sampleRate: 44100, want: 1},
		{name: "unchanged", mutate: func() {}, sampleRate: 44100, want: 1},
		{name: "wet only", mutate: func() { b.SetParameter(ParamWet, 0.5) }, sampleRate: 44100, want: 1},
		{name: "frequency", mutate: func() { b.SetParameter(ParamBiquadFrequency, 2000) }, sampleRate: 44100, want: 2},
		{name: "resonance", mutate: func() { b.SetParameter(ParamBiquadResonance, 3) }, sampleRate: 44100, want: 3},
		{name: "type", mutate: func() { b.SetParameter(ParamBiquadType, float64(HighPass)) }, sampleRate: 44100, want: 4},
		{name: "sample rate", mutate: func() {}, sampleRate: 48000, want: 5},
		{name: "unchanged again", mutate: func() {}, sampleRate: 48000, want: 5},
	}

	for i, st := range steps {
		st.mutate()
		buf := Buffer{Samples: make([]float64, 16), Channels: 1, SampleRate: st.sampleRate, Time: float64(i)}
		if err := b.Process(buf); err != nil {
			t.Fatalf("%s: Process: %v", st.name, err)
		}
		if b.recomputes != st.want {
			t.Fatalf("%s: recomputes = %d, want %d", st.name, b.recomputes, st.want)
		}
	}
}

func TestBiquadContinuityAcrossBuffers(t *testing.T) {
	in := testutil.Sine(440, testSampleRate, 0.5, 512)

	whole, _ := NewBiquad(LowPass, 800, 1)
	want := testutil.Clone(in)
	if err := whole.Process(mono(want)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	split, _ := NewBiquad(LowPass, 800, 1)
	got := testutil.Clone(in)
	first := mono(got[:256])
	second := mono(got[256:])
	second.Time = 256 / testSampleRate
	if err := split.Process(first); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if err := split.Process(second); err != nil {
		t.Fatalf("Process: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
}

func TestBiquadTimeRewindResetsHistory(t *testing.T) {
	in := testutil.Noise(3, 0.5, 128)

	fresh, _ := NewBiquad(BandPass, 1200, 2)
	want := testutil.Clone(in)
	if err := fresh.Process(mono(want)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	b, _ := NewBiquad(BandPass, 1200, 2)
	warm := mono(testutil.Noise(9, 0.5, 128))
	warm.Time = 10
	if err := b.Process(warm); err != nil {
		t.Fatalf("Process: %v", err)
	}
	got := testutil.Clone(in)
	if err := b.Process(mono(got)); err != nil {
		t.Fatalf("Process: %v", err)
	}

	testutil.RequireSliceEqual(t, got, want)
}

func TestBiquadOddSampleReusesLastOutput(t *testing.T) {
	b, _ := NewBiquad(LowPass, 3000, 0.7)
	buf := testutil.Noise(5, 1, 7)
	if err := b.Process(mono(buf)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if buf[6] != buf[5] {
		t.Fatalf("trailing sample = %v, want previous output %v", buf[6], buf[5])
	}
}

func TestBiquadFrequencyResponse(t *testing.T) {
	const n = 8192

	tests := []struct {
		name    string
		typ     BiquadType
		passHz  float64
		stopHz  float64
		cutoff  float64
		minDiff float64
	}{
		{name: "lowpass", typ: LowPass, passHz: 100, stopHz: 10000, cutoff: 1000, minDiff: 4},
		{name: "highpass", typ: HighPass, passHz: 10000, stopHz: 100, cutoff: 1000, minDiff: 4},
		{name: "bandpass", typ: BandPass, passHz: 1000, stopHz: 10000, cutoff: 1000, minDiff: 4},
	}

	level := func(typ BiquadType, cutoff, freq float64) float64 {
		b, err := NewBiquad(typ, cutoff, 0.7071)
		if err != nil {
			t.Fatalf("NewBiquad: %v", err)
		}
		buf := testutil.Sine(freq, testSampleRate, 1, n)
		if err := b.Process(mono(buf)); err != nil {
			t.Fatalf("Process: %v", err)
		}
		return testutil.RMS(buf[n/2:])
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pass := level(tt.typ, tt.cutoff, tt.passHz)
			stop := level(tt.typ, tt.cutoff, tt.stopHz)
			if pass < tt.minDiff*stop {
				t.Fatalf("pass band rms %v not above stop band rms %v by %vx", pass, stop, tt.minDiff)
			}
		})
	}
}

func TestBiquadPlanarMatchesInterleaved(t *testing.T) {
	l := testutil.Sine(300, testSampleRate, 0.7, 100)
	r := testutil.Noise(11, 0.3, 100)

	planar, _ := NewBiquad(HighPass, 600, 1.5)
	pbuf := testutil.Planar(l, r)
	if err := planar.Process(Buffer{Samples: pbuf, Channels: 2, SampleRate: testSampleRate}); err != nil {
		t.Fatalf("Process planar: %v", err)
	}

	inter, _ := NewBiquad(HighPass, 600, 1.5)
	ibuf := testutil.Interleave(l, r)
	if err := inter.Process(Buffer{Samples: ibuf, Channels: 2, SampleRate: testSampleRate, Interleaved: true}); err != nil {
		t.Fatalf("Process interleaved: %v", err)
	}

	for f := 0; f < 100; f++ {
		if pbuf[f] != ibuf[2*f] || pbuf[100+f] != ibuf[2*f+1] {
			t.Fatalf("frame %d differs: planar (%v, %v) interleaved (%v, %v)",
				f, pbuf[f], pbuf[100+f], ibuf[2*f], ibuf[2*f+1])
		}
	}
}

func TestBiquadRejectsInvalidBuffer(t *testing.T) {
	b, _ := NewBiquad(LowPass, 1000, 1)
	err := b.Process(Buffer{Samples: make([]float64, 18), Channels: 9, SampleRate: testSampleRate})
	if !errors.Is(err, ErrInvalidBuffer) {
		t.Fatalf("Process err = %v, want ErrInvalidBuffer", err)
	}
}

func TestBiquadAboveNyquistStaysFinite(t *testing.T) {
	for _, typ := range []BiquadType{LowPass, HighPass, BandPass} {
		for _, freq := range []float64{testSampleRate / 2, 33075, 1e6} {
			b, err := NewBiquad(typ, freq, 0.5)
			if err != nil {
				t.Fatalf("NewBiquad(%v, %v): %v", typ, freq, err)
			}

			buf := testutil.Noise(11, 1, 256)
			if err := b.Process(mono(buf)); err != nil {
				t.Fatalf("Process: %v", err)
			}
			testutil.RequireFinite(t, buf)

			if b.Frequency() != freq {
				t.Fatalf("Frequency() = %v, want stored %v", b.Frequency(), freq)
			}
		}
	}
}
