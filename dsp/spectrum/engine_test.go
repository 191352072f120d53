package spectrum

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-audiofx/dsp/core"
	"github.com/cwbudde/algo-audiofx/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

func newInlineEngine(t *testing.T, sampleRate float64) *Engine {
	t.Helper()
	log, _ := quietLogger()
	e := NewEngine(WithInlineProcessing(), WithSampleRate(sampleRate), WithLogger(log))
	t.Cleanup(e.Close)
	return e
}

func waitDone(t *testing.T, q *Query) {
	t.Helper()
	select {
	case <-q.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("query did not finish")
	}
}

func TestEngineDefaults(t *testing.T) {
	log, _ := quietLogger()
	e := NewEngine(WithLogger(log))
	defer e.Close()

	assert.Equal(t, core.DefaultProcessorConfig().SampleRate, e.SampleRate())
	assert.Nil(t, e.Active())
	assert.Equal(t, 0, e.Pending())
	assert.Empty(t, slices.Collect(e.QueryRMSGraph(nil)))
}

func TestEngineSubmitAndGraph(t *testing.T) {
	e := newInlineEngine(t, 1024)

	q, err := e.Submit(testutil.Sine(64, 1024, 1, 1024))
	require.NoError(t, err)
	assert.True(t, q.Finished())
	assert.Equal(t, 1, e.Pending())

	elapsed := 0.3
	points := slices.Collect(e.QueryRMSGraph(&elapsed))
	assert.Equal(t, 0.0, elapsed, "populating resets elapsed")
	assert.Equal(t, 0, e.Pending())
	assert.Same(t, q, e.Active())
	require.Len(t, points, 513)

	peak := points[0]
	for _, p := range points {
		if p.Magnitude > peak.Magnitude {
			peak = p
		}
	}
	assert.InDelta(t, 64, peak.Frequency, 1e-9)
	assert.InDelta(t, 0.7071, peak.Magnitude, 1e-3)

	elapsed = 0.7
	e.QueryRMSGraph(&elapsed)
	assert.Equal(t, 0.7, elapsed, "nothing new, elapsed untouched")
}

func TestEngineBackgroundWorker(t *testing.T) {
	log, _ := quietLogger()
	e := NewEngine(WithSampleRate(1000), WithLogger(log))
	defer e.Close()

	q, err := e.Submit(testutil.Sine(125, 1000, 1, 4096))
	require.NoError(t, err)
	waitDone(t, q)

	points := slices.Collect(e.QueryDBGraph(nil))
	require.Len(t, points, 2049)
	assert.Same(t, q, e.Active())
}

func TestEngineDrainStopsAtRunningQuery(t *testing.T) {
	e := newInlineEngine(t, 16)

	first, err := e.Submit(testutil.DC(1, 16))
	require.NoError(t, err)

	running, err := NewQuery(testutil.DC(2, 16), 16, e.signal)
	require.NoError(t, err)
	running.Begin(&countingScheduler{})
	e.qmu.Lock()
	e.queue = append(e.queue, running)
	e.qmu.Unlock()

	_, err = e.Submit(testutil.DC(3, 16))
	require.NoError(t, err)

	mags := magnitudes(e.QueryRMSGraph(nil))
	assert.Same(t, first, e.Active())
	assert.Equal(t, 2, e.Pending())
	assert.InDelta(t, 1, mags[0], 1e-12)

	running.run()
	mags = magnitudes(e.QueryRMSGraph(nil))
	assert.Equal(t, 0, e.Pending())
	assert.InDelta(t, 3, mags[0], 1e-12, "newest finished query wins")
}

func TestEngineDecayRendering(t *testing.T) {
	e := newInlineEngine(t, 16)
	require.NoError(t, e.SetDecayRenderMode(0.5))

	_, err := e.Submit(testutil.DC(1, 16))
	require.NoError(t, err)
	elapsed := 0.0
	assert.InDelta(t, 1, magnitudes(e.QueryRMSGraph(&elapsed))[0], 1e-12)

	_, err = e.Submit(testutil.DC(0, 16))
	require.NoError(t, err)
	assert.InDelta(t, 1, magnitudes(e.QueryRMSGraph(&elapsed))[0], 1e-12)

	elapsed = 1
	assert.InDelta(t, 0.5, magnitudes(e.QueryRMSGraph(&elapsed))[0], 1e-12)
	elapsed = 2
	assert.InDelta(t, 0.25, magnitudes(e.QueryRMSGraph(&elapsed))[0], 1e-12)
}

func TestEngineSwitchTransformKeepsMode(t *testing.T) {
	e := newInlineEngine(t, 16)
	require.NoError(t, e.SetDecayRenderMode(0.25))

	_, err := e.Submit(testutil.DC(1, 16))
	require.NoError(t, err)
	e.QueryRMSGraph(nil)

	_, err = e.Submit(testutil.DC(0, 16))
	require.NoError(t, err)

	elapsed := 0.0
	mags := magnitudes(e.QueryDBGraph(&elapsed))
	for _, m := range mags {
		assert.Equal(t, core.SilenceDB, m, "history discarded on transform switch")
	}
	assert.Equal(t, 0.0, elapsed)

	mode, decay := e.graph.Mode()
	assert.Equal(t, RenderDecay, mode)
	assert.Equal(t, 0.25, decay)
	assert.Equal(t, TransformDB, e.graph.Kind())
}

func TestEngineStaticMode(t *testing.T) {
	e := newInlineEngine(t, 16)
	require.NoError(t, e.SetDecayRenderMode(0.9))

	_, err := e.Submit(testutil.DC(1, 16))
	require.NoError(t, err)
	e.QueryRMSGraph(nil)

	e.SetStaticRenderMode()
	_, err = e.Submit(testutil.DC(0, 16))
	require.NoError(t, err)

	assert.Equal(t, 0.0, magnitudes(e.QueryRMSGraph(nil))[0])
	mode, _ := e.graph.Mode()
	assert.Equal(t, RenderStatic, mode)
}

func TestEngineSetDecayRenderModeRejects(t *testing.T) {
	e := newInlineEngine(t, 16)

	for _, d := range []float64{-0.1, 1, 2} {
		assert.ErrorIs(t, e.SetDecayRenderMode(d), ErrInvalidDecay, "decay %v", d)
	}
	assert.NoError(t, e.SetDecayRenderMode(0))
}

func TestEngineSubmitRejects(t *testing.T) {
	log, hook := quietLogger()
	e := NewEngine(WithInlineProcessing(), WithLogger(log))
	defer e.Close()

	_, err := e.Submit(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Equal(t, 0, e.Pending())

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "Engine.Submit", entry.Data["function"])
}

func TestEngineClose(t *testing.T) {
	log, hook := quietLogger()
	e := NewEngine(WithSampleRate(44100), WithLogger(log))

	var queries []*Query
	for i := 0; i < 4; i++ {
		q, err := e.Submit(testutil.Noise(int64(i), 1, 1<<16))
		require.NoError(t, err)
		queries = append(queries, q)
	}

	e.Close()
	e.Close()

	for _, q := range queries {
		waitDone(t, q)
		assert.True(t, q.Finished())
	}
	assert.Nil(t, e.Active())
	assert.Equal(t, 0, e.Pending())

	_, err := e.Submit([]float64{1})
	assert.ErrorIs(t, err, ErrEngineClosed)

	found := false
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Spectrum engine closed" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEngineConcurrentSubmit(t *testing.T) {
	log, _ := quietLogger()
	e := NewEngine(WithSampleRate(8000), WithLogger(log))
	defer e.Close()

	const producers, each = 4, 8

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []*Query
	)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			for i := 0; i < each; i++ {
				q, err := e.Submit(testutil.Noise(seed*100+int64(i), 1, 512))
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				all = append(all, q)
				mu.Unlock()
			}
		}(int64(p))
	}
	wg.Wait()

	require.Len(t, all, producers*each)
	for _, q := range all {
		waitDone(t, q)
	}

	points := slices.Collect(e.QueryRMSGraph(nil))
	assert.Len(t, points, 257)
	assert.Equal(t, 0, e.Pending())
	assert.Contains(t, all, e.Active())
}
