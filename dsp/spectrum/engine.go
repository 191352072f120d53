package spectrum

import (
	"fmt"
	"iter"
	"sync"

	"github.com/cwbudde/algo-audiofx/dsp/core"
	"github.com/sirupsen/logrus"
)

type engineConfig struct {
	proc   core.ProcessorConfig
	inline bool
	log    logrus.FieldLogger
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithSampleRate sets the sample rate submitted snapshots are taken at.
func WithSampleRate(sampleRate float64) EngineOption {
	return func(c *engineConfig) {
		core.WithSampleRate(sampleRate)(&c.proc)
	}
}

// WithInlineProcessing computes queries on the goroutine that submits them
// instead of the background worker.
func WithInlineProcessing() EngineOption {
	return func(c *engineConfig) {
		c.inline = true
	}
}

// WithLogger sets the logger for engine and worker events.
func WithLogger(log logrus.FieldLogger) EngineOption {
	return func(c *engineConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// Engine queues spectrum queries and renders the latest finished one as a
// graph.
//
// Submit may be called from any goroutine. The graph methods and render
// mode setters are meant for a single UI goroutine; they are serialized
// internally but the elapsed-time accumulator belongs to the caller.
type Engine struct {
	cfg       engineConfig
	signal    *CancelSignal
	worker    *Worker
	scheduler Scheduler

	qmu    sync.Mutex
	queue  []*Query
	closed bool

	mu        sync.Mutex
	active    *Query
	graph     *Graph
	mode      RenderMode
	decay     float64
	modeDirty bool

	closeOnce sync.Once
}

// NewEngine returns an engine. Unless WithInlineProcessing is given it starts
// a background worker; release it with Close.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := engineConfig{
		proc: core.DefaultProcessorConfig(),
		log:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	e := &Engine{
		cfg:    cfg,
		signal: &CancelSignal{},
	}
	if cfg.inline {
		e.scheduler = &inlineScheduler{}
	} else {
		e.worker = NewWorker(cfg.log)
		e.scheduler = e.worker
	}

	cfg.log.WithFields(logrus.Fields{
		"function":    "NewEngine",
		"sample_rate": cfg.proc.SampleRate,
		"inline":      cfg.inline,
	}).Debug("Spectrum engine created")

	return e
}

// SampleRate returns the sample rate used for new queries.
func (e *Engine) SampleRate() float64 { return e.cfg.proc.SampleRate }

// Submit snapshots samples into a new query, queues it and starts it.
// Snapshots that would need more than MaxFFTSize points are rejected before
// anything is allocated.
func (e *Engine) Submit(samples []float64) (*Query, error) {
	e.qmu.Lock()
	closed := e.closed
	e.qmu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}

	q, err := NewQuery(samples, e.cfg.proc.SampleRate, e.signal)
	if err != nil {
		e.cfg.log.WithFields(logrus.Fields{
			"function": "Engine.Submit",
			"samples":  len(samples),
			"error":    err.Error(),
		}).Warn("Spectrum query rejected")
		return nil, err
	}

	e.qmu.Lock()
	if e.closed {
		e.qmu.Unlock()
		return nil, ErrEngineClosed
	}
	e.queue = append(e.queue, q)
	e.qmu.Unlock()

	q.Begin(e.scheduler)
	return q, nil
}

// Pending returns the number of queued queries not yet drained into the graph.
func (e *Engine) Pending() int {
	e.qmu.Lock()
	defer e.qmu.Unlock()
	return len(e.queue)
}

// Active returns the query the graph was last populated from.
func (e *Engine) Active() *Query {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// SetStaticRenderMode makes the graph snap to each new result. It takes
// effect on the next graph query.
func (e *Engine) SetStaticRenderMode() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = RenderStatic
	e.decay = 0
	e.modeDirty = true
}

// SetDecayRenderMode makes the graph fade toward new results. decay is the
// fraction of the difference still showing after one second and must be in
// [0, 1). It takes effect on the next graph query.
func (e *Engine) SetDecayRenderMode(decay float64) error {
	if decay < 0 || decay >= 1 || !core.IsFinite(decay) {
		return fmt.Errorf("%w: %f", ErrInvalidDecay, decay)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = RenderDecay
	e.decay = decay
	e.modeDirty = true
	return nil
}

// QueryRMSGraph returns the current spectrum as RMS levels. See queryGraph
// for how elapsed is used.
func (e *Engine) QueryRMSGraph(elapsed *float64) iter.Seq[Point] {
	return e.queryGraph(TransformRMS, elapsed)
}

// QueryDBGraph returns the current spectrum in dB.
func (e *Engine) QueryDBGraph(elapsed *float64) iter.Seq[Point] {
	return e.queryGraph(TransformDB, elapsed)
}

// queryGraph rebuilds the graph if a different transform is requested,
// drains finished queries and repopulates the graph from the newest one.
// elapsed is the caller's time in seconds since the graph was last
// populated; it is reset to zero whenever that happens.
func (e *Engine) queryGraph(kind TransformKind, elapsed *float64) iter.Seq[Point] {
	var local float64
	if elapsed == nil {
		elapsed = &local
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rebuilt := false
	if e.graph == nil || e.graph.Kind() != kind {
		e.graph = newGraph(kind)
		e.modeDirty = true
		rebuilt = true
	}

	if e.drain() || rebuilt {
		if e.active != nil {
			if bins, ok := e.active.Result(); ok {
				e.graph.populate(bins, e.active.SampleRate(), *elapsed)
				*elapsed = 0
			}
		}
	}

	if e.modeDirty {
		e.graph.setMode(e.mode, e.decay)
		e.modeDirty = false
	}

	return e.graph.Points(*elapsed)
}

// drain pops finished queries off the front of the queue and makes the last
// one popped active. A query still computing blocks everything behind it.
func (e *Engine) drain() bool {
	e.qmu.Lock()
	defer e.qmu.Unlock()

	drained := false
	for len(e.queue) > 0 && e.queue[0].Finished() {
		e.active = e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		drained = true
	}
	return drained
}

// Close raises the cancel signal, stops the worker and drops the queue, the
// active query and the graph. Later calls do nothing.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.signal.Raise()

		e.qmu.Lock()
		e.closed = true
		queued := e.queue
		e.queue = nil
		e.qmu.Unlock()

		for _, q := range queued {
			q.Cancel()
		}
		if e.worker != nil {
			e.worker.Close()
		}

		e.mu.Lock()
		e.active = nil
		e.graph = nil
		e.mu.Unlock()

		e.cfg.log.WithFields(logrus.Fields{
			"function":  "Engine.Close",
			"cancelled": len(queued),
		}).Info("Spectrum engine closed")
	})
}
