package spectrum

import (
	"fmt"
	"math"
	"math/bits"
	"sync"
	"sync/atomic"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// MaxFFTSize is the largest padded transform length a query accepts (2^24).
const MaxFFTSize = 1 << 24

// FFTSize returns the smallest power of two >= n.
func FFTSize(n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyInput
	}
	shift := bits.Len(uint(n - 1))
	if shift > bits.Len(uint(MaxFFTSize))-1 {
		return 0, fmt.Errorf("%w: %d samples need a %d-bit transform, max is %d samples",
			ErrBufferTooLarge, n, shift, MaxFFTSize)
	}
	return 1 << shift, nil
}

// CancelSignal is a one-shot flag shared by an engine and its queries.
// Once raised it stays raised.
type CancelSignal struct {
	raised atomic.Bool
}

// Raise sets the signal.
func (c *CancelSignal) Raise() {
	c.raised.Store(true)
}

// Raised reports whether the signal was raised. A nil signal never is.
func (c *CancelSignal) Raised() bool {
	return c != nil && c.raised.Load()
}

// QueryState is the lifecycle stage of a Query.
type QueryState int32

const (
	QueryIdle QueryState = iota
	QueryProcessing
	QueryFinished
)

func (s QueryState) String() string {
	switch s {
	case QueryIdle:
		return "idle"
	case QueryProcessing:
		return "processing"
	case QueryFinished:
		return "finished"
	default:
		return fmt.Sprintf("QueryState(%d)", int32(s))
	}
}

// Scheduler runs a query somewhere other than inside Begin. Schedule reports
// false if it cannot accept the query; Begin then runs it inline.
type Scheduler interface {
	Schedule(q *Query) bool
}

// Query is a one-shot FFT over an immutable snapshot of samples.
type Query struct {
	samples    []float64
	length     int
	sampleRate float64
	fftSize    int
	signal     *CancelSignal
	cancelled  atomic.Bool

	mu     sync.Mutex
	state  QueryState
	result []complex128
	err    error
	done   chan struct{}
}

// NewQuery snapshots samples for a transform at sampleRate. The size limit is
// checked before anything is copied. signal may be nil.
func NewQuery(samples []float64, sampleRate float64, signal *CancelSignal) (*Query, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %f", ErrInvalidSampleRate, sampleRate)
	}
	size, err := FFTSize(len(samples))
	if err != nil {
		return nil, err
	}
	return &Query{
		samples:    append([]float64(nil), samples...),
		length:     len(samples),
		sampleRate: sampleRate,
		fftSize:    size,
		signal:     signal,
		done:       make(chan struct{}),
	}, nil
}

// FFTSize returns the padded transform length.
func (q *Query) FFTSize() int { return q.fftSize }

// SampleRate returns the sample rate the snapshot was taken at.
func (q *Query) SampleRate() float64 { return q.sampleRate }

// Len returns the number of snapshot samples.
func (q *Query) Len() int { return q.length }

// State returns the current lifecycle stage.
func (q *Query) State() QueryState {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Finished reports whether the query left the processing stage.
func (q *Query) Finished() bool {
	return q.State() == QueryFinished
}

// Done is closed once the query finishes, with or without a result.
func (q *Query) Done() <-chan struct{} { return q.done }

// Begin starts the computation. With a scheduler the work is handed off;
// with nil, or when the scheduler refuses, it runs on the calling goroutine.
// Calling Begin on a query that already started does nothing.
func (q *Query) Begin(s Scheduler) {
	q.mu.Lock()
	if q.state != QueryIdle {
		q.mu.Unlock()
		return
	}
	q.state = QueryProcessing
	q.mu.Unlock()

	if s != nil && s.Schedule(q) {
		return
	}
	q.run()
}

// Cancel asks a query that has not finished to drop its result.
func (q *Query) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != QueryFinished {
		q.cancelled.Store(true)
	}
}

// Cancelled reports whether cancellation was requested, either through Cancel
// or through the shared signal.
func (q *Query) Cancelled() bool {
	return q.cancelled.Load() || q.signal.Raised()
}

// Result returns the transform once the query finished. ok is false while it
// is still running and when it finished without a result (cancelled or failed).
func (q *Query) Result() (bins []complex128, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != QueryFinished || q.result == nil {
		return nil, false
	}
	return q.result, true
}

// Err returns the failure of a finished query, if any. Cancellation is not an
// error.
func (q *Query) Err() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err
}

// run computes the transform and finishes the query. Cancellation is checked
// around the single FFT call, not per sample.
func (q *Query) run() {
	result, err := q.compute()
	q.finish(result, err)
}

func (q *Query) compute() ([]complex128, error) {
	if q.Cancelled() {
		return nil, nil
	}

	in := make([]complex128, q.fftSize)
	for i, v := range q.samples {
		in[i] = complex(v, 0)
	}
	for i := len(q.samples); i < len(in); i++ {
		in[i] = 0
	}

	out := make([]complex128, q.fftSize)
	if q.fftSize < minPlanSize {
		directDFT(out, in)
		if q.Cancelled() {
			return nil, nil
		}
		return out, nil
	}

	plan, err := algofft.NewPlan64(q.fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: create %d-point fft plan: %w", q.fftSize, err)
	}
	if err := plan.Forward(out, in); err != nil {
		if q.Cancelled() {
			return nil, nil
		}
		return nil, fmt.Errorf("spectrum: %d-point fft: %w", q.fftSize, err)
	}

	if q.Cancelled() {
		return nil, nil
	}
	return out, nil
}

// minPlanSize is the shortest transform handed to the FFT planner. Shorter
// snapshots are transformed directly.
const minPlanSize = 16

func directDFT(dst, src []complex128) {
	n := len(src)
	for k := range dst {
		var sum complex128
		for t, x := range src {
			phi := -2 * math.Pi * float64(k*t) / float64(n)
			sum += x * complex(math.Cos(phi), math.Sin(phi))
		}
		dst[k] = sum
	}
}

func (q *Query) finish(result []complex128, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state == QueryFinished {
		return
	}
	if q.Cancelled() {
		result = nil
		err = nil
	}
	q.result = result
	q.err = err
	q.samples = nil
	q.state = QueryFinished
	close(q.done)
}
