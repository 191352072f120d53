package spectrum

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Worker runs queries one at a time, in scheduling order, on a single
// long-running goroutine.
type Worker struct {
	log logrus.FieldLogger

	mu      sync.Mutex
	pending []*Query
	closed  bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewWorker starts a worker goroutine. log may be nil.
func NewWorker(log logrus.FieldLogger) *Worker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	w := &Worker{
		log:     log,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w
}

// Schedule queues q for the worker. It returns false once the worker is closed.
func (w *Worker) Schedule(q *Query) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.pending = append(w.pending, q)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

func (w *Worker) next() *Query {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) == 0 {
		return nil
	}
	q := w.pending[0]
	w.pending[0] = nil
	w.pending = w.pending[1:]
	return q
}

func (w *Worker) loop() {
	defer close(w.stopped)
	for {
		select {
		case <-w.stop:
			return
		case <-w.wake:
		}

		for q := w.next(); q != nil; q = w.next() {
			select {
			case <-w.stop:
				w.requeue(q)
				return
			default:
			}

			w.log.WithFields(logrus.Fields{
				"function": "Worker.loop",
				"samples":  q.Len(),
				"fft_size": q.FFTSize(),
			}).Debug("Computing spectrum query")

			q.run()

			if err := q.Err(); err != nil {
				w.log.WithFields(logrus.Fields{
					"function": "Worker.loop",
					"fft_size": q.FFTSize(),
					"error":    err.Error(),
				}).Error("Spectrum query failed")
			}
		}
	}
}

func (w *Worker) requeue(q *Query) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending = append([]*Query{q}, w.pending...)
}

// Close stops the worker after the query in flight and waits for the
// goroutine to exit. Queries still waiting are cancelled and finished
// without a result.
func (w *Worker) Close() {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()

		close(w.stop)
		<-w.stopped

		w.mu.Lock()
		left := w.pending
		w.pending = nil
		w.mu.Unlock()

		for _, q := range left {
			q.Cancel()
			q.run()
		}

		w.log.WithFields(logrus.Fields{
			"function":  "Worker.Close",
			"cancelled": len(left),
		}).Debug("Spectrum worker stopped")
	})
}

// inlineScheduler runs queries on the submitting goroutine, one at a time.
type inlineScheduler struct {
	mu sync.Mutex
}

func (s *inlineScheduler) Schedule(q *Query) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.run()
	return true
}
