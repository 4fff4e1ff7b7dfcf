// Package worker runs fire-and-forget persistence side-effects on a bounded
// pool, detached from the request path so a disconnected caller never
// cancels them.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/scamshield/scamshield/pkg/logging"
)

// taskTimeout bounds a single task. Generous enough for transcription of
// the largest accepted audio file.
const taskTimeout = 2 * time.Minute

type task struct {
	name string
	fn   func(ctx context.Context)
}

// Runner executes submitted tasks on a fixed number of workers. Submission
// never blocks; when the queue is full the task is dropped and counted.
type Runner struct {
	queue   chan task
	logger  *logging.Logger
	dropped func(name string)

	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewRunner starts workers goroutines draining a queue of queueSize tasks.
// dropped is invoked (if non-nil) for every task discarded on overflow.
func NewRunner(workers, queueSize int, logger *logging.Logger, dropped func(name string)) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = logging.Default()
	}
	r := &Runner{
		queue:   make(chan task, queueSize),
		logger:  logger,
		dropped: dropped,
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// Submit enqueues a task. Returns false if the runner is closed or the queue
// is full; the failure is logged so it stays observable.
func (r *Runner) Submit(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		r.logger.Warn("background task rejected, runner closed", "task", name)
		return false
	}
	r.mu.Unlock()

	select {
	case r.queue <- task{name: name, fn: fn}:
		return true
	default:
		r.logger.Warn("background task dropped, queue full", "task", name)
		if r.dropped != nil {
			r.dropped(name)
		}
		return false
	}
}

// Close stops accepting tasks and waits for in-flight ones to finish.
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	r.wg.Wait()
}

func (r *Runner) work() {
	defer r.wg.Done()
	for t := range r.queue {
		r.run(t)
	}
}

func (r *Runner) run(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("background task panicked", "task", t.name, "panic", rec)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()
	t.fn(ctx)
}
