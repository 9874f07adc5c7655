// Package jobsystem owns a pool of workers and the shared queue they
// consume from, and is the submit/await entry point for jobs.
package jobsystem

import (
	"sync"

	"github.com/nuulab/flowengine/internal/job"
	"github.com/nuulab/flowengine/internal/mqueue"
	"github.com/nuulab/flowengine/internal/worker"
)

// System owns a vector of workers and one shared FIFO. The zero value
// is not usable; construct with New.
type System[X, Y any] struct {
	mu        sync.Mutex
	queue     *mqueue.Queue[worker.Message[X, Y]]
	workers   []*worker.Worker[X, Y]
	recoverFn func(recovered any) Y
	closed    bool
}

// New creates an empty pool with a live queue. recoverFn is used by
// every worker the system spawns to turn a panicking job function
// into a Y result (spec.md §4.3, §7 kind 3).
func New[X, Y any](recoverFn func(recovered any) Y) *System[X, Y] {
	return &System[X, Y]{
		queue:     mqueue.New[worker.Message[X, Y]](),
		recoverFn: recoverFn,
	}
}

// AddWorker spawns one additional worker consuming the same queue.
func (s *System[X, Y]) AddWorker() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker.New(s.queue, s.recoverFn))
}

// NumWorkers reports how many workers are currently in the pool.
func (s *System[X, Y]) NumWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workers)
}

// SendJob constructs a handle for (x, f), enqueues it, and returns the
// handle so the caller can block on it later with Handle.Get.
func (s *System[X, Y]) SendJob(x X, f func(X) Y) *job.Handle[X, Y] {
	h := job.New(x, f)
	s.queue.Send(worker.Message[X, Y]{Handle: h})
	return h
}

// Close enqueues exactly one Join sentinel per worker, then waits for
// every worker's goroutine to return. Any handle still queued behind
// the Join sentinels is simply never picked up; any handle already
// picked up completes normally (spec.md §4.4). Close is idempotent.
func (s *System[X, Y]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	workers := s.workers
	s.mu.Unlock()

	for range workers {
		s.queue.Send(worker.Message[X, Y]{Join: true})
	}
	for _, w := range workers {
		w.Wait()
	}
}
