// Package worker runs JobHandles dequeued from a shared MessageQueue.
package worker

import (
	"sync"

	"github.com/nuulab/flowengine/internal/job"
	"github.com/nuulab/flowengine/internal/mqueue"
)

// Message is what a JobSystem sends on the shared queue: either a
// handle to execute, or the Join sentinel telling the worker to exit
// its loop (spec.md §4.3).
type Message[X, Y any] struct {
	Handle *job.Handle[X, Y]
	Join   bool
}

// Worker owns one goroutine that dequeues messages and runs handles to
// completion.
type Worker[X, Y any] struct {
	wg sync.WaitGroup
}

// New spawns a worker goroutine consuming from queue. recoverFn turns
// a panic inside a job function into a Y result (spec.md §4.3, §7).
func New[X, Y any](queue *mqueue.Queue[Message[X, Y]], recoverFn func(recovered any) Y) *Worker[X, Y] {
	w := &Worker[X, Y]{}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		loop(queue, recoverFn)
	}()
	return w
}

func loop[X, Y any](queue *mqueue.Queue[Message[X, Y]], recoverFn func(recovered any) Y) {
	for {
		msg := queue.Recv()
		if msg.Join {
			return
		}
		msg.Handle.Run(recoverFn)
	}
}

// Wait blocks until the worker's goroutine has returned. The caller
// must have already arranged for exactly one Join message to reach
// this worker (JobSystem.Close does this for every worker it owns).
func (w *Worker[X, Y]) Wait() {
	w.wg.Wait()
}
