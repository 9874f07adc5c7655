// Package job provides JobHandle, the rendezvous object a submitter
// uses to await the result of work dispatched to a worker.
package job

import "sync"

// Status is a coarse, non-blocking snapshot of a handle's progress.
// Transitions are monotone: Queued -> Running -> Completed.
type Status int

const (
	Queued Status = iota
	Running
	Completed
)

// String renders the status the way the FFI surface serializes it.
func (s Status) String() string {
	switch s {
	case Queued:
		return "queued"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// inner is the shared state between a Handle and the worker executing
// it. It outlives either side individually; the last reference to drop
// frees it.
type inner[X, Y any] struct {
	mu        sync.Mutex
	available sync.Cond

	x      *X // input slot; taken by the worker exactly once
	status Status
	y      *Y // result slot; nil until status == Completed

	f func(X) Y
}

// Handle is shared between the submitter and exactly one worker for
// the lifetime of one job.
type Handle[X, Y any] struct {
	in *inner[X, Y]
}

// New constructs a handle in the Queued state carrying x as input and
// f as the function to run. The returned handle and the func pointer
// referenced from it are what gets enqueued on a JobSystem.
func New[X, Y any](x X, f func(X) Y) *Handle[X, Y] {
	in := &inner[X, Y]{x: &x, f: f, status: Queued}
	in.available.L = &in.mu
	return &Handle[X, Y]{in: in}
}

// Get blocks the calling goroutine until the result is available and
// returns it. Get is legal from exactly one goroutine (the submitter);
// calling it more than once is a programmer error (spec.md §7, kind 5).
func (h *Handle[X, Y]) Get() Y {
	h.in.mu.Lock()
	defer h.in.mu.Unlock()
	for h.in.y == nil {
		h.in.available.Wait()
	}
	return *h.in.y
}

// GetStatus returns a non-blocking snapshot of the handle's status.
func (h *Handle[X, Y]) GetStatus() Status {
	h.in.mu.Lock()
	defer h.in.mu.Unlock()
	return h.in.status
}

// takeInput removes and returns the input exactly once. ok is false if
// the input was already taken (a worker observing a duplicate
// delivery should skip execution entirely).
func (h *Handle[X, Y]) takeInput() (x X, ok bool) {
	h.in.mu.Lock()
	defer h.in.mu.Unlock()
	if h.in.x == nil {
		return x, false
	}
	x, h.in.x = *h.in.x, nil
	return x, true
}

// setRunning transitions the handle to Running.
func (h *Handle[X, Y]) setRunning() {
	h.in.mu.Lock()
	h.in.status = Running
	h.in.mu.Unlock()
}

// publish stores y as the result, transitions to Completed, and wakes
// every waiter (there is exactly one legal waiter, but notify-all
// matches the spec's worker-loop contract in spec.md §4.3).
func (h *Handle[X, Y]) publish(y Y) {
	h.in.mu.Lock()
	h.in.y = &y
	h.in.status = Completed
	h.in.mu.Unlock()
	h.in.available.Broadcast()
}

// Run executes the handle's job to completion: it takes the input
// (returning at once if already taken, per spec.md §4.3 step 2),
// transitions to Running, invokes f, and publishes the result. Run recovers from
// a panic in f and, since Y has no error channel of its own, requires
// the caller to pass a recoverFn that turns a recovered panic into a Y
// (spec.md §4.3, §7 kind 3: "no facility exists to deliver an
// exception to the submitter").
func (h *Handle[X, Y]) Run(recoverFn func(recovered any) Y) {
	x, ok := h.takeInput()
	if !ok {
		return
	}
	h.setRunning()

	y := func() (result Y) {
		defer func() {
			if r := recover(); r != nil {
				result = recoverFn(r)
			}
		}()
		return h.in.f(x)
	}()

	h.publish(y)
}
