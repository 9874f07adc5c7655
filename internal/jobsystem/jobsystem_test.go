package jobsystem_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/nuulab/flowengine/internal/jobsystem"
)

func recoverAsNegOne(any) int { return -1 }

func TestSendJob_RunsOnWorker(t *testing.T) {
	sys := jobsystem.New[int, int](recoverAsNegOne)
	defer sys.Close()
	sys.AddWorker()

	h := sys.SendJob(10, func(x int) int { return x + 1 })
	if got := h.Get(); got != 11 {
		t.Fatalf("Get() = %d, want 11", got)
	}
}

func TestSendJob_NoWorkersBlocksUntilAdded(t *testing.T) {
	sys := jobsystem.New[int, int](recoverAsNegOne)
	defer sys.Close()

	h := sys.SendJob(1, func(x int) int { return x })

	done := make(chan struct{})
	go func() {
		h.Get()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("job completed with zero workers")
	case <-time.After(20 * time.Millisecond):
	}

	sys.AddWorker()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job never completed after adding a worker")
	}
}

func TestClose_JoinsAllWorkers(t *testing.T) {
	sys := jobsystem.New[int, int](recoverAsNegOne)
	for i := 0; i < 4; i++ {
		sys.AddWorker()
	}

	var completed atomic.Int64
	for i := 0; i < 10; i++ {
		sys.SendJob(i, func(x int) int {
			time.Sleep(10 * time.Millisecond)
			completed.Add(1)
			return x
		})
	}

	done := make(chan struct{})
	go func() {
		sys.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close() did not return within the bound; a worker thread was left behind")
	}
}

func TestNumWorkers(t *testing.T) {
	sys := jobsystem.New[int, int](recoverAsNegOne)
	defer sys.Close()

	if got := sys.NumWorkers(); got != 0 {
		t.Fatalf("NumWorkers() = %d, want 0", got)
	}
	sys.AddWorker()
	sys.AddWorker()
	if got := sys.NumWorkers(); got != 2 {
		t.Fatalf("NumWorkers() = %d, want 2", got)
	}
}
