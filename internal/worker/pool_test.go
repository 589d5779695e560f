package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubResult struct {
	err error
}

func (r *stubResult) GetError() error { return r.err }

// funcJob runs fn, or sleeps for hold when fn is nil.
type funcJob struct {
	fn   func(ctx context.Context) error
	hold time.Duration
}

func (j funcJob) Execute(ctx context.Context) Result {
	if j.fn != nil {
		return &stubResult{err: j.fn(ctx)}
	}
	select {
	case <-time.After(j.hold):
		return &stubResult{}
	case <-ctx.Done():
		return &stubResult{err: ctx.Err()}
	}
}

func countingJob(n *int32) funcJob {
	return funcJob{fn: func(context.Context) error {
		atomic.AddInt32(n, 1)
		return nil
	}}
}

func TestNewPool_WorkerFloor(t *testing.T) {
	for in, want := range map[int]int{5: 5, 0: 1, -3: 1} {
		if got := NewPool(context.Background(), in).workers; got != want {
			t.Errorf("NewPool(%d).workers = %d, want %d", in, got, want)
		}
	}
}

func TestPool_RunsEveryJob(t *testing.T) {
	pool := NewPool(context.Background(), 3)
	pool.Start()

	var ran int32
	for i := 0; i < 12; i++ {
		if !pool.Submit(countingJob(&ran)) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	results := pool.Wait()
	if len(results) != 12 {
		t.Errorf("got %d results, want 12", len(results))
	}
	if ran != 12 {
		t.Errorf("ran %d jobs, want 12", ran)
	}
}

func TestPool_NeverExceedsWorkers(t *testing.T) {
	const workers = 4
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var active, peak int32
	for i := 0; i < 40; i++ {
		pool.Submit(funcJob{fn: func(context.Context) error {
			now := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil
		}})
	}
	pool.Wait()

	if peak > workers {
		t.Errorf("peak concurrency %d exceeds %d workers", peak, workers)
	}
}

func TestPool_KeepsFailedResults(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(funcJob{fn: func(context.Context) error { return errors.New("unreadable document") }})
	pool.Submit(funcJob{fn: func(context.Context) error { return nil }})

	failed := 0
	for _, res := range pool.Wait() {
		if res.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("got %d failed results, want 1", failed)
	}
}

func TestResultCollector_ReturnsCopy(t *testing.T) {
	c := NewResultCollector()
	c.Add(&stubResult{})

	first := c.Results()
	first[0] = nil
	if c.Results()[0] == nil {
		t.Error("Results exposed the collector's backing slice")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool, 1)
	go func() { done <- pool.Submit(funcJob{}) }()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("Submit accepted a job after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownInterruptsRunningJob(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(funcJob{fn: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}
}

func TestPool_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()
	cancel()

	if pool.Submit(funcJob{hold: time.Minute}) {
		t.Error("Submit accepted a job after the parent context was cancelled")
	}
	pool.Wait()
}

func TestPool_ManyJobsDoNotDeadlock(t *testing.T) {
	pool := NewPool(context.Background(), 1)
	pool.Start()

	var ran int32
	for i := 0; i < 100; i++ {
		pool.Submit(countingJob(&ran))
	}

	if got := len(pool.Wait()); got != 100 {
		t.Errorf("got %d results, want 100", got)
	}
}
