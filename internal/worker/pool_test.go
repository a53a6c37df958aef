package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// mockResult implements Result
type mockResult struct {
	id  int
	err error
}

func (r *mockResult) GetError() error {
	return r.err
}

// mockJob implements Job
type mockJob struct {
	id        int
	duration  time.Duration
	shouldErr bool
	executed  *int32 // atomic counter
}

func (j *mockJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		atomic.AddInt32(j.executed, 1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &mockResult{id: j.id, err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &mockResult{id: j.id, err: errors.New("job error")}
	}
	return &mockResult{id: j.id}
}

// concurrencyJob tracks the number of jobs running at once
type concurrencyJob struct {
	current  *int32
	peak     *int32
	duration time.Duration
}

func (j *concurrencyJob) Execute(ctx context.Context) Result {
	n := atomic.AddInt32(j.current, 1)
	for {
		p := atomic.LoadInt32(j.peak)
		if n <= p || atomic.CompareAndSwapInt32(j.peak, p, n) {
			break
		}
	}
	time.Sleep(j.duration)
	atomic.AddInt32(j.current, -1)
	return &mockResult{}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}

	for _, tt := range tests {
		if got := NewPool(tt.in).workers; got != tt.want {
			t.Errorf("NewPool(%d).workers = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPool_ProcessKeepsJobOrder(t *testing.T) {
	pool := NewPool(4)

	var executed int32
	jobs := make([]Job, 20)
	for i := range jobs {
		// Earlier jobs take longer so they finish out of order
		jobs[i] = &mockJob{id: i, executed: &executed, duration: time.Duration(20-i) * time.Millisecond}
	}

	results := pool.Process(jobs)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if got := r.(*mockResult).id; got != i {
			t.Errorf("results[%d] came from job %d", i, got)
		}
	}
	if atomic.LoadInt32(&executed) != int32(len(jobs)) {
		t.Errorf("expected %d executed jobs, got %d", len(jobs), executed)
	}
}

func TestPool_Concurrency(t *testing.T) {
	workers := 5
	pool := NewPool(workers)

	var current, peak int32
	jobs := make([]Job, 40)
	for i := range jobs {
		jobs[i] = &concurrencyJob{current: &current, peak: &peak, duration: 5 * time.Millisecond}
	}

	pool.Process(jobs)

	if p := atomic.LoadInt32(&peak); p > int32(workers) {
		t.Errorf("peak concurrency %d exceeded workers %d", p, workers)
	}
	if p := atomic.LoadInt32(&peak); p <= 1 {
		t.Logf("Warning: peak concurrency was %d, expected > 1", p)
	}
}

func TestPool_ErrorHandling(t *testing.T) {
	pool := NewPool(3)

	jobs := make([]Job, 50)
	for i := range jobs {
		jobs[i] = &mockJob{id: i, shouldErr: i%10 == 0}
	}

	errCount := 0
	for _, r := range pool.Process(jobs) {
		if r.GetError() != nil {
			errCount++
		}
	}
	if errCount != 5 {
		t.Errorf("expected 5 errors, got %d", errCount)
	}
}

func TestPool_ProcessEmpty(t *testing.T) {
	if results := NewPool(2).Process(nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestPool_ShutdownStopsRunningJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Shutdown()

	done := make(chan []Result)
	go func() {
		done <- pool.Process([]Job{&mockJob{duration: time.Second}, &mockJob{duration: time.Second}})
	}()

	select {
	case results := <-done:
		for i, r := range results {
			if r != nil && !errors.Is(r.GetError(), context.Canceled) {
				t.Errorf("results[%d] = %v, want nil or context.Canceled", i, r.GetError())
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Process did not stop after Shutdown")
	}
}

func TestNewPoolContext_ParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPoolContext(ctx, 2)

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Process([]Job{
		&mockJob{duration: time.Second},
		&mockJob{duration: time.Second},
		&mockJob{duration: time.Second},
	})

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Process took %v after parent cancellation", elapsed)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 result slots, got %d", len(results))
	}
	if results[2] != nil {
		t.Errorf("third job should never start, got %v", results[2])
	}
}
