package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestPool_Do_RunsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(2, zerolog.Nop())
	p.Start(ctx)

	var ran bool
	if err := p.Do(context.Background(), func() { ran = true }); err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if !ran {
		t.Fatalf("expected job to run before Do returned")
	}
}

func TestPool_Do_Concurrent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(4, zerolog.Nop())
	p.Start(ctx)

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := p.Do(context.Background(), func() { atomic.AddInt64(&count, 1) }); err != nil {
				t.Errorf("Do returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt64(&count); got != 100 {
		t.Fatalf("expected 100 jobs, got %d", got)
	}
}

func TestPool_Do_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)

	started := make(chan struct{})
	release := make(chan struct{})
	defer close(release)
	go func() {
		_ = p.Do(context.Background(), func() {
			close(started)
			<-release
		})
	}()
	<-started

	reqCtx, reqCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer reqCancel()

	err := p.Do(reqCtx, func() {})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPool_Do_AfterStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)
	cancel()

	deadline := time.After(time.Second)
	for {
		err := p.Do(context.Background(), func() {})
		if errors.Is(err, ErrPoolClosed) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("expected ErrPoolClosed after stop, got %v", err)
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
}

func TestPool_Do_RecoversPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)

	if err := p.Do(context.Background(), func() { panic("boom") }); !errors.Is(err, ErrJobPanicked) {
		t.Fatalf("expected ErrJobPanicked, got %v", err)
	}
	if err := p.Do(context.Background(), func() {}); err != nil {
		t.Fatalf("worker did not survive panic: %v", err)
	}
}

func TestPool_Do_FinishedJobWinsOverStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(1, zerolog.Nop())
	p.Start(ctx)

	// The job stops the pool and returns, so both done and stopped are ready
	// when Do picks a case.
	var ran bool
	err := p.Do(context.Background(), func() {
		ran = true
		cancel()
		<-p.stopped
	})
	if err != nil {
		t.Fatalf("Do returned %v for a completed job", err)
	}
	if !ran {
		t.Fatalf("expected job to run")
	}
}

func TestNewPool_DefaultWorkers(t *testing.T) {
	p := NewPool(0, zerolog.Nop())
	if p.Workers() <= 0 {
		t.Fatalf("expected positive default worker count, got %d", p.Workers())
	}
}
