package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	logx "growbot/pkg/logx"
)

func TestGoAndWait(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), logx.Nop())

	var ran atomic.Bool
	s.Go("worker", func(ctx context.Context) {
		<-ctx.Done()
		ran.Store(true)
	})

	s.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !ran.Load() {
		t.Fatal("goroutine did not observe cancellation")
	}
}

func TestPanicRecovered(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), logx.Nop())
	s.Go("boom", func(ctx context.Context) {
		panic("kaboom")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait after panic: %v", err)
	}
}

func TestWaitTimeout(t *testing.T) {
	t.Parallel()
	s := New(context.Background(), logx.Nop())
	block := make(chan struct{})
	s.Go("stuck", func(ctx context.Context) {
		<-block
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Fatal("expected deadline error")
	}
	close(block)
}
