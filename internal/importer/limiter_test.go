package importer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter_AcquireRelease(t *testing.T) {
	l := NewLimiter(2, time.Second)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("second Acquire: %v", err)
	}
	if got := l.ActiveCount(); got != 2 {
		t.Errorf("ActiveCount = %d, want 2", got)
	}

	l.Release()
	if got := l.ActiveCount(); got != 1 {
		t.Errorf("ActiveCount after release = %d, want 1", got)
	}
	l.Release()
}

func TestLimiter_RejectsWhenFull(t *testing.T) {
	l := NewLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	err := l.Acquire(ctx)
	if !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Acquire on full limiter = %v, want ErrTooManyImports", err)
	}
}

func TestLimiter_AcquireHonorsContextCancel(t *testing.T) {
	l := NewLimiter(1, time.Minute)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire with cancelled ctx = %v, want context.Canceled", err)
	}
}

func TestLimiter_WaitForDrain(t *testing.T) {
	l := NewLimiter(1, time.Second)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	go func() {
		time.Sleep(150 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain: %v", err)
	}
}

func TestLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)
	if cap(l.semaphore) != DefaultMaxConcurrentImports {
		t.Errorf("capacity = %d, want %d", cap(l.semaphore), DefaultMaxConcurrentImports)
	}
	if l.maxWait != DefaultMaxWaitTime {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultMaxWaitTime)
	}
}
