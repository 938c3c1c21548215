package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireBudget(t *testing.T) {
	l := New(0, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := l.Acquire(ctx, "google"); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if err := l.Acquire(ctx, "google"); !errors.Is(err, ErrBudgetExhausted) {
		t.Fatalf("third Acquire err = %v, want ErrBudgetExhausted", err)
	}
	if err := l.Acquire(ctx, "mymemory"); err != nil {
		t.Errorf("budget is per provider, got %v", err)
	}
	if got := l.Used("google"); got != 2 {
		t.Errorf("Used(google) = %d, want 2", got)
	}
}

func TestAcquireUnlimited(t *testing.T) {
	l := New(0, 0)
	for i := 0; i < 100; i++ {
		if err := l.Acquire(context.Background(), "p"); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
}

func TestAcquireHonoursContext(t *testing.T) {
	l := New(0.001, 0)
	ctx := context.Background()
	if err := l.Acquire(ctx, "p"); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := l.Acquire(ctx, "p"); err == nil {
		t.Fatal("second Acquire should fail while the limiter is saturated")
	}
}

func TestCacheHitRate(t *testing.T) {
	l := New(0, 0)
	if l.CacheHitRate() != 0 {
		t.Errorf("empty hit rate = %v", l.CacheHitRate())
	}
	l.RecordCacheHit()
	l.RecordCacheHit()
	l.RecordCacheHit()
	_ = l.Acquire(context.Background(), "p")

	if got := l.CacheHitRate(); got != 75 {
		t.Errorf("hit rate = %v, want 75", got)
	}
	s := l.Stats()
	if s["cache_hits"] != 3 || s["cache_misses"] != 1 {
		t.Errorf("stats = %v", s)
	}
}
