package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Policy{Attempts: 3, Delay: time.Second}.Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesWithLinearBackoff(t *testing.T) {
	var delays []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	defer func() { sleep = orig }()

	calls := 0
	err := Policy{Attempts: 3, Delay: 2 * time.Second}.Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), delays)
	}
	for i, d := range want {
		if delays[i] != d {
			t.Fatalf("sleep %d was %v, want %v", i, delays[i], d)
		}
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	orig := sleep
	sleep = func(time.Duration) {}
	defer func() { sleep = orig }()

	cause := errors.New("boom")
	calls := 0
	err := Policy{Attempts: 2, Delay: time.Second}.Do(context.Background(), zap.NewNop(), "op", func() error {
		calls++
		return cause
	})
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("final error should wrap the cause, got %v", err)
	}
}

func TestDoStopsOnContextCancel(t *testing.T) {
	orig := sleep
	sleep = func(d time.Duration) { time.Sleep(50 * time.Millisecond) }
	defer func() { sleep = orig }()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := Policy{Attempts: 5, Delay: time.Minute}.Do(ctx, zap.NewNop(), "op", func() error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("cancellation should stop further attempts, got %d calls", calls)
	}
}

func TestZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	err := Policy{}.Do(context.Background(), nil, "op", func() error {
		calls++
		return errors.New("boom")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
