package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryableErr(msg string) error {
	return Classify(KindNavigation, errors.New(msg))
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		Multiplier:     1.5,
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return retryableErr("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		Multiplier:     1.5,
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return retryableErr("always fails")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_UnclassifiedError_NoRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("unexpected failure")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry for unclassified errors), got %d", calls)
	}
}

func TestDo_BrowserError_NoRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return Classify(KindBrowser, errors.New("driver missing"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

// Two failures then a success must produce exactly two backoff delays,
// each strictly longer than the previous.
func TestDo_BackoffDelaysIncrease(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 20 * time.Millisecond,
		Multiplier:     1.5,
	}

	var stamps []time.Time
	err := Do(context.Background(), cfg, func(_ context.Context) error {
		stamps = append(stamps, time.Now())
		if len(stamps) < 3 {
			return retryableErr("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}

	first := stamps[1].Sub(stamps[0])
	second := stamps[2].Sub(stamps[1])
	if second <= first {
		t.Errorf("expected strictly increasing delays, got %v then %v", first, second)
	}
}

func TestComputeBackoff_Monotonic(t *testing.T) {
	cfg := applyDefaults(RetryConfig{InitialBackoff: time.Second, Multiplier: 1.5})
	prev := time.Duration(0)
	for attempt := 0; attempt < 5; attempt++ {
		d := computeBackoff(attempt, cfg)
		if d <= prev {
			t.Fatalf("attempt %d: expected %v > %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestComputeBackoff_Capped(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     2 * time.Second,
		Multiplier:     3.0,
	})
	if d := computeBackoff(5, cfg); d > 2*time.Second {
		t.Errorf("expected delay capped at 2s, got %v", d)
	}
}

func TestDoVal_ReturnsValueAfterRetry(t *testing.T) {
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		Multiplier:     1.5,
	}

	got, err := DoVal(context.Background(), cfg, func(_ context.Context) (int, error) {
		calls++
		if calls < 2 {
			return 0, retryableErr("transient")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestDoVal_ZeroValueOnFailure(t *testing.T) {
	cfg := RetryConfig{MaxAttempts: 2, InitialBackoff: 1 * time.Millisecond}

	got, err := DoVal(context.Background(), cfg, func(_ context.Context) (string, error) {
		return "partial", retryableErr("always fails")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != "" {
		t.Errorf("expected zero value, got %q", got)
	}
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	cfg := RetryConfig{
		MaxAttempts:    5,
		InitialBackoff: 50 * time.Millisecond,
		Multiplier:     1.5,
	}

	err := Do(ctx, cfg, func(_ context.Context) error {
		calls++
		cancel()
		return retryableErr("transient")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}
