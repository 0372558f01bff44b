package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestRetry_SucceedsOnFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %s", result)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_SucceedsAfterRetry(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastConfig(3), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("temporary")
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != 42 {
		t.Errorf("expected 42, got %d", result)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetry_ExceedsMaxAttempts(t *testing.T) {
	calls := 0
	want := errors.New("still down")
	_, err := Retry(context.Background(), fastConfig(4), func() (int, error) {
		calls++
		return 0, want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestRetry_RetryIfStopsEarly(t *testing.T) {
	permanent := errors.New("bad request")
	cfg := fastConfig(5)
	cfg.RetryIf = func(err error) bool { return !errors.Is(err, permanent) }

	calls := 0
	_, err := Retry(context.Background(), cfg, func() (int, error) {
		calls++
		return 0, permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialBackoff = time.Hour
	cfg.MaxBackoff = time.Hour

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, cfg, func() (int, error) {
			calls++
			return 0, errors.New("fail")
		})
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not stop after cancel")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetry_OnRetry(t *testing.T) {
	cfg := fastConfig(3)
	var attempts []int
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) {
		attempts = append(attempts, attempt)
		if wait <= 0 {
			t.Errorf("expected positive wait, got %v", wait)
		}
	}
	_ = RetryFunc(context.Background(), cfg, func() error { return errors.New("x") })
	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected OnRetry after attempts [1 2], got %v", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	if DefaultRetryIf(context.Canceled) {
		t.Error("expected context.Canceled not to be retried")
	}
	if DefaultRetryIf(context.DeadlineExceeded) {
		t.Error("expected context.DeadlineExceeded not to be retried")
	}
	if !DefaultRetryIf(errors.New("other")) {
		t.Error("expected generic errors to be retried")
	}
}

func TestRetryConfig_ApplyDefaults(t *testing.T) {
	var cfg RetryConfig
	cfg.ApplyDefaults()
	if cfg.MaxAttempts != 3 || cfg.BackoffFactor != 2.0 || cfg.RetryIf == nil {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
