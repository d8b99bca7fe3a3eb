package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:      maxRetries,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialInterval != 100*time.Millisecond {
		t.Errorf("InitialInterval = %v, want 100ms", config.InitialInterval)
	}
	if config.MaxInterval != 2*time.Second {
		t.Errorf("MaxInterval = %v, want 2s", config.MaxInterval)
	}
}

func TestNew_WithZeroValues(t *testing.T) {
	retrier := New(&Config{JitterFactor: 4, MaxRetries: -2})

	if retrier.config.InitialInterval != 100*time.Millisecond {
		t.Errorf("InitialInterval = %v, want default", retrier.config.InitialInterval)
	}
	if retrier.config.JitterFactor != 1 {
		t.Errorf("JitterFactor = %f, want clamped to 1", retrier.config.JitterFactor)
	}
	if retrier.config.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", retrier.config.MaxRetries)
	}
}

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(3), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	if result.Err != nil {
		t.Fatalf("Err = %v, want nil", result.Err)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestDo_ZeroRetriesIsSingleAttempt(t *testing.T) {
	calls := 0
	result := Do(context.Background(), fastConfig(0), func(ctx context.Context) error {
		calls++
		return errors.New("timeout")
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(result.Err, ErrMaxRetriesExceeded) {
		t.Errorf("Err = %v, want ErrMaxRetriesExceeded", result.Err)
	}
	if result.LastError == nil || result.LastError.Error() != "timeout" {
		t.Errorf("LastError = %v, want timeout", result.LastError)
	}
}

func TestDo_PermanentStops(t *testing.T) {
	notFound := errors.New("not found")
	calls := 0
	result := Do(context.Background(), fastConfig(5), func(ctx context.Context) error {
		calls++
		return Permanent(notFound)
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(result.Err, notFound) {
		t.Errorf("Err = %v, want %v", result.Err, notFound)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(10)
	cfg.InitialInterval = time.Second
	cfg.MaxInterval = time.Second
	cfg.OnRetry = func(attempt int, err error, wait time.Duration) { cancel() }

	result := Do(ctx, cfg, func(ctx context.Context) error {
		return errors.New("unreachable")
	})

	if !errors.Is(result.Err, ErrContextCanceled) {
		t.Errorf("Err = %v, want ErrContextCanceled", result.Err)
	}
	if result.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", result.Attempts)
	}
}

func TestInterval_Capped(t *testing.T) {
	r := New(&Config{InitialInterval: time.Second, MaxInterval: 3 * time.Second, Multiplier: 2})

	if got := r.interval(0); got != time.Second {
		t.Errorf("interval(0) = %v, want 1s", got)
	}
	if got := r.interval(5); got != 3*time.Second {
		t.Errorf("interval(5) = %v, want 3s", got)
	}
}

func TestPermanent_Nil(t *testing.T) {
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
