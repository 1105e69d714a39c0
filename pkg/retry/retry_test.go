package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "github.com/ruenh/tiktok-monitor/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "first attempt"},
		{2, 200 * time.Millisecond, "second attempt"},
		{3, 400 * time.Millisecond, "third attempt"},
		{4, 800 * time.Millisecond, "fourth attempt"},
		{5, 1 * time.Second, "fifth attempt (capped at max)"},
		{6, 1 * time.Second, "sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffUncapped(t *testing.T) {
	backoff := DeliveryBackoff()

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{7, 64 * time.Second},
		{11, 1024 * time.Second},
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delays[backoff.NextDelay(2)] = true
	}

	// With jitter, we should get different delays
	if len(delays) < 2 {
		t.Error("expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err == nil {
		t.Error("expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	notFound := &errs.Error{
		Type:    errs.ErrorTypeNotFound,
		Message: "video removed",
		Code:    404,
	}

	op := func() error {
		attempts++
		return notFound
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != notFound {
		t.Errorf("expected not-found error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt (no retry for not-found), got %d", attempts)
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	if err := Do(op, cfg); err == nil {
		t.Error("expected error when context cancelled")
	}
	if attempts > 3 {
		t.Errorf("expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestWaitCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Wait(ctx, time.Second); err == nil {
		t.Error("expected context error from cancelled Wait")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}
