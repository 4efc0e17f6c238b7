package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

var errRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
}

func TestDo_Success(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		callCount++
		if callCount < 3 {
			return errRefused
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(2), func() error {
		callCount++
		return errRefused
	})

	if err != errRefused {
		t.Errorf("expected error %v, got %v", errRefused, err)
	}
	// initial attempt + 2 retries
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	authErr := &pgconn.PgError{Code: "28P01", Message: "password authentication failed"}
	callCount := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		callCount++
		return authErr
	})

	if !errors.Is(err, authErr) {
		t.Errorf("expected auth error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{
		MaxRetries:   5,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	callCount := 0
	start := time.Now()
	err := Do(ctx, cfg, func() error {
		callCount++
		return errRefused
	})

	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("expected quick cancellation, took %v", elapsed)
	}
}

func TestDo_MaxDelayRespected(t *testing.T) {
	cfg := &Config{
		MaxRetries:   4,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     150 * time.Millisecond,
		Multiplier:   2.0,
	}

	var callTimes []time.Time
	err := Do(context.Background(), cfg, func() error {
		callTimes = append(callTimes, time.Now())
		return errRefused
	})

	if err == nil {
		t.Error("expected error after exhausting retries")
	}
	for i := 1; i < len(callTimes); i++ {
		if delay := callTimes[i].Sub(callTimes[i-1]); delay > 200*time.Millisecond {
			t.Errorf("delay %v exceeds MaxDelay (150ms) by too much", delay)
		}
	}
}

func TestDoWithResult(t *testing.T) {
	callCount := 0
	got, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		callCount++
		if callCount == 1 {
			return "", errRefused
		}
		return "pool", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "pool" {
		t.Errorf("expected pool, got %q", got)
	}
	if callCount != 2 {
		t.Errorf("expected 2 calls, got %d", callCount)
	}
}

func TestDo_NilConfig(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), nil, func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error with nil config, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errRefused, true},
		{"wrapped connection refused", fmt.Errorf("failed to ping database: %w", errRefused), true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"connection exception", &pgconn.PgError{Code: "08006"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"bad password", &pgconn.PgError{Code: "28P01"}, false},
		{"undefined table", &pgconn.PgError{Code: "42P01"}, false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), false},
		{"other", errors.New("invalid input syntax for type uuid"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
