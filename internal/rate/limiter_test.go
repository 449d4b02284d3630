package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, cfg), mr
}

func TestCheckAllowsFreshEmail(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})

	if err := l.Check(context.Background(), "alice@example.com", ""); err != nil {
		t.Fatalf("Check on fresh email failed: %v", err)
	}
}

func TestRecordFailureTripsLimit(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.RecordFailure(ctx, "alice@example.com", ""); err != nil {
			t.Fatalf("RecordFailure %d failed: %v", i+1, err)
		}
	}

	// The budget tolerates MaxAttempts recorded failures.
	if err := l.Check(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("Check within budget failed: %v", err)
	}

	err := l.RecordFailure(ctx, "alice@example.com", "")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on failure past budget, got %v", err)
	}

	err = l.Check(ctx, "alice@example.com", "")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited after budget exhausted, got %v", err)
	}
}

func TestWindowExpiryRestoresBudget(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com", "")
	}
	if err := l.Check(ctx, "alice@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited before window expiry, got %v", err)
	}

	mr.FastForward(time.Minute + time.Second)

	if err := l.Check(ctx, "alice@example.com", ""); err != nil {
		t.Fatalf("Check after window expiry failed: %v", err)
	}

	count, err := l.Attempts(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected counter to expire, got %d", count)
	}
}

func TestResetClearsCounters(t *testing.T) {
	l, _ := newTestLimiter(t, Config{EnableIPThrottle: true, MaxAttempts: 1, Cooldown: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = l.RecordFailure(ctx, "alice@example.com", "10.0.0.1")
	}
	if err := l.Check(ctx, "alice@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited before reset, got %v", err)
	}

	if err := l.Reset(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if err := l.Check(ctx, "alice@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("Check after reset failed: %v", err)
	}
}

func TestIPThrottleSharedAcrossEmails(t *testing.T) {
	l, _ := newTestLimiter(t, Config{EnableIPThrottle: true, MaxAttempts: 2, Cooldown: time.Minute})
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		_ = l.RecordFailure(ctx, email, "10.0.0.1")
	}

	// Per-email counters are all at 1, but the shared IP counter is exhausted.
	err := l.Check(ctx, "fresh@example.com", "10.0.0.1")
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited via shared IP counter, got %v", err)
	}

	if err := l.Check(ctx, "fresh@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("Check from different IP failed: %v", err)
	}
}

func TestIPThrottleDisabledIgnoresIP(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 2, Cooldown: time.Minute})
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_ = l.RecordFailure(ctx, email, "10.0.0.1")
	}

	if err := l.Check(ctx, "fresh@example.com", "10.0.0.1"); err != nil {
		t.Fatalf("expected IP counter to be ignored when disabled, got %v", err)
	}
}

func TestAttemptsUnknownEmailIsZero(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})

	count, err := l.Attempts(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Attempts failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 attempts for unknown email, got %d", count)
	}
}

func TestRedisOutageSurfacesSentinel(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 3, Cooldown: time.Minute})
	ctx := context.Background()

	mr.Close()

	if err := l.Check(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Check, got %v", err)
	}
	if err := l.RecordFailure(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from RecordFailure, got %v", err)
	}
	if err := l.Reset(ctx, "alice@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from Reset, got %v", err)
	}
}
