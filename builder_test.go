package authgate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildRequiresStore(t *testing.T) {
	_, err := New().Build()
	if err == nil || !strings.Contains(err.Error(), "identity store") {
		t.Fatalf("expected missing store error, got %v", err)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Token.Lifetime = 0

	_, err := New().WithConfig(cfg).WithStore(newMockStore()).Build()
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

func TestBuildIPThrottleRequiresRedis(t *testing.T) {
	cfg := defaultConfig()
	cfg.Password.Cost = 4
	cfg.Security.EnableIPThrottle = true

	_, err := New().WithConfig(cfg).WithStore(newMockStore()).Build()
	if err == nil || !strings.Contains(err.Error(), "redis") {
		t.Fatalf("expected redis requirement error, got %v", err)
	}

	_, client := newTestRedis(t)
	engine, err := New().WithConfig(cfg).WithStore(newMockStore()).WithRedis(client).Build()
	if err != nil {
		t.Fatalf("Build with redis failed: %v", err)
	}
	engine.Close()
}

func TestBuilderSingleUse(t *testing.T) {
	cfg := defaultConfig()
	cfg.Password.Cost = 4

	builder := New().WithConfig(cfg).WithStore(newMockStore())
	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := builder.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuildProductionModePosture(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.ProductionMode = true

	// The default signing secret must never survive into production.
	_, err := New().WithConfig(cfg).WithStore(newMockStore()).Build()
	if err == nil || !strings.Contains(err.Error(), "development signing secret") {
		t.Fatalf("expected development secret rejection, got %v", err)
	}

	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")
	engine, err := New().WithConfig(cfg).WithStore(newMockStore()).Build()
	if err != nil {
		t.Fatalf("Build with strong secret failed: %v", err)
	}
	engine.Close()
}

func TestBuildWithoutRedisDisablesThrottle(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)
	seedIdentity(t, store, "alice@example.com", "correct-password-123")
	ctx := context.Background()

	if engine.loginLimiter != nil {
		t.Fatal("expected no limiter without redis")
	}

	// Far past any throttle budget; every attempt still gets the
	// credential verdict.
	for i := 0; i < 10; i++ {
		_, err := engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "wrong-password"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}
	if _, err := engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "correct-password-123"}); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
}

func TestBuildCopiesConfig(t *testing.T) {
	store := newMockStore()
	cfg := defaultConfig()
	cfg.Password.Cost = 4
	cfg.Token.Secret = []byte("0123456789abcdef0123456789abcdef")

	engine, err := New().WithConfig(cfg).WithStore(store).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	// Mutating the caller's secret after Build must not affect the engine.
	cfg.Token.Secret[0] ^= 0xFF

	ctx := context.Background()
	result, err := engine.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correct-password-123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("expected token issued and verified with the engine's own key copy: %v", err)
	}
}

func TestBuildDefaultsProduceWorkingEngine(t *testing.T) {
	cfg := defaultConfig()
	cfg.Password.Cost = 4

	engine, err := New().WithConfig(cfg).WithStore(newMockStore()).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	result, err := engine.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "correct-password-123"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	identity, err := engine.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %q", identity.Email)
	}
}
