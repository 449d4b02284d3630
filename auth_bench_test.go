package authgate

import (
	"context"
	"fmt"
	"testing"
)

func BenchmarkAuthenticate(b *testing.B) {
	engine := newBenchmarkEngine(b)

	result, err := engine.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Authenticate(context.Background(), result.Token); err != nil {
			b.Fatalf("authenticate failed: %v", err)
		}
	}
}

func BenchmarkAuthenticateParallel(b *testing.B) {
	engine := newBenchmarkEngine(b)

	result, err := engine.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := engine.Authenticate(context.Background(), result.Token); err != nil {
				b.Fatalf("authenticate failed: %v", err)
			}
		}
	})
}

func BenchmarkAuthorize(b *testing.B) {
	engine := newBenchmarkEngine(b)

	result, err := engine.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-password-123",
	})
	if err != nil {
		b.Fatalf("login failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := engine.Authorize(context.Background(), result.Identity, RoleUser, RoleAdmin); err != nil {
			b.Fatalf("authorize failed: %v", err)
		}
	}
}

func BenchmarkLogin(b *testing.B) {
	engine := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), LoginInput{
			Email:    "alice@example.com",
			Password: "correct-password-123",
		}); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func BenchmarkRegister(b *testing.B) {
	engine := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Register(context.Background(), RegisterInput{
			Email:    fmt.Sprintf("bench-%d@example.com", i),
			Name:     "Bench User",
			Password: "correct-password-123",
		}); err != nil {
			b.Fatalf("register failed: %v", err)
		}
	}
}

// newBenchmarkEngine wires an engine against the in-test mock store with a
// low-cost hasher, metrics and audit off, and one seeded active account.
func newBenchmarkEngine(tb testing.TB) *Engine {
	tb.Helper()

	cfg := defaultConfig()
	cfg.Password.Cost = 4
	cfg.Metrics.Enabled = false
	cfg.Audit.Enabled = false

	engine, err := New().
		WithConfig(cfg).
		WithStore(newMockStore()).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}
	tb.Cleanup(engine.Close)

	if _, err := engine.Register(context.Background(), RegisterInput{
		Email:    "alice@example.com",
		Name:     "Alice",
		Password: "correct-password-123",
	}); err != nil {
		tb.Fatalf("seed register failed: %v", err)
	}
	return engine
}
