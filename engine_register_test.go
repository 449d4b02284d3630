package authgate

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)
	ctx := context.Background()

	result, err := engine.Register(ctx, RegisterInput{
		Email:    "a@b.com",
		Name:     "Alice",
		Password: "Secret@123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.Identity.Role != RoleUser {
		t.Fatalf("expected role user, got %q", result.Identity.Role)
	}

	authed, err := engine.Authenticate(ctx, result.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if authed.ID != result.Identity.ID {
		t.Fatalf("token resolved to %q, want %q", authed.ID, result.Identity.ID)
	}

	stored := store.get(result.Identity.ID)
	if stored == nil {
		t.Fatal("expected identity to be persisted")
	}
	if !stored.Active {
		t.Fatal("expected new identity to be active")
	}
	if !stored.PasswordChangedAt.IsZero() {
		t.Fatal("initial creation must not set the credential-change timestamp")
	}
	if stored.PasswordHash == "Secret@123" || stored.PasswordHash == "" {
		t.Fatal("expected a hashed credential, never the plaintext")
	}
}

func TestRegisterNormalizesEmail(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)

	result, err := engine.Register(context.Background(), RegisterInput{
		Email:    "  Mixed@Example.COM ",
		Password: "Secret@123",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if result.Identity.Email != "mixed@example.com" {
		t.Fatalf("expected normalized email, got %q", result.Identity.Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)
	ctx := context.Background()

	if _, err := engine.Register(ctx, RegisterInput{Email: "a@b.com", Password: "Secret@123"}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	_, err := engine.Register(ctx, RegisterInput{Email: "A@B.com", Password: "Other@456"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterEmptyPassword(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)

	_, err := engine.Register(context.Background(), RegisterInput{Email: "a@b.com"})
	if !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}
	if store.saveCalls != 0 {
		t.Fatal("expected no store write on rejected registration")
	}
}

func TestRegisterEmptyEmail(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)

	_, err := engine.Register(context.Background(), RegisterInput{Password: "Secret@123"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
