package authgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/varkis-sec/authgate/internal"
)

func TestPasswordResetRoundTrip(t *testing.T) {
	store := newMockStore()
	engine, clock := newTestEngine(t, store)
	seeded := seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	ticket, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if ticket == "" {
		t.Fatal("expected a plaintext ticket")
	}

	stored := store.get(seeded.ID)
	if len(stored.ResetDigest) == 0 {
		t.Fatal("expected a persisted ticket digest")
	}
	wantExpiry := clock.Now().Add(engine.config.Reset.TTL)
	if !stored.ResetExpiresAt.Equal(wantExpiry) {
		t.Fatalf("ResetExpiresAt = %v, want %v", stored.ResetExpiresAt, wantExpiry)
	}

	clock.Advance(2 * time.Second)

	result, err := engine.ResetPassword(ctx, ticket, "brand-new-456")
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, err := engine.Authenticate(ctx, result.Token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	stored = store.get(seeded.ID)
	if len(stored.ResetDigest) != 0 || !stored.ResetExpiresAt.IsZero() {
		t.Fatal("expected reset fields to be cleared after redemption")
	}

	if _, err := engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "old-password-123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, err := engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "brand-new-456"}); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestPasswordResetSingleUse(t *testing.T) {
	store := newMockStore()
	engine, clock := newTestEngine(t, store)
	seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	ticket, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := engine.ResetPassword(ctx, ticket, "brand-new-456"); err != nil {
		t.Fatalf("first redemption failed: %v", err)
	}

	_, err = engine.ResetPassword(ctx, ticket, "yet-another-789")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid on replay, got %v", err)
	}
}

func TestPasswordResetExpiredTicket(t *testing.T) {
	store := newMockStore()
	engine, clock := newTestEngine(t, store)
	seeded := seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	ticket, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	// Expiry is exclusive: the instant now reaches it the ticket is dead.
	clock.Advance(engine.config.Reset.TTL)

	_, err = engine.ResetPassword(ctx, ticket, "brand-new-456")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid after expiry, got %v", err)
	}

	// Only successful redemption clears the stored fields.
	stored := store.get(seeded.ID)
	if len(stored.ResetDigest) == 0 || stored.ResetExpiresAt.IsZero() {
		t.Fatal("expected reset fields to survive an expired attempt")
	}

	if _, err := engine.Login(ctx, LoginInput{Email: "alice@example.com", Password: "old-password-123"}); err != nil {
		t.Fatalf("original password should still work: %v", err)
	}
}

func TestPasswordResetUnknownEmailSilent(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)

	ticket, err := engine.RequestPasswordReset(context.Background(), "missing@example.com")
	if err != nil {
		t.Fatalf("expected enumeration-safe success for unknown email, got %v", err)
	}
	if ticket != "" {
		t.Fatal("expected no ticket for unknown email")
	}
}

func TestPasswordResetDeactivatedSilent(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)
	seeded := seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	if err := engine.Deactivate(ctx, seeded.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	ticket, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("expected enumeration-safe success for deactivated account, got %v", err)
	}
	if ticket != "" {
		t.Fatal("expected no ticket for deactivated account")
	}
	if len(store.get(seeded.ID).ResetDigest) != 0 {
		t.Fatal("expected no digest to be stored")
	}
}

func TestPasswordResetGarbageTicket(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)

	_, err := engine.ResetPassword(context.Background(), "not-a-ticket", "brand-new-456")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid, got %v", err)
	}
}

func TestPasswordResetForgedSecret(t *testing.T) {
	store := newMockStore()
	engine, _ := newTestEngine(t, store)
	seeded := seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	if _, err := engine.RequestPasswordReset(ctx, "alice@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	// Right identity, wrong secret.
	forgedSecret, err := internal.NewTicketSecret()
	if err != nil {
		t.Fatalf("NewTicketSecret failed: %v", err)
	}
	forged, err := internal.EncodeTicket(seeded.ID, forgedSecret)
	if err != nil {
		t.Fatalf("EncodeTicket failed: %v", err)
	}

	_, err = engine.ResetPassword(ctx, forged, "brand-new-456")
	if !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected ErrResetInvalid for forged secret, got %v", err)
	}
}

func TestPasswordResetReissueVoidsPreviousTicket(t *testing.T) {
	store := newMockStore()
	engine, clock := newTestEngine(t, store)
	seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	first, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("first RequestPasswordReset failed: %v", err)
	}
	second, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("second RequestPasswordReset failed: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := engine.ResetPassword(ctx, first, "brand-new-456"); !errors.Is(err, ErrResetInvalid) {
		t.Fatalf("expected superseded ticket to be rejected, got %v", err)
	}
	if _, err := engine.ResetPassword(ctx, second, "brand-new-456"); err != nil {
		t.Fatalf("latest ticket rejected: %v", err)
	}
}

func TestPasswordResetEmptyPasswordLeavesTicketLive(t *testing.T) {
	store := newMockStore()
	engine, clock := newTestEngine(t, store)
	seedIdentity(t, store, "alice@example.com", "old-password-123")
	ctx := context.Background()

	ticket, err := engine.RequestPasswordReset(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}

	if _, err := engine.ResetPassword(ctx, ticket, ""); !errors.Is(err, ErrPasswordPolicy) {
		t.Fatalf("expected ErrPasswordPolicy, got %v", err)
	}

	clock.Advance(time.Second)
	if _, err := engine.ResetPassword(ctx, ticket, "brand-new-456"); err != nil {
		t.Fatalf("ticket should survive a policy rejection: %v", err)
	}
}
