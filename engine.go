package authgate

import (
	"errors"
	"strings"
	"time"

	"github.com/varkis-sec/authgate/internal/rate"
	"github.com/varkis-sec/authgate/password"
	"github.com/varkis-sec/authgate/token"
)

// Engine is the authentication and authorization core. It owns credential
// hashing, bearer token issuance and verification, the password-reset
// protocol, and identity lifecycle operations against a caller-supplied
// [IdentityStore].
//
// Engines are built once through [New] and [Builder.Build] and are safe for
// concurrent use; every request pipeline is read-then-decide with no shared
// mutable state beyond the backing store.
type Engine struct {
	config       Config
	store        IdentityStore
	hasher       *password.Hasher
	codec        *token.Codec
	loginLimiter *rate.Limiter
	audit        *auditDispatcher
	metrics      *Metrics
	now          func() time.Time

	// dummyHash is a throwaway digest at the configured cost, verified
	// against on unknown-email logins so lookup misses cost the same as
	// password mismatches.
	dummyHash string
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// applyCredentialChange hashes plaintext into identity as one transformation
// so hash replacement, timestamp update, and reset-ticket voiding cannot be
// reordered by call sites. Non-initial changes backdate PasswordChangedAt by
// one second: issued-at claims have second granularity, and a token minted
// alongside the change must stay on the fresh side of the staleness check.
func (e *Engine) applyCredentialChange(identity *Identity, plaintext string, initial bool) error {
	digest, err := e.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrEmptyPassword) || errors.Is(err, password.ErrPasswordTooLong) {
			return ErrPasswordPolicy
		}
		return err
	}

	identity.PasswordHash = digest
	if !initial {
		identity.PasswordChangedAt = e.now().Add(-time.Second)
		identity.ResetDigest = nil
		identity.ResetExpiresAt = time.Time{}
	}

	return nil
}

// tokenStale reports whether the identity's password changed after the
// token was issued. Equal timestamps count as fresh; the credential-change
// backdate guarantees genuinely pre-change tokens sort strictly earlier.
func tokenStale(identity *Identity, issuedAt time.Time) bool {
	return identity.PasswordChangedAt.After(issuedAt)
}

func (e *Engine) issueToken(identity *Identity) (string, error) {
	if e.codec == nil {
		return "", ErrEngineNotReady
	}
	return e.codec.Issue(identity.ID, string(identity.Role))
}
