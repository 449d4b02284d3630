package authgate

import (
	"context"
	"errors"
	"time"

	"github.com/varkis-sec/authgate/token"
)

// Authenticate runs the full bearer-token gate: verify signature and expiry,
// load the subject identity, check credential freshness, check active status.
// The checks run in that order and the first failure is terminal.
//
// Every rejection is one of the authentication sentinels (ErrNoToken,
// ErrTokenInvalid, ErrTokenExpired, ErrTokenStale, ErrIdentityMissing,
// ErrDeactivated); callers are expected to present them uniformly while the
// audit stream keeps the precise reason. Store outages propagate as-is.
func (e *Engine) Authenticate(ctx context.Context, rawToken string) (*Identity, error) {
	if e == nil || e.codec == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if e.metrics != nil && e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() {
			e.metrics.Observe(MetricAuthenticateLatency, time.Since(start))
		}()
	}

	if rawToken == "" {
		return nil, e.authenticateReject(ctx, "", ErrNoToken)
	}

	claims, err := e.codec.Verify(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return nil, e.authenticateReject(ctx, "", ErrTokenExpired)
		}
		return nil, e.authenticateReject(ctx, "", ErrTokenInvalid)
	}

	identity, err := e.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, e.authenticateReject(ctx, claims.Subject, ErrIdentityMissing)
		}
		e.metricInc(MetricAuthenticateFailure)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, claims.Subject, "", "", err, nil)
		return nil, err
	}

	// Freshness before active status: a stale token stays stale even if the
	// account is later reactivated.
	if tokenStale(identity, claims.IssuedAt.Time) {
		return nil, e.authenticateReject(ctx, identity.ID, ErrTokenStale)
	}
	if !identity.Active {
		return nil, e.authenticateReject(ctx, identity.ID, ErrDeactivated)
	}

	e.metricInc(MetricAuthenticateSuccess)
	return identity, nil
}

func (e *Engine) authenticateReject(ctx context.Context, identityID string, reason error) error {
	e.metricInc(MetricAuthenticateFailure)
	e.emitAudit(ctx, auditEventAuthenticateFailure, false, identityID, "", "", reason, nil)
	return reason
}

// Authorize rejects with ErrForbidden unless identity is non-nil and its role
// is in the allowed set. A nil identity means the caller skipped the
// authentication gate; that is a misuse and fails closed rather than passing.
// An empty allowed set likewise denies everyone.
func (e *Engine) Authorize(ctx context.Context, identity *Identity, allowed ...Role) error {
	if identity == nil {
		return e.authorizeReject(ctx, "", "", "missing_identity")
	}
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return e.authorizeReject(ctx, identity.ID, identity.Email, "role_not_permitted")
}

func (e *Engine) authorizeReject(ctx context.Context, identityID, email, reason string) error {
	e.metricInc(MetricAuthorizeDenied)
	e.emitAudit(ctx, auditEventAuthorizeDenied, false, identityID, email, "", ErrForbidden, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return ErrForbidden
}
