package authgate

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/varkis-sec/authgate/internal"
)

// RequestPasswordReset issues a single-use reset ticket for the given email.
// The plaintext ticket is returned exactly once for out-of-band delivery;
// only its digest and expiry are persisted on the identity. Unknown and
// deactivated emails return an empty ticket with no error, so the response
// never reveals whether an account exists. Issuing a new ticket overwrites
// any previous one.
func (e *Engine) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if e == nil || e.store == nil {
		return "", ErrEngineNotReady
	}

	email = normalizeEmail(email)

	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", email, "", ErrIdentityNotFound, nil)
			return "", nil
		}
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, "", email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return "", err
	}
	if !identity.Active {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, email, "", ErrDeactivated, nil)
		return "", nil
	}

	secret, err := internal.NewTicketSecret()
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "entropy_failure",
			}
		})
		return "", err
	}
	ticket, err := internal.EncodeTicket(identity.ID, secret)
	if err != nil {
		return "", err
	}

	digest := internal.DigestTicketSecret(secret)
	identity.ResetDigest = digest[:]
	identity.ResetExpiresAt = e.now().Add(e.config.Reset.TTL)

	if err := e.store.Save(ctx, identity); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetRequest, false, identity.ID, email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return "", err
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, identity.ID, email, "", nil, nil)
	return ticket, nil
}

// ResetPassword redeems a reset ticket and applies the new credential,
// returning a fresh login. A ticket redeems at most once: the digest and
// expiry are cleared by the successful credential change, after which the
// same plaintext looks like a ticket that was never issued.
//
// Malformed, unknown, expired, and already-redeemed tickets all collapse to
// [ErrResetInvalid]; only the audit stream distinguishes them.
func (e *Engine) ResetPassword(ctx context.Context, ticket, newPassword string) (*AuthResult, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	// Input policy is checked before ticket validity so a policy rejection
	// can never confirm that a guessed ticket is real.
	if newPassword == "" {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", "", "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "empty_password",
			}
		})
		return nil, ErrPasswordPolicy
	}

	identityID, secret, err := internal.DecodeTicket(ticket)
	if err != nil {
		return nil, e.resetReject(ctx, "", "", "malformed_ticket")
	}

	identity, err := e.store.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, e.resetReject(ctx, identityID, "", "identity_missing")
		}
		return nil, err
	}

	if len(identity.ResetDigest) == 0 {
		return nil, e.resetReject(ctx, identity.ID, identity.Email, "no_outstanding_ticket")
	}

	presented := internal.DigestTicketSecret(secret)
	if subtle.ConstantTimeCompare(presented[:], identity.ResetDigest) != 1 {
		return nil, e.resetReject(ctx, identity.ID, identity.Email, "digest_mismatch")
	}

	// An expired attempt rejects but leaves the stored digest and expiry in
	// place; only a successful redemption clears them.
	if !e.now().Before(identity.ResetExpiresAt) {
		return nil, e.resetReject(ctx, identity.ID, identity.Email, "expired")
	}

	if !identity.Active {
		return nil, e.resetReject(ctx, identity.ID, identity.Email, "deactivated")
	}

	if err := e.applyCredentialChange(identity, newPassword, false); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failure",
			}
		})
		return nil, err
	}
	newPassword = ""

	if err := e.store.Save(ctx, identity); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return nil, err
	}

	tokenStr, err := e.issueToken(identity)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, identity.ID, identity.Email, "", nil, nil)
	return &AuthResult{Token: tokenStr, Identity: identity}, nil
}

func (e *Engine) resetReject(ctx context.Context, identityID, email, reason string) error {
	e.metricInc(MetricPasswordResetConfirmFailure)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, false, identityID, email, "", ErrResetInvalid, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	return ErrResetInvalid
}
