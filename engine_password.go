package authgate

import (
	"context"
	"errors"
	"log"
)

// ChangePassword verifies the current password for the given identity,
// applies the new credential, and mints a fresh token. Tokens issued before
// the change turn stale immediately; any outstanding reset ticket is voided.
func (e *Engine) ChangePassword(ctx context.Context, identityID, currentPassword, newPassword string) (*AuthResult, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	if newPassword == "" {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identityID, "", "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "empty_password",
			}
		})
		return nil, ErrPasswordPolicy
	}

	identity, err := e.store.FindByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identityID, "", "", ErrIdentityNotFound, nil)
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	if !identity.Active {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identity.ID, identity.Email, "", ErrDeactivated, func() map[string]string {
			return map[string]string{
				"reason": "deactivated",
			}
		})
		return nil, ErrDeactivated
	}

	ok, err := e.hasher.Verify(currentPassword, identity.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, identity.ID, identity.Email, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}
	currentPassword = ""

	// Reuse is checked against the live digest, so it also catches a reset
	// ticket being redeemed back to the same password elsewhere.
	if same, _ := e.hasher.Verify(newPassword, identity.PasswordHash); same {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, identity.ID, identity.Email, "", ErrPasswordReuse, nil)
		return nil, ErrPasswordReuse
	}

	if err := e.applyCredentialChange(identity, newPassword, false); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failure",
			}
		})
		return nil, err
	}
	newPassword = ""

	if err := e.store.Save(ctx, identity); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return nil, err
	}

	// Proving the old password clears any accumulated login failures.
	if e.loginLimiter != nil {
		if err := e.loginLimiter.Reset(ctx, identity.Email, ""); err != nil {
			log.Print("authgate: login throttle reset failed")
		}
	}

	tokenStr, err := e.issueToken(identity)
	if err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance",
			}
		})
		return nil, err
	}

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, true, identity.ID, identity.Email, "", nil, nil)
	return &AuthResult{Token: tokenStr, Identity: identity}, nil
}
