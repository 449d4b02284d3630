package authgate

import (
	"context"
	"errors"
	"log"
)

// Login verifies an email and password pair and mints a bearer token.
//
// Unknown email, wrong password, and deactivated account all return
// [ErrInvalidCredentials]; the distinct reason is preserved in the audit
// stream only. When a Redis client was supplied at build time the login
// throttle runs first, and a throttle backend outage refuses logins rather
// than dropping the brake.
func (e *Engine) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	password := input.Password
	ip := input.RemoteIP
	if ip == "" {
		ip = clientIPFromContext(ctx)
	}

	if e.loginLimiter != nil {
		if err := e.loginLimiter.Check(ctx, email, ip); err != nil {
			e.metricInc(MetricLoginRateLimited)
			e.emitAudit(ctx, auditEventLoginRateLimited, false, "", email, ip, ErrLoginRateLimited, nil)
			return nil, ErrLoginRateLimited
		}
	}

	if password == "" {
		if err := e.loginThrottleFailure(ctx, email, ip, ""); err != nil {
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ip, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "empty_password",
			}
		})
		return nil, ErrInvalidCredentials
	}

	identity, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ip, err, func() map[string]string {
				return map[string]string{
					"reason": "store_failure",
				}
			})
			return nil, err
		}
		// An unknown email costs one digest comparison, the same as a
		// mismatch, so response timing does not reveal account existence.
		_, _ = e.hasher.Verify(password, e.dummyHash)
		if err := e.loginThrottleFailure(ctx, email, ip, ""); err != nil {
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, ip, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "identity_not_found",
			}
		})
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(password, identity.PasswordHash)
	if err != nil || !ok {
		if terr := e.loginThrottleFailure(ctx, email, ip, identity.ID); terr != nil {
			return nil, terr
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, ip, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"reason": "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if !identity.Active {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, ip, ErrDeactivated, func() map[string]string {
			return map[string]string{
				"reason": "deactivated",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if e.config.Password.UpgradeOnLogin {
		if needsRehash, err := e.hasher.NeedsRehash(identity.PasswordHash); err == nil && needsRehash {
			if upgraded, err := e.hasher.Hash(password); err == nil {
				// The credential itself did not change, so PasswordChangedAt
				// stays put and outstanding tokens remain fresh.
				identity.PasswordHash = upgraded
			} else {
				log.Print("authgate: password hash upgrade generation failed")
			}
		}
	}
	password = ""

	identity.LastLoginAt = e.now()
	if err := e.store.Save(ctx, identity); err != nil {
		// Best effort: the credentials already checked out.
		log.Print("authgate: last login update failed")
	}

	if e.loginLimiter != nil {
		if err := e.loginLimiter.Reset(ctx, email, ip); err != nil {
			log.Print("authgate: login throttle reset failed")
		}
	}

	tokenStr, err := e.issueToken(identity)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, identity.ID, email, ip, err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance",
			}
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, email, ip, nil, nil)
	return &AuthResult{Token: tokenStr, Identity: identity}, nil
}

// loginThrottleFailure records a failed attempt and reports ErrLoginRateLimited
// once the failure budget is exhausted or the throttle backend is unreachable.
func (e *Engine) loginThrottleFailure(ctx context.Context, email, ip, identityID string) error {
	if e.loginLimiter == nil {
		return nil
	}
	if err := e.loginLimiter.RecordFailure(ctx, email, ip); err != nil {
		e.metricInc(MetricLoginRateLimited)
		e.emitAudit(ctx, auditEventLoginRateLimited, false, identityID, email, ip, ErrLoginRateLimited, nil)
		return ErrLoginRateLimited
	}
	return nil
}
