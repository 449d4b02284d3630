package authgate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Register creates a self-service account and logs it in immediately. The
// role is always user; privileged accounts go through [Engine.CreateIdentity].
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", "", ErrInvalidInput, func() map[string]string {
			return map[string]string{
				"reason": "empty_email",
			}
		})
		return nil, ErrInvalidInput
	}
	if input.Password == "" {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "empty_password",
			}
		})
		return nil, ErrPasswordPolicy
	}

	identity := &Identity{
		ID:     uuid.NewString(),
		Email:  email,
		Name:   strings.TrimSpace(input.Name),
		Role:   RoleUser,
		Active: true,
	}
	if err := e.applyCredentialChange(identity, input.Password, true); err != nil {
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failure",
			}
		})
		return nil, err
	}
	input.Password = ""

	if err := e.store.Save(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", email, "", ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return nil, err
	}

	tokenStr, err := e.issueToken(identity)
	if err != nil {
		// The account exists at this point; the caller can still log in.
		e.emitAudit(ctx, auditEventRegisterFailure, false, identity.ID, email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "token_issuance",
			}
		})
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, identity.ID, email, "", nil, nil)
	return &AuthResult{Token: tokenStr, Identity: identity}, nil
}
