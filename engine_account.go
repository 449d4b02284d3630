package authgate

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// CreateIdentity creates an account on behalf of an administrator. Unlike
// [Engine.Register] it accepts a role, and it does not log the new account
// in; no token is minted.
func (e *Engine) CreateIdentity(ctx context.Context, input CreateIdentityInput) (*Identity, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	email := normalizeEmail(input.Email)
	if email == "" {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", "", "", ErrInvalidInput, func() map[string]string {
			return map[string]string{
				"reason": "empty_email",
			}
		})
		return nil, ErrInvalidInput
	}
	if input.Password == "" {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", email, "", ErrPasswordPolicy, func() map[string]string {
			return map[string]string{
				"reason": "empty_password",
			}
		})
		return nil, ErrPasswordPolicy
	}

	role := input.Role
	if role == "" {
		role = RoleUser
	}
	if !role.Valid() {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", email, "", ErrRoleInvalid, func() map[string]string {
			return map[string]string{
				"reason": "role_invalid",
			}
		})
		return nil, ErrRoleInvalid
	}

	identity := &Identity{
		ID:     uuid.NewString(),
		Email:  email,
		Name:   strings.TrimSpace(input.Name),
		Role:   role,
		Active: true,
	}
	if err := e.applyCredentialChange(identity, input.Password, true); err != nil {
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "hash_failure",
			}
		})
		return nil, err
	}
	input.Password = ""

	if err := e.store.Save(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.emitAudit(ctx, auditEventAccountCreationDuplicate, false, "", email, "", ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		e.emitAudit(ctx, auditEventAccountCreationFailure, false, "", email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return nil, err
	}

	e.metricInc(MetricAccountCreated)
	e.emitAudit(ctx, auditEventAccountCreationSuccess, true, identity.ID, email, "", nil, func() map[string]string {
		return map[string]string{
			"role": string(identity.Role),
		}
	})
	return identity, nil
}

// GetIdentity loads one identity by id. Reads are not audited.
func (e *Engine) GetIdentity(ctx context.Context, id string) (*Identity, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	return e.store.FindByID(ctx, id)
}

// UpdateIdentity applies an administrative patch. Nil fields stay untouched;
// setting Password runs the full credential-change transformation, so
// outstanding tokens for the account turn stale. An empty patch is a no-op
// and is not written or audited.
func (e *Engine) UpdateIdentity(ctx context.Context, id string, input UpdateIdentityInput) (*Identity, error) {
	if e == nil || e.hasher == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := e.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.emitAudit(ctx, auditEventAccountUpdate, false, id, "", "", ErrIdentityNotFound, nil)
		}
		return nil, err
	}

	changed := make([]string, 0, 5)

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			e.emitAudit(ctx, auditEventAccountUpdate, false, identity.ID, identity.Email, "", ErrInvalidInput, func() map[string]string {
				return map[string]string{
					"reason": "empty_email",
				}
			})
			return nil, ErrInvalidInput
		}
		if email != identity.Email {
			identity.Email = email
			changed = append(changed, "email")
		}
	}
	if input.Name != nil {
		identity.Name = strings.TrimSpace(*input.Name)
		changed = append(changed, "name")
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			e.emitAudit(ctx, auditEventAccountUpdate, false, identity.ID, identity.Email, "", ErrRoleInvalid, func() map[string]string {
				return map[string]string{
					"reason": "role_invalid",
				}
			})
			return nil, ErrRoleInvalid
		}
		identity.Role = *input.Role
		changed = append(changed, "role")
	}
	if input.Active != nil {
		identity.Active = *input.Active
		changed = append(changed, "active")
	}
	if input.Password != nil {
		if err := e.applyCredentialChange(identity, *input.Password, false); err != nil {
			e.emitAudit(ctx, auditEventAccountUpdate, false, identity.ID, identity.Email, "", err, func() map[string]string {
				return map[string]string{
					"reason": "hash_failure",
				}
			})
			return nil, err
		}
		changed = append(changed, "password")
	}

	if len(changed) == 0 {
		return identity, nil
	}

	if err := e.store.Save(ctx, identity); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			e.emitAudit(ctx, auditEventAccountUpdate, false, identity.ID, identity.Email, "", ErrEmailTaken, nil)
			return nil, ErrEmailTaken
		}
		e.emitAudit(ctx, auditEventAccountUpdate, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return nil, err
	}

	e.metricInc(MetricAccountUpdated)
	e.emitAudit(ctx, auditEventAccountUpdate, true, identity.ID, identity.Email, "", nil, func() map[string]string {
		return map[string]string{
			"fields": strings.Join(changed, ","),
		}
	})
	return identity, nil
}

// DeleteIdentity removes the target record permanently. The acting identity
// can never delete itself; that rejects before any store access and leaves
// the record unchanged.
func (e *Engine) DeleteIdentity(ctx context.Context, actorID, targetID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	if actorID != "" && actorID == targetID {
		e.emitAudit(ctx, auditEventAccountDeletion, false, targetID, "", "", ErrSelfDeletion, nil)
		return ErrSelfDeletion
	}

	if err := e.store.Delete(ctx, targetID); err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.emitAudit(ctx, auditEventAccountDeletion, false, targetID, "", "", ErrIdentityNotFound, nil)
		}
		return err
	}

	e.metricInc(MetricAccountDeleted)
	e.emitAudit(ctx, auditEventAccountDeletion, true, targetID, "", "", nil, func() map[string]string {
		return map[string]string{
			"actor_id": actorID,
		}
	})
	return nil
}

// Deactivate is the self-service soft delete: the account stays on record
// but every gate rejects it until an administrator reactivates it. Calling
// it on an already-inactive account is a no-op.
func (e *Engine) Deactivate(ctx context.Context, id string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}

	identity, err := e.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !identity.Active {
		return nil
	}

	identity.Active = false
	if err := e.store.Save(ctx, identity); err != nil {
		e.emitAudit(ctx, auditEventAccountStatusChange, false, identity.ID, identity.Email, "", err, func() map[string]string {
			return map[string]string{
				"reason": "store_failure",
			}
		})
		return err
	}

	e.metricInc(MetricAccountDeactivated)
	e.emitAudit(ctx, auditEventAccountStatusChange, true, identity.ID, identity.Email, "", nil, func() map[string]string {
		return map[string]string{
			"active": "false",
		}
	})
	return nil
}
