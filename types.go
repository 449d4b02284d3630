package authgate

import (
	"context"
	"time"
)

// Role is the closed set of permission tiers. Operations declare their
// required roles statically; free-form role strings are rejected at the
// boundary so a typo can never widen access.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole validates a wire-level role string against the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", ErrRoleInvalid
	}
}

// Valid reports whether the role is a member of the closed set.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the full account record for one principal. The credential
// and reset fields never serialize outward.
type Identity struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`

	// PasswordHash is the stored one-way credential digest, never plaintext.
	PasswordHash string `json:"-"`

	LastLoginAt       time.Time `json:"-"`
	PasswordChangedAt time.Time `json:"-"`

	// ResetDigest and ResetExpiresAt are either both set or both zero.
	ResetDigest    []byte    `json:"-"`
	ResetExpiresAt time.Time `json:"-"`

	// CreatedAt and UpdatedAt are maintained by the store, not the engine.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Stores hand out clones so callers cannot
// mutate shared records in place.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	if i.ResetDigest != nil {
		cp.ResetDigest = append([]byte(nil), i.ResetDigest...)
	}
	return &cp
}

// IdentityStore is the persistence interface callers implement to integrate
// authgate with their user database. Implementations must enforce email
// uniqueness and apply Save as an atomic whole-record update.
//
// Emails passed in are already case-normalized by the engine. FindByID and
// FindByEmail return [ErrIdentityNotFound] for absent records, Save returns
// [ErrEmailTaken] on a uniqueness violation, and Delete returns
// [ErrIdentityNotFound] when nothing was removed.
type IdentityStore interface {
	FindByID(ctx context.Context, id string) (*Identity, error)
	FindByEmail(ctx context.Context, email string) (*Identity, error)
	Save(ctx context.Context, identity *Identity) error
	Delete(ctx context.Context, id string) error
}

// RegisterInput is the input for [Engine.Register]. Role is always user;
// privileged accounts are created through [Engine.CreateIdentity].
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// LoginInput is the input for [Engine.Login]. RemoteIP feeds the IP throttle
// and audit events; when empty, the engine falls back to any address attached
// with [WithClientIP].
type LoginInput struct {
	Email    string
	Password string
	RemoteIP string
}

// AuthResult is returned by every operation that ends an authenticated
// session boundary with a fresh credential: Register, Login, ChangePassword,
// ResetPassword. Token is a signed bearer credential that verifies and
// resolves back to Identity.
type AuthResult struct {
	Token    string
	Identity *Identity
}

// CreateIdentityInput is the input for [Engine.CreateIdentity]. Role
// defaults to user when empty.
type CreateIdentityInput struct {
	Email    string
	Name     string
	Password string
	Role     Role
}

// UpdateIdentityInput is a patch for [Engine.UpdateIdentity]. Nil fields
// are left untouched. Setting Password applies the full credential-change
// transformation, including token invalidation.
type UpdateIdentityInput struct {
	Email    *string
	Name     *string
	Password *string
	Role     *Role
	Active   *bool
}
