package authgate

import "errors"

var (
	// Token verification outcomes. The wire response for all of these is a
	// uniform authentication failure; the sentinel records the real reason
	// for audit and metrics.
	ErrNoToken      = errors.New("missing bearer token")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenStale marks a token issued before the identity's most recent
	// password change. Signature and expiry may both still be valid.
	ErrTokenStale      = errors.New("token issued before last password change")
	ErrIdentityMissing = errors.New("token subject no longer exists")
	ErrDeactivated     = errors.New("account deactivated")

	// Credential verification outcomes.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLoginRateLimited   = errors.New("login rate limited")

	// ErrForbidden is returned when an authenticated identity lacks the
	// role required for the operation.
	ErrForbidden = errors.New("permission denied")

	// Account lifecycle outcomes.
	ErrEmailTaken       = errors.New("email already registered")
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrSelfDeletion rejects an admin deleting their own identity.
	ErrSelfDeletion   = errors.New("acting identity cannot delete itself")
	ErrRoleInvalid    = errors.New("invalid role")
	ErrInvalidInput   = errors.New("invalid request input")
	ErrPasswordPolicy = errors.New("password policy violation")
	ErrPasswordReuse  = errors.New("new password must be different from current password")

	// ErrResetInvalid covers every reset-ticket rejection: malformed,
	// unknown, expired, and already redeemed all collapse to this one error
	// so callers cannot probe ticket state.
	ErrResetInvalid = errors.New("password reset challenge invalid")

	ErrEngineNotReady = errors.New("engine not initialized")
)

// Failure is the coarse error class surfaced at the HTTP boundary. The
// specific sentinel stays reachable through [errors.Is] for internal logging
// while the class drives the uniform client-facing response.
type Failure int

const (
	FailureInternal Failure = iota
	FailureValidation
	FailureConflict
	FailureAuthentication
	FailureAuthorization
	FailureNotFound
	FailureRateLimited
)

func (f Failure) String() string {
	switch f {
	case FailureValidation:
		return "validation"
	case FailureConflict:
		return "conflict"
	case FailureAuthentication:
		return "authentication"
	case FailureAuthorization:
		return "authorization"
	case FailureNotFound:
		return "not_found"
	case FailureRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Classify maps an engine error to its boundary [Failure] class.
// Unrecognized errors classify as internal.
func Classify(err error) Failure {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrRoleInvalid),
		errors.Is(err, ErrPasswordPolicy),
		errors.Is(err, ErrPasswordReuse),
		errors.Is(err, ErrSelfDeletion):
		return FailureValidation
	case errors.Is(err, ErrEmailTaken):
		return FailureConflict
	case errors.Is(err, ErrNoToken),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenStale),
		errors.Is(err, ErrIdentityMissing),
		errors.Is(err, ErrDeactivated),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrResetInvalid):
		return FailureAuthentication
	case errors.Is(err, ErrForbidden):
		return FailureAuthorization
	case errors.Is(err, ErrIdentityNotFound):
		return FailureNotFound
	case errors.Is(err, ErrLoginRateLimited):
		return FailureRateLimited
	default:
		return FailureInternal
	}
}
