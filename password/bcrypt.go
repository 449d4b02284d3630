package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the cost applied when Config.Cost is zero. It is chosen so
// that a single hash is expensive enough to resist offline brute force on
// commodity hardware.
const DefaultCost = 12

var (
	// ErrEmptyPassword is returned when an empty plaintext reaches the hasher.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when plaintext exceeds the 72-byte input
	// limit of the underlying algorithm. Rejecting is safer than the silent
	// truncation some implementations apply.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
	// ErrInvalidCost is returned by New when the configured cost is outside
	// the range the underlying algorithm supports.
	ErrInvalidCost = errors.New("bcrypt cost out of range")
)

// Config carries the tunable work factor for the hasher.
type Config struct {
	// Cost is the bcrypt work factor. Zero selects DefaultCost. Values below
	// bcrypt.MinCost or above bcrypt.MaxCost are rejected by New rather than
	// silently clamped.
	Cost int
}

// Hasher produces and verifies salted bcrypt digests with a fixed cost.
type Hasher struct {
	cost int
}

// New validates the configured cost and returns a ready Hasher.
func New(cfg Config) (*Hasher, error) {
	cost := cfg.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, ErrInvalidCost
	}

	return &Hasher{cost: cost}, nil
}

// Cost returns the effective work factor with the zero-config default
// resolved.
func (h *Hasher) Cost() int {
	return h.cost
}

// Hash derives a salted one-way digest of plaintext. Each call draws a fresh
// random salt, so hashing the same plaintext twice yields different digests.
// Any failure of the underlying primitive propagates; there is no weaker
// fallback scheme.
func (h *Hasher) Hash(plaintext string) (string, error) {
	// Raw string bytes exactly as provided (no Unicode normalization).
	if len(plaintext) == 0 {
		return "", ErrEmptyPassword
	}
	if len(plaintext) > 72 {
		return "", ErrPasswordTooLong
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}

	return string(digest), nil
}

// Verify recomputes the digest for plaintext using the salt and cost embedded
// in digest and compares in constant time. A mismatch is (false, nil); an
// error is reserved for digests the algorithm cannot interpret.
func (h *Hasher) Verify(plaintext, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// NeedsRehash reports whether digest was produced with a cost different from
// the configured one, so callers can transparently re-hash after the next
// successful verification.
func (h *Hasher) NeedsRehash(digest string) (bool, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return false, err
	}

	return cost != h.cost, nil
}
