package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed covers every token that fails structural or signature
	// checks: wrong format, wrong algorithm, tampered payload, bad signature,
	// missing required claims.
	ErrMalformed = errors.New("token malformed or tampered")
	// ErrExpired is returned for structurally valid, correctly signed tokens
	// whose expiry has passed.
	ErrExpired = errors.New("token expired")
)

// Config carries the shared-secret signing parameters.
//
// Secret strength is not judged here; the engine configuration decides what
// is acceptable for its deployment posture before the codec is built.
type Config struct {
	Secret   []byte
	Lifetime time.Duration
	Issuer   string
	// Leeway tolerates small clock skew between issuer and verifier. Bounded
	// to two minutes so misconfiguration cannot quietly disable expiry.
	Leeway time.Duration
	// MaxFutureIAT rejects tokens claiming to be issued further in the
	// future than this bound. Zero selects ten minutes.
	MaxFutureIAT time.Duration
	// Now overrides the clock for issuance and verification. Nil selects
	// time.Now.
	Now func() time.Time
}

// Claims is the signed claim set carried by every bearer token: subject
// identifier, role, issued-at and expires-at.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies compact stateless bearer tokens with a single
// shared HMAC-SHA256 secret.
type Codec struct {
	config Config
	now    func() time.Time
}

// NewCodec validates the configuration and returns a ready codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if cfg.Lifetime <= 0 {
		return nil, errors.New("invalid token lifetime")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("invalid MaxFutureIAT configuration")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{config: cfg, now: now}, nil
}

// Issue signs a token for subject carrying role, issued at the codec clock's
// now and expiring after the configured lifetime.
func (c *Codec) Issue(subject, role string) (string, error) {
	issuedAt := c.now()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.config.Lifetime)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    c.config.Issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.config.Secret)
}

// Verify checks signature integrity first, then expiry, and returns the
// embedded claims. The error is always one of the two package sentinels:
// ErrMalformed for anything structurally or cryptographically wrong,
// ErrExpired for a genuine expiry, so callers can keep the two outcomes
// distinguishable all the way to their boundary.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	// Freshness checks downstream depend on iat, so a token without one is
	// unusable regardless of signature validity.
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: missing iat", ErrMalformed)
	}
	if claims.IssuedAt.Time.After(c.now().Add(c.config.MaxFutureIAT)) {
		return nil, fmt.Errorf("%w: iat too far in the future", ErrMalformed)
	}

	return claims, nil
}

// Lifetime reports the configured token lifetime.
func (c *Codec) Lifetime() time.Duration {
	return c.config.Lifetime
}
