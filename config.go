package authgate

import (
	"bytes"
	"errors"
	"time"
)

// DevelopmentSecret is the token signing secret baked into the default
// configuration. Validate rejects it under ProductionMode.
const DevelopmentSecret = "authgate-development-secret-do-not-deploy"

// Config carries every tunable the engine consumes. Instances are set up
// once through the builder and treated as immutable afterwards.
type Config struct {
	Token    TokenConfig
	Password PasswordConfig
	Reset    ResetConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls bearer token issuance and verification.
type TokenConfig struct {
	Secret   []byte
	Lifetime time.Duration
	Issuer   string

	// Leeway widens expiry checks to absorb clock drift between hosts.
	Leeway time.Duration

	// MaxFutureIAT bounds how far in the future an issued-at claim may sit
	// before the token is rejected as malformed.
	MaxFutureIAT time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig controls the bcrypt credential hasher. UpgradeOnLogin
// transparently rehashes stored credentials whose cost no longer matches
// the configured cost.
type PasswordConfig struct {
	Cost           int
	UpgradeOnLogin bool
}

/*
====================================
RESET CONFIG
====================================
*/

// ResetConfig controls the password-reset ticket window.
type ResetConfig struct {
	TTL time.Duration
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds the production posture switch and the login throttle
// budget. The throttle only activates when the builder is given a Redis
// client.
type SecurityConfig struct {
	ProductionMode   bool
	EnableIPThrottle bool
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Secret:       []byte(DevelopmentSecret),
			Lifetime:     15 * time.Minute,
			Leeway:       30 * time.Second,
			MaxFutureIAT: 10 * time.Minute,
		},
		Password: PasswordConfig{
			Cost:           12,
			UpgradeOnLogin: true,
		},
		Reset: ResetConfig{
			TTL: 10 * time.Minute,
		},
		Security: SecurityConfig{
			ProductionMode:   false,
			EnableIPThrottle: false,
			MaxLoginAttempts: 5,
			LoginCooldown:    15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks internal consistency and, under ProductionMode, enforces
// the deployment posture. A default or development signing secret is a
// startup-fatal condition in production.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret is required")
	}
	if c.Token.Lifetime <= 0 {
		return errors.New("Token Lifetime must be > 0")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}
	if c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be <= 2m")
	}
	if c.Token.MaxFutureIAT < 0 {
		return errors.New("Token MaxFutureIAT must be >= 0")
	}
	if c.Token.MaxFutureIAT > 24*time.Hour {
		return errors.New("Token MaxFutureIAT must be <= 24h")
	}

	// Password (bcrypt cost bounds; zero selects the default)
	if c.Password.Cost != 0 && (c.Password.Cost < 4 || c.Password.Cost > 31) {
		return errors.New("Password Cost must be between 4 and 31")
	}

	// Reset
	if c.Reset.TTL <= 0 {
		return errors.New("Reset TTL must be > 0")
	}

	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("MaxLoginAttempts must be > 0")
	}
	if c.Security.LoginCooldown <= 0 {
		return errors.New("LoginCooldown must be > 0")
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	if c.Security.ProductionMode {
		if len(c.Token.Secret) < 32 {
			return errors.New("ProductionMode requires Token Secret >= 256 bits")
		}
		if bytes.Equal(c.Token.Secret, []byte(DevelopmentSecret)) {
			return errors.New("ProductionMode rejects the development signing secret")
		}
		if c.Token.Lifetime > 24*time.Hour {
			return errors.New("ProductionMode requires Token Lifetime <= 24h")
		}
		if c.Password.Cost != 0 && c.Password.Cost < 12 {
			return errors.New("ProductionMode requires Password Cost >= 12")
		}
		if c.Reset.TTL > 15*time.Minute {
			return errors.New("ProductionMode requires Reset TTL <= 15m")
		}
	}

	return nil
}
