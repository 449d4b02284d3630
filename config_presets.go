package authgate

import (
	"crypto/rand"
	"time"
)

// DefaultConfig returns the baseline configuration: development posture,
// throttling and audit off, 15 minute tokens signed with the development
// secret. It validates as-is but is not fit for production; run Lint to see
// why.
func DefaultConfig() Config {
	return defaultConfig()
}

// HighSecurityConfig returns a production-posture configuration: short
// token lifetime, tight reset window, aggressive login throttling, and
// lossless audit delivery. The signing secret is generated fresh on every
// call, so multi-instance deployments must overwrite it with a shared one.
// Building with EnableIPThrottle requires a Redis client.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = randomSecret()
	cfg.Token.Lifetime = 10 * time.Minute
	cfg.Token.Leeway = 10 * time.Second
	cfg.Token.MaxFutureIAT = time.Minute
	cfg.Password.Cost = 13
	cfg.Reset.TTL = 5 * time.Minute
	cfg.Security.ProductionMode = true
	cfg.Security.EnableIPThrottle = true
	cfg.Security.MaxLoginAttempts = 3
	cfg.Security.LoginCooldown = 30 * time.Minute
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 4096
	cfg.Audit.DropIfFull = false
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	return cfg
}

// HighThroughputConfig returns a production-posture configuration tuned for
// request volume: longer tokens to cut login frequency, email-only
// throttling, and audit that sheds load instead of blocking. The signing
// secret is generated fresh on every call.
func HighThroughputConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = randomSecret()
	cfg.Token.Lifetime = time.Hour
	cfg.Password.Cost = 12
	cfg.Security.ProductionMode = true
	cfg.Security.EnableIPThrottle = false
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 8192
	cfg.Audit.DropIfFull = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = false
	return cfg
}

func randomSecret() []byte {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("authgate: crypto/rand unavailable: " + err.Error())
	}
	return secret
}
