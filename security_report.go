package authgate

import "time"

// SecurityReport is a point-in-time summary of the engine's effective
// security posture. It carries no secrets and is safe to log at startup.
type SecurityReport struct {
	ProductionMode          bool
	TokenLifetime           time.Duration
	TokenLeeway             time.Duration
	BcryptCost              int
	UpgradeOnLogin          bool
	ResetTicketTTL          time.Duration
	ThrottleActive          bool
	IPThrottleActive        bool
	AuditActive             bool
	MetricsActive           bool
	LatencyHistogramsActive bool
}

// SecurityReport reports the posture the engine actually runs with, which
// can differ from the raw config: the throttle needs a Redis client to be
// active, and latency histograms need the counter switch as well.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	report := SecurityReport{
		ProductionMode:          e.config.Security.ProductionMode,
		TokenLifetime:           e.config.Token.Lifetime,
		TokenLeeway:             e.config.Token.Leeway,
		UpgradeOnLogin:          e.config.Password.UpgradeOnLogin,
		ResetTicketTTL:          e.config.Reset.TTL,
		ThrottleActive:          e.loginLimiter != nil,
		IPThrottleActive:        e.loginLimiter != nil && e.config.Security.EnableIPThrottle,
		AuditActive:             e.audit != nil,
		MetricsActive:           e.metrics.Enabled(),
		LatencyHistogramsActive: e.metrics.LatencyEnabled(),
	}
	if e.hasher != nil {
		report.BcryptCost = e.hasher.Cost()
	}

	return report
}
