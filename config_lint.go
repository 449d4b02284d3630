package authgate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks configuration findings.
type LintSeverity int

const (
	LintLow LintSeverity = iota
	LintMedium
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintLow:
		return "LOW"
	case LintMedium:
		return "MEDIUM"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning flags a configuration that validates but weakens the
// deployment. Code is stable and machine-matchable; Message is for humans.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

type LintWarnings []LintWarning

// Codes returns the warning codes in emission order.
func (ws LintWarnings) Codes() []string {
	codes := make([]string, 0, len(ws))
	for _, w := range ws {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	out := make(LintWarnings, 0, len(ws))
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds the warnings at or above min into a single error, or nil
// when none reach the threshold. Deployments that treat lint findings as
// fatal call this right after Validate.
func (ws LintWarnings) AsError(min LintSeverity) error {
	flagged := ws.BySeverity(min)
	if len(flagged) == 0 {
		return nil
	}

	parts := make([]string, 0, len(flagged))
	for _, w := range flagged {
		parts = append(parts, fmt.Sprintf("%s [%s]: %s", w.Code, w.Severity, w.Message))
	}
	return errors.New("config lint: " + strings.Join(parts, "; "))
}

// Lint reports advisory findings that Validate deliberately lets through.
// It never fails a build on its own; callers decide what to do with the
// findings. Checks overlap with the ProductionMode posture on purpose, so
// a development config can be linted against production expectations before
// the switch is flipped.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	add := func(code string, severity LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{
			Code:     code,
			Severity: severity,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if bytes.Equal(c.Token.Secret, []byte(DevelopmentSecret)) {
		add("development_secret", LintHigh, "the baked-in development signing secret is in use")
	} else if len(c.Token.Secret) < 32 {
		add("secret_short", LintHigh, "token secret is %d bytes, 256 bits expected", len(c.Token.Secret))
	}

	if c.Token.Lifetime > time.Hour {
		add("token_lifetime_long", LintMedium, "token lifetime %v exceeds 1h; deactivation and staleness are only checked per request", c.Token.Lifetime)
	}
	if c.Token.Leeway > time.Minute {
		add("leeway_large", LintMedium, "expiry leeway %v exceeds 1m", c.Token.Leeway)
	}

	if c.Password.Cost != 0 && c.Password.Cost < 12 {
		add("bcrypt_cost_low", LintMedium, "bcrypt cost %d is below 12", c.Password.Cost)
	}
	if !c.Password.UpgradeOnLogin {
		add("upgrade_on_login_disabled", LintLow, "stored digests keep their old work factor after a cost change")
	}

	if c.Reset.TTL > 15*time.Minute {
		add("reset_ttl_long", LintMedium, "reset ticket TTL %v exceeds 15m", c.Reset.TTL)
	}

	if !c.Security.EnableIPThrottle {
		add("ip_throttle_disabled", LintLow, "login throttling keys on email only")
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintMedium, "security events are not recorded")
	} else if !c.Audit.DropIfFull {
		add("audit_blocking", LintLow, "a slow audit sink can stall request paths when the buffer fills")
	}

	return ws
}
