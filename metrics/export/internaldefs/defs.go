package internaldefs

import (
	"github.com/varkis-sec/authgate"
)

// CounterDef binds a core MetricID to its stable exported name and help text.
type CounterDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// HistogramDef binds a latency MetricID to its stable exported name and help
// text.
type HistogramDef struct {
	ID   authgate.MetricID
	Name string
	Help string
}

// CounterDefs lists every counter both exporters publish, in a fixed order so
// rendered output is deterministic.
var CounterDefs = []CounterDef{
	{ID: authgate.MetricRegisterSuccess, Name: "authgate_register_success_total", Help: "Successful self-service registrations."},
	{ID: authgate.MetricRegisterDuplicate, Name: "authgate_register_duplicate_total", Help: "Registrations rejected for an already-claimed email."},
	{ID: authgate.MetricLoginSuccess, Name: "authgate_login_success_total", Help: "Successful logins."},
	{ID: authgate.MetricLoginFailure, Name: "authgate_login_failure_total", Help: "Failed logins."},
	{ID: authgate.MetricLoginRateLimited, Name: "authgate_login_rate_limited_total", Help: "Rate-limited login attempts."},
	{ID: authgate.MetricAuthenticateSuccess, Name: "authgate_authenticate_success_total", Help: "Successful bearer-token authentications."},
	{ID: authgate.MetricAuthenticateFailure, Name: "authgate_authenticate_failure_total", Help: "Rejected bearer-token authentications."},
	{ID: authgate.MetricAuthorizeDenied, Name: "authgate_authorize_denied_total", Help: "Role checks that denied access."},
	{ID: authgate.MetricPasswordChangeSuccess, Name: "authgate_password_change_success_total", Help: "Successful password changes."},
	{ID: authgate.MetricPasswordChangeInvalidOld, Name: "authgate_password_change_invalid_old_total", Help: "Password changes rejected for a wrong current password."},
	{ID: authgate.MetricPasswordChangeReuseRejected, Name: "authgate_password_change_reuse_rejected_total", Help: "Password changes rejected for reusing the current password."},
	{ID: authgate.MetricPasswordResetRequest, Name: "authgate_password_reset_request_total", Help: "Password reset requests, including silently swallowed ones."},
	{ID: authgate.MetricPasswordResetConfirmSuccess, Name: "authgate_password_reset_confirm_success_total", Help: "Successful password reset redemptions."},
	{ID: authgate.MetricPasswordResetConfirmFailure, Name: "authgate_password_reset_confirm_failure_total", Help: "Failed password reset redemptions."},
	{ID: authgate.MetricAccountCreated, Name: "authgate_account_created_total", Help: "Administrative account creations."},
	{ID: authgate.MetricAccountUpdated, Name: "authgate_account_updated_total", Help: "Administrative account updates."},
	{ID: authgate.MetricAccountDeactivated, Name: "authgate_account_deactivated_total", Help: "Account deactivations."},
	{ID: authgate.MetricAccountDeleted, Name: "authgate_account_deleted_total", Help: "Account deletions."},
}

// HistogramDefs lists the latency histograms both exporters publish.
var HistogramDefs = []HistogramDef{
	{ID: authgate.MetricAuthenticateLatency, Name: "authgate_authenticate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds, matching the core
// histogram layout bucket for bucket.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix carries the bounds in instrument-name-safe form for
// backends that cannot express le labels.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed 8-bucket
// layout. Snapshots from an engine with histograms disabled come through as
// nil and normalize to all zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form both
// Prometheus and the OTel gauges expect.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
