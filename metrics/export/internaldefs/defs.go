package internaldefs

import (
	authkit "github.com/bookloop/authkit"
)

// CounterDef binds a metric ID to its exported name and help text.
type CounterDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram metric ID to its exported name and help
// text.
type HistogramDef struct {
	ID   authkit.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter. Exporters iterate this so the
// Prometheus and OTel surfaces stay in lockstep.
var CounterDefs = []CounterDef{
	{ID: authkit.MetricSignInSuccess, Name: "authkit_sign_in_success_total", Help: "Successful password sign-ins."},
	{ID: authkit.MetricSignInFailure, Name: "authkit_sign_in_failure_total", Help: "Rejected password sign-ins."},
	{ID: authkit.MetricSignInRateLimited, Name: "authkit_sign_in_rate_limited_total", Help: "Sign-ins refused by lockout or attempt limiting."},
	{ID: authkit.MetricSignUpSuccess, Name: "authkit_sign_up_success_total", Help: "Successful account creations."},
	{ID: authkit.MetricSignUpFailure, Name: "authkit_sign_up_failure_total", Help: "Rejected account creations."},
	{ID: authkit.MetricSignUpRejectedPolicy, Name: "authkit_sign_up_rejected_policy_total", Help: "Sign-ups refused by the local password policy."},
	{ID: authkit.MetricOAuthStart, Name: "authkit_oauth_start_total", Help: "OAuth flows handed off to the provider."},
	{ID: authkit.MetricOAuthFailure, Name: "authkit_oauth_failure_total", Help: "OAuth flows that failed to start."},
	{ID: authkit.MetricSignOut, Name: "authkit_sign_out_total", Help: "Explicit sign-outs."},
	{ID: authkit.MetricSessionRefreshSuccess, Name: "authkit_session_refresh_success_total", Help: "Successful session refreshes."},
	{ID: authkit.MetricSessionRefreshFailure, Name: "authkit_session_refresh_failure_total", Help: "Failed session refreshes."},
	{ID: authkit.MetricPasswordResetRequested, Name: "authkit_password_reset_requested_total", Help: "Password reset emails requested."},
	{ID: authkit.MetricPasswordUpdated, Name: "authkit_password_updated_total", Help: "Successful password updates."},
	{ID: authkit.MetricPasswordUpdateFailure, Name: "authkit_password_update_failure_total", Help: "Rejected password updates."},
	{ID: authkit.MetricVerificationResent, Name: "authkit_verification_resent_total", Help: "Verification emails re-sent."},
	{ID: authkit.MetricLockoutTriggered, Name: "authkit_lockout_triggered_total", Help: "Failure streaks that reached the lockout threshold."},
	{ID: authkit.MetricProfileFetchFailure, Name: "authkit_profile_fetch_failure_total", Help: "Best-effort profile fetches that failed."},
	{ID: authkit.MetricCacheInvalidated, Name: "authkit_cache_invalidated_total", Help: "Cache invalidation passes on auth transitions."},
	{ID: authkit.MetricIdleWarning, Name: "authkit_idle_warning_total", Help: "Idle-timeout warnings shown."},
	{ID: authkit.MetricIdleExpiry, Name: "authkit_idle_expiry_total", Help: "Forced logouts from idle expiry."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: authkit.MetricSignInLatency, Name: "authkit_sign_in_latency_seconds", Help: "Sign-in latency histogram."},
}

// HistogramBounds are the upper bucket bounds, in seconds, matching the
// core's fixed 8-bucket layout.
var HistogramBounds = []float64{
	0.005,
	0.01,
	0.025,
	0.05,
	0.1,
	0.25,
	0.5,
}

// HistogramBoundSuffix gives a metric-name-safe suffix per bucket for
// exporters that flatten histograms into gauges.
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

// NormalizeBuckets pads or truncates a raw bucket slice to the fixed
// 8-bucket layout.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// both exporters expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
