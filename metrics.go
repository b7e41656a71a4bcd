package authkit

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint8

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricRegisterSuccess
	MetricLogout
	MetricRefreshSuccess
	MetricRefreshReuseDetected
	MetricEmailVerifySuccess
	MetricPasswordResetSuccess
	MetricPasswordChangeSuccess
	MetricOAuthLogin
	MetricOAuthSignup
	metricIDCount
)

// String implements fmt.Stringer for snapshot consumers.
func (id MetricID) String() string {
	switch id {
	case MetricLoginSuccess:
		return "login_success"
	case MetricLoginFailure:
		return "login_failure"
	case MetricRegisterSuccess:
		return "register_success"
	case MetricLogout:
		return "logout"
	case MetricRefreshSuccess:
		return "refresh_success"
	case MetricRefreshReuseDetected:
		return "refresh_reuse_detected"
	case MetricEmailVerifySuccess:
		return "email_verify_success"
	case MetricPasswordResetSuccess:
		return "password_reset_success"
	case MetricPasswordChangeSuccess:
		return "password_change_success"
	case MetricOAuthLogin:
		return "oauth_login"
	case MetricOAuthSignup:
		return "oauth_signup"
	default:
		return "unknown"
	}
}

// metricSet is a fixed array of atomic counters. Disabled metrics cost one
// branch per increment.
type metricSet struct {
	enabled  bool
	counters [metricIDCount]atomic.Uint64
}

func newMetricSet(cfg MetricsConfig) *metricSet {
	return &metricSet{enabled: cfg.Enabled}
}

func (m *metricSet) inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

func (m *metricSet) snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, metricIDCount)
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = m.counters[id].Load()
	}
	return out
}

// MetricsSnapshot returns the current counter values. The snapshot is a
// copy; mutating it has no effect on the engine.
func (e *Engine) MetricsSnapshot() map[MetricID]uint64 {
	return e.metrics.snapshot()
}
