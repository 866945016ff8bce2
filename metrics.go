package authkit

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricSignInSuccess counts successful password sign-ins.
	MetricSignInSuccess MetricID = iota
	// MetricSignInFailure counts rejected password sign-ins.
	MetricSignInFailure
	// MetricSignInRateLimited counts sign-ins refused by the lockout or
	// the attempt limiter.
	MetricSignInRateLimited
	// MetricSignUpSuccess counts successful account creations.
	MetricSignUpSuccess
	// MetricSignUpFailure counts rejected account creations.
	MetricSignUpFailure
	// MetricSignUpRejectedPolicy counts sign-ups refused by the local
	// password policy before reaching the provider.
	MetricSignUpRejectedPolicy
	// MetricOAuthStart counts OAuth flows handed off to the provider.
	MetricOAuthStart
	// MetricOAuthFailure counts OAuth flows that failed to start.
	MetricOAuthFailure
	// MetricSignOut counts explicit sign-outs.
	MetricSignOut
	// MetricSessionRefreshSuccess counts successful session refreshes.
	MetricSessionRefreshSuccess
	// MetricSessionRefreshFailure counts failed session refreshes.
	MetricSessionRefreshFailure
	// MetricPasswordResetRequested counts password reset emails requested.
	MetricPasswordResetRequested
	// MetricPasswordUpdated counts successful password updates.
	MetricPasswordUpdated
	// MetricPasswordUpdateFailure counts rejected password updates.
	MetricPasswordUpdateFailure
	// MetricVerificationResent counts verification emails re-sent.
	MetricVerificationResent
	// MetricLockoutTriggered counts failure streaks that reached the
	// lockout threshold.
	MetricLockoutTriggered
	// MetricProfileFetchFailure counts best-effort profile fetches that
	// failed without blocking authentication.
	MetricProfileFetchFailure
	// MetricCacheInvalidated counts cache invalidation passes triggered by
	// auth state transitions.
	MetricCacheInvalidated
	// MetricIdleWarning counts idle-timeout warnings shown.
	MetricIdleWarning
	// MetricIdleExpiry counts forced logouts from idle expiry.
	MetricIdleExpiry
	// MetricSignInLatency is the sign-in latency histogram.
	MetricSignInLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// Counters are padded to a cache line each so hot increments on different
// IDs do not false-share.
type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and optional latency histograms. The zero
// value is disabled; a nil *Metrics is also safe to use.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false all
// operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether metrics collection is active.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are active.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricSignInLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSignInLatency].buckets[i])
		}
		s.Histograms[MetricSignInLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
