package authkit

import (
	"log"

	"golang.org/x/time/rate"
)

// NoopTelemetry discards all analytics calls.
type NoopTelemetry struct{}

func (NoopTelemetry) Identify(string, map[string]any) {}
func (NoopTelemetry) Track(string, map[string]any)    {}
func (NoopTelemetry) Reset()                          {}

// ThrottledTelemetry wraps another Telemetry, bounding Track volume and
// swallowing panics from the underlying client. Analytics must never take
// down an auth flow.
type ThrottledTelemetry struct {
	next    Telemetry
	limiter *rate.Limiter
}

// NewThrottledTelemetry wraps next with the configured event rate.
func NewThrottledTelemetry(next Telemetry, cfg TelemetryConfig) *ThrottledTelemetry {
	if next == nil {
		next = NoopTelemetry{}
	}
	limit := rate.Limit(cfg.EventsPerSecond)
	if cfg.EventsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ThrottledTelemetry{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (t *ThrottledTelemetry) Identify(id string, traits map[string]any) {
	defer recoverTelemetry()
	t.next.Identify(id, traits)
}

func (t *ThrottledTelemetry) Track(event string, properties map[string]any) {
	defer recoverTelemetry()
	if !t.limiter.Allow() {
		return
	}
	t.next.Track(event, properties)
}

func (t *ThrottledTelemetry) Reset() {
	defer recoverTelemetry()
	t.next.Reset()
}

func recoverTelemetry() {
	if r := recover(); r != nil {
		log.Print("authkit: telemetry client panicked")
	}
}

var (
	_ Telemetry = NoopTelemetry{}
	_ Telemetry = (*ThrottledTelemetry)(nil)
)
