package authkit

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bookloop/authkit/internal/diag"
	"github.com/bookloop/authkit/internal/limiters"
	"github.com/bookloop/authkit/internal/rate"
)

// ErrNoProvider is returned by Build when no identity provider was set.
var ErrNoProvider = errors.New("authkit: identity provider is required")

// Builder assembles a Service. Defaults come from DefaultConfig; a Redis
// client switches the lockout and attempt limiter to shared backends.
type Builder struct {
	config   Config
	provider Provider
	redis    redis.UniversalClient
	diagSink DiagSink
	clock    func() time.Time

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		clock:  time.Now,
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithProvider sets the identity provider. Required.
func (b *Builder) WithProvider(p Provider) *Builder {
	b.provider = p
	return b
}

// WithRedis backs the lockout and attempt limiter with Redis so state is
// shared across processes. Without it both stay in-memory.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDiagSink sets the diagnostics sink. Without one, enabled
// diagnostics are discarded.
func (b *Builder) WithDiagSink(sink DiagSink) *Builder {
	b.diagSink = sink
	return b
}

// WithClock overrides the time source. Tests use it to drive the lockout
// and expiry logic deterministically.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and assembles the Service. A Builder
// can build only once.
func (b *Builder) Build() (*Service, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.provider == nil {
		return nil, ErrNoProvider
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}
	b.built = true

	dispatcher := diag.NewDispatcher(diag.Config{
		Enabled:    b.config.Diag.Enabled,
		BufferSize: b.config.Diag.BufferSize,
		DropIfFull: b.config.Diag.DropIfFull,
	}, b.diagSink)

	var gate limiters.LoginGate
	if b.config.Lockout.Enabled {
		lockoutCfg := limiters.LockoutConfig{
			Threshold: b.config.Lockout.Threshold,
			Duration:  b.config.Lockout.Duration,
		}
		if b.redis != nil {
			gate = limiters.NewRedisLockout(b.redis, lockoutCfg)
		} else {
			gate = limiters.NewLockout(lockoutCfg)
		}
	}

	var limiter rate.Limiter
	rateCfg := rate.Config{
		Limit:  b.config.RateLimit.Limit,
		Window: b.config.RateLimit.Window,
	}
	if b.redis != nil {
		limiter = rate.NewRedisLimiter(b.redis, rateCfg)
	} else {
		limiter = rate.NewMemoryLimiter(rateCfg)
	}

	svc := &Service{
		provider:  b.provider,
		cfg:       b.config,
		policy:    b.config.Password.Policy(),
		gate:      gate,
		limiter:   limiter,
		sanitizer: NewSanitizer(dispatcher),
		diag:      dispatcher,
		metrics:   NewMetrics(b.config.Metrics),
		now:       b.clock,
	}
	return svc, nil
}
