package authkit

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/bookloop/authkit/password"
)

// Config carries every tunable of the subsystem. Construct it with
// DefaultConfig or ConfigFromEnv and treat it as immutable afterwards.
type Config struct {
	Session   SessionConfig
	Lockout   LockoutConfig
	RateLimit RateLimitConfig
	Password  PasswordConfig
	Diag      DiagConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the idle-session monitor.
type SessionConfig struct {
	// IdleTimeout is how long a session survives without qualifying
	// activity before forced logout.
	IdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT"`
	// IdleWarning is how long before expiry the warning fires.
	IdleWarning time.Duration `env:"SESSION_IDLE_WARNING"`
	// ActivityTick is the re-check cadence while watching.
	ActivityTick time.Duration `env:"SESSION_ACTIVITY_TICK"`
}

/*
====================================
LOCKOUT CONFIG
====================================
*/

// LockoutConfig controls the consecutive-failure sign-in lockout.
type LockoutConfig struct {
	Enabled   bool          `env:"LOCKOUT_ENABLED"`
	Threshold int           `env:"LOCKOUT_THRESHOLD"`
	Duration  time.Duration `env:"LOCKOUT_DURATION"`
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the generic sliding-window attempt limiter.
type RateLimitConfig struct {
	Limit  int           `env:"RATE_LIMIT"`
	Window time.Duration `env:"RATE_WINDOW"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig is the canonical sign-up password policy. Every entry
// point enforces the same rules.
type PasswordConfig struct {
	MinLength     int  `env:"PASSWORD_MIN_LENGTH"`
	RequireLower  bool `env:"PASSWORD_REQUIRE_LOWER"`
	RequireUpper  bool `env:"PASSWORD_REQUIRE_UPPER"`
	RequireDigit  bool `env:"PASSWORD_REQUIRE_DIGIT"`
	RequireSymbol bool `env:"PASSWORD_REQUIRE_SYMBOL"`
	RejectCommon  bool `env:"PASSWORD_REJECT_COMMON"`
}

// Policy converts the config into the password package's policy type.
func (c PasswordConfig) Policy() password.Policy {
	return password.Policy{
		MinLength:     c.MinLength,
		RequireLower:  c.RequireLower,
		RequireUpper:  c.RequireUpper,
		RequireDigit:  c.RequireDigit,
		RequireSymbol: c.RequireSymbol,
		RejectCommon:  c.RejectCommon,
	}
}

/*
====================================
DIAG CONFIG
====================================
*/

// DiagConfig controls the diagnostics dispatcher.
type DiagConfig struct {
	Enabled    bool `env:"DIAG_ENABLED"`
	BufferSize int  `env:"DIAG_BUFFER_SIZE"`
	DropIfFull bool `env:"DIAG_DROP_IF_FULL"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool `env:"METRICS_ENABLED"`
	EnableLatencyHistograms bool `env:"METRICS_LATENCY_HISTOGRAMS"`
}

/*
====================================
TELEMETRY CONFIG
====================================
*/

// TelemetryConfig bounds the analytics event rate.
type TelemetryConfig struct {
	EventsPerSecond float64 `env:"TELEMETRY_EVENTS_PER_SECOND"`
	Burst           int     `env:"TELEMETRY_BURST"`
}

// DefaultConfig returns the reference configuration: 30 minute idle
// timeout with a 5 minute warning, 5 failures locking for 5 minutes, and
// the canonical password policy.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			IdleTimeout:  30 * time.Minute,
			IdleWarning:  5 * time.Minute,
			ActivityTick: time.Minute,
		},
		Lockout: LockoutConfig{
			Enabled:   true,
			Threshold: 5,
			Duration:  5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Limit:  10,
			Window: time.Minute,
		},
		Password: PasswordConfig{
			MinLength:     8,
			RequireLower:  true,
			RequireUpper:  true,
			RequireDigit:  true,
			RequireSymbol: true,
			RejectCommon:  true,
		},
		Diag: DiagConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Telemetry: TelemetryConfig{
			EventsPerSecond: 10,
			Burst:           20,
		},
	}
}

// ConfigFromEnv builds a Config from AUTHKIT_-prefixed environment
// variables layered over DefaultConfig.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "AUTHKIT_"}); err != nil {
		return Config{}, err
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.Session.IdleTimeout <= 0 {
		return errors.New("session idle timeout must be positive")
	}
	if cfg.Session.IdleWarning <= 0 || cfg.Session.IdleWarning >= cfg.Session.IdleTimeout {
		return errors.New("idle warning must be positive and shorter than the idle timeout")
	}
	if cfg.Session.ActivityTick <= 0 {
		return errors.New("activity tick must be positive")
	}
	if cfg.Lockout.Enabled {
		if cfg.Lockout.Threshold <= 0 {
			return errors.New("lockout threshold must be positive")
		}
		if cfg.Lockout.Duration <= 0 {
			return errors.New("lockout duration must be positive")
		}
	}
	if cfg.RateLimit.Limit <= 0 {
		return errors.New("rate limit must be positive")
	}
	if cfg.RateLimit.Window <= 0 {
		return errors.New("rate window must be positive")
	}
	if cfg.Password.MinLength <= 0 {
		return errors.New("password minimum length must be positive")
	}
	if cfg.Diag.Enabled && cfg.Diag.BufferSize <= 0 {
		return errors.New("diag buffer size must be positive")
	}
	return nil
}
