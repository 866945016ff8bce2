package limiters

import (
	"context"
	"sync"
	"time"
)

// LockoutConfig holds the lockout policy thresholds.
type LockoutConfig struct {
	Threshold int
	Duration  time.Duration
}

// LoginGate is the lockout contract consumed by the auth service: Allowed
// before an attempt, RecordFailure after a failed one, Reset after
// success.
type LoginGate interface {
	Allowed(ctx context.Context, key string) (bool, time.Duration, error)
	RecordFailure(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

type lockoutEntry struct {
	failures    int
	lockedUntil time.Time
}

// Lockout is the in-memory lockout policy, keyed by an arbitrary string
// (typically a per-form attempt key). Consecutive failures at or above
// the threshold lock the key for the configured duration; the counter
// restarts when the lock expires.
type Lockout struct {
	cfg LockoutConfig
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*lockoutEntry
}

// NewLockout creates an in-memory lockout policy.
func NewLockout(cfg LockoutConfig) *Lockout {
	return &Lockout{
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]*lockoutEntry),
	}
}

// Allowed reports whether the key may attempt a sign-in, and if not, how
// long until the lock expires.
func (l *Lockout) Allowed(_ context.Context, key string) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if !e.lockedUntil.IsZero() {
		if now.Before(e.lockedUntil) {
			return false, e.lockedUntil.Sub(now), nil
		}
		// Lock expired; the failure streak starts over.
		delete(l.entries, key)
	}
	return true, 0, nil
}

// RecordFailure counts a failed attempt. It returns true when this failure
// reached the threshold and locked the key.
func (l *Lockout) RecordFailure(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &lockoutEntry{}
		l.entries[key] = e
	}
	e.failures++
	if e.failures >= l.cfg.Threshold && e.lockedUntil.IsZero() {
		e.lockedUntil = l.now().Add(l.cfg.Duration)
		return true, nil
	}
	return false, nil
}

// Reset clears the failure streak for key, typically after a successful
// sign-in.
func (l *Lockout) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

var _ LoginGate = (*Lockout)(nil)
