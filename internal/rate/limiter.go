package rate

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrBackendUnavailable indicates the shared counter backend is
	// unreachable.
	ErrBackendUnavailable = errors.New("rate limit backend unavailable")
)

// Config holds limiter tuning parameters.
type Config struct {
	Limit  int
	Window time.Duration
}

// Limiter counts attempts per key and decides whether another is allowed.
//
// Allow records the attempt as a side effect of checking: failed attempts
// count the same as successful ones, so callers cannot accidentally
// exempt failures from the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Attempts(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// MemoryLimiter is a process-local sliding-window limiter. State is not
// persisted; a process restart clears every window.
type MemoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	history map[string][]time.Time
}

// NewMemoryLimiter creates a sliding-window limiter allowing cfg.Limit
// attempts per cfg.Window.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		cfg:     cfg,
		now:     time.Now,
		history: make(map[string][]time.Time),
	}
}

// Allow records an attempt for key and reports whether it was within the
// window budget.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, now)
	kept = append(kept, now)
	l.history[key] = kept

	return len(kept) <= l.cfg.Limit, nil
}

// Attempts returns the number of attempts currently inside the window.
func (l *MemoryLimiter) Attempts(_ context.Context, key string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(key, l.now())
	l.history[key] = kept
	return len(kept), nil
}

// Reset clears the window for key.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.history, key)
	return nil
}

// prune drops attempts older than the window. Caller holds the mutex.
func (l *MemoryLimiter) prune(key string, now time.Time) []time.Time {
	cutoff := now.Add(-l.cfg.Window)
	history := l.history[key]
	kept := history[:0]
	for _, at := range history {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	return kept
}
