// Package rate provides the attempt-counting primitives behind authkit's
// login throttling and lockout policies.
//
// # Window semantics
//
// The in-memory limiter is a true sliding window: every attempt is
// recorded with its timestamp and attempts older than the window are
// pruned on each check. The Redis limiter uses fixed-window counters
// (INCR + conditional EXPIRE on first hit) so state can be shared across
// processes; key prefix:
//   - ak:rl: for the generic attempt counters
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the authkit module.
package rate
