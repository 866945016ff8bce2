// Package limiters builds domain policies on top of the counting
// primitives in internal/rate. The only policy today is the sign-in
// lockout: a fixed number of consecutive failures locks the attempt key
// for a fixed duration regardless of credential correctness.
//
// Lockout state is a UX deterrent, not brute-force protection; the real
// limits live in the identity provider. The in-memory backend resets on
// process restart, which is acceptable for that role.
package limiters
