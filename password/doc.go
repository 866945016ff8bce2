// Package password provides the client-side password security layer:
// a strength scorer, a common-password blocklist, and the canonical
// sign-up policy.
//
// # Architecture boundaries
//
// Hashing and credential storage are the identity provider's job and are
// deliberately absent here. This package only decides whether a password
// is acceptable to send and how to coach the user toward a better one.
//
// # What this package must NOT do
//
//   - Perform I/O or import any authkit sibling package.
//   - Keep per-user state (rate limiting lives in internal/rate).
package password
