// Package diag is the diagnostics side channel for authkit. Sanitized
// user-facing messages withhold detail; the full raw detail of every
// failure is emitted here instead, through an async dispatcher feeding a
// pluggable sink.
//
// # Delivery semantics
//
// The dispatcher is buffered. With DropIfFull set, events are discarded
// under backpressure and counted; otherwise Emit blocks until the buffer
// accepts the event or the caller's context is done. Close flushes the
// buffer before returning, giving the sink a bounded grace period.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling package.
//   - Decide what is safe to show a user (that is the sanitizer's job).
package diag
