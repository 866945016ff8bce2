// Package result provides the Result container used by every fallible
// operation in authkit instead of plain error returns with ad-hoc zero
// values.
//
// # Design
//
// Result[T] is an immutable sum of Success(T) and Failure(error). There is
// no third state and no hidden throw: transformations on a failure are
// no-ops on the value channel, and only [Result.MustGet] converts a failure
// back into a panic.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling package.
//   - Inspect or transform wrapped errors.
package result
