package result

import "fmt"

// Result is a two-state container for a fallible operation: either a value
// or an error, never both and never neither. The zero value is a success
// holding the zero value of T.
//
// Failures are opaque to value transformations: [Map] and [FlatMap] pass a
// failed Result through untouched. The only way back into panicking control
// flow is [Result.MustGet], which callers use deliberately at boundaries.
type Result[T any] struct {
	value  T
	err    error
	failed bool
}

// Unit is the value type for operations that succeed without producing
// anything (sign-out, password reset requests, and so on).
type Unit struct{}

// Ok wraps a value in a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps an error in a failed Result. The error must be non-nil; a nil
// error still produces a failed Result whose Err returns nil, which callers
// should treat as a programming mistake at the construction site.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err, failed: true}
}

// IsOK reports whether the Result holds a value.
func (r Result[T]) IsOK() bool {
	return !r.failed
}

// IsFailure reports whether the Result holds an error.
func (r Result[T]) IsFailure() bool {
	return r.failed
}

// Get returns the wrapped value and whether it is present.
func (r Result[T]) Get() (T, bool) {
	return r.value, !r.failed
}

// Err returns the wrapped error, or nil for a success.
func (r Result[T]) Err() error {
	if !r.failed {
		return nil
	}
	return r.err
}

// GetOrElse returns the wrapped value, or fallback when the Result failed.
func (r Result[T]) GetOrElse(fallback T) T {
	if r.failed {
		return fallback
	}
	return r.value
}

// MustGet returns the wrapped value or panics with the wrapped error.
// This is the single sanctioned escape hatch from Result back into
// panicking control flow; recover the value with NormalizeRecovered at
// whatever boundary chose to call it.
func (r Result[T]) MustGet() T {
	if r.failed {
		if r.err != nil {
			panic(r.err)
		}
		panic(fmt.Errorf("result: failed with nil error"))
	}
	return r.value
}

// Map applies f to the value of a successful Result. A failed Result is
// returned as the same failure; f is never called for it.
//
// Map is a package function rather than a method because Go methods cannot
// introduce new type parameters.
func Map[T, U any](r Result[T], f func(T) U) Result[U] {
	if r.failed {
		return Result[U]{err: r.err, failed: true}
	}
	return Ok(f(r.value))
}

// FlatMap applies f to the value of a successful Result, flattening the
// returned Result. A failed Result propagates untouched.
func FlatMap[T, U any](r Result[T], f func(T) Result[U]) Result[U] {
	if r.failed {
		return Result[U]{err: r.err, failed: true}
	}
	return f(r.value)
}

// Combine collapses a slice of Results into a single Result of the values,
// preserving input order. It short-circuits on the first failure. An empty
// or nil input yields a success holding an empty slice.
func Combine[T any](rs []Result[T]) Result[[]T] {
	values := make([]T, 0, len(rs))
	for _, r := range rs {
		if r.failed {
			return Result[[]T]{err: r.err, failed: true}
		}
		values = append(values, r.value)
	}
	return Ok(values)
}
