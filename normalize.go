package authkit

import (
	"errors"
	"fmt"
)

// FieldIssues is implemented by schema-validation failures that can report
// per-field message lists. NormalizeError folds such errors into a single
// KindValidation error.
type FieldIssues interface {
	error
	FieldIssues() map[string][]string
}

// NormalizeError converts any error into the taxonomy. It is idempotent:
// a *Error passes through unchanged. Schema-validation failures become a
// KindValidation error carrying the field map; everything else is wrapped
// as KindBusinessLogic with the original error preserved as the cause.
// A nil input stays nil.
func NormalizeError(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var fieldErr FieldIssues
	if errors.As(err, &fieldErr) {
		e := NewValidation("validation failed", fieldErr.FieldIssues())
		e.cause = err
		return e
	}

	e := NewBusinessLogic(err.Error())
	e.cause = err
	return e
}

// NormalizeRecovered converts a value recovered from a panic back into the
// taxonomy. It pairs with Result.MustGet, the only place this module
// reintroduces panicking control flow.
func NormalizeRecovered(v any) *Error {
	switch x := v.(type) {
	case nil:
		return nil
	case error:
		return NormalizeError(x)
	case string:
		return NewBusinessLogic(x)
	default:
		return NewBusinessLogic(fmt.Sprintf("unknown error: %v", x))
	}
}

// ShouldReport decides whether an error is forwarded to the monitoring
// collaborator. Server-class failures always report; of the client-class
// kinds only authentication and authorization do.
func ShouldReport(e *Error) bool {
	if e == nil {
		return false
	}
	if e.Status >= 500 {
		return true
	}
	if e.Status >= 400 {
		return e.Kind == KindAuthentication || e.Kind == KindAuthorization
	}
	return false
}

var userMessages = [kindCount]string{
	KindValidation:      "Please check your input and try again.",
	KindAuthentication:  "Please sign in to continue.",
	KindAuthorization:   "You don't have permission to do that.",
	KindDatabase:        "We couldn't save your changes. Please try again.",
	KindNetwork:         "Network error. Please check your connection and try again.",
	KindRateLimit:       "Too many attempts. Please wait a moment and try again.",
	KindConfiguration:   "Something went wrong. Please try again later.",
	KindExternalService: "A service we depend on is unavailable. Please try again later.",
	KindBusinessLogic:   "Something went wrong. Please try again.",
}

// UserMessage returns a canned, safe, user-facing string for the error.
// NotFound passes its own message through (resource names are already
// safe); every other kind is replaced by a fixed template so raw
// collaborator text never reaches the UI.
func UserMessage(e *Error) string {
	if e == nil {
		return ""
	}
	if e.Kind == KindNotFound {
		return e.Message
	}
	if e.Kind < kindCount && userMessages[e.Kind] != "" {
		return userMessages[e.Kind]
	}
	return userMessages[KindBusinessLogic]
}
