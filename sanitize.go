package authkit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bookloop/authkit/internal/diag"
	"github.com/google/uuid"
)

// AuthContext selects which flow an error is being sanitized for.
type AuthContext uint8

const (
	// ContextLogin sanitizes sign-in failures.
	ContextLogin AuthContext = iota
	// ContextSignup sanitizes sign-up failures.
	ContextSignup
)

// The complete outward vocabulary. Nothing else is ever shown for an auth
// failure, and none of these strings may reveal whether an account exists.
const (
	// MessageLoginFailed is shown for every unsuccessful sign-in that is
	// not a network, rate-limit, or OAuth failure. "Invalid credentials"
	// and "user not found" both land here; distinguishing them would let
	// an observer probe which emails have accounts.
	MessageLoginFailed = "We couldn't sign you in. Please check your email and password and try again."
	// MessageSignupFailed is the generic sign-up failure.
	MessageSignupFailed = "We couldn't create your account. Please try again."
	// MessageEmailInUse is shown when sign-up hits a duplicate account.
	// It deliberately reads like guidance, not confirmation.
	MessageEmailInUse = "This email can't be used to create a new account. Try signing in, or use a different email."
	// MessageNetworkFailure is shown when the provider was unreachable.
	MessageNetworkFailure = "Network error. Please check your connection and try again."
	// MessageRateLimited is shown for throttled or locked-out attempts.
	MessageRateLimited = "Too many attempts. Please wait a few minutes and try again."
	// MessageWeakPassword is shown when the provider or local policy
	// rejects the password.
	MessageWeakPassword = "Please choose a stronger password."
	// MessageOAuthFailure is shown when a social sign-in could not start
	// or complete.
	MessageOAuthFailure = "We couldn't sign you in with that provider. Please try again."
	// MessageUnexpected is the fallback for anything unclassified.
	MessageUnexpected = "Something went wrong. Please try again."
)

// SanitizeAuthError maps any raw auth failure to one string from the fixed
// vocabulary above. It is pure; detail never influences the output beyond
// coarse classification, and in the login context an invalid-credentials
// cause and an unknown-account cause produce the identical string.
func SanitizeAuthError(err error, authCtx AuthContext) string {
	if err == nil {
		return MessageUnexpected
	}

	msg := strings.ToLower(err.Error())
	var appErr *Error
	hasApp := errors.As(err, &appErr)

	switch {
	case hasApp && appErr.Kind == KindNetwork,
		containsAny(msg, "network", "connection", "timeout", "timed out", "unreachable", "fetch failed"):
		return MessageNetworkFailure

	case hasApp && appErr.Kind == KindRateLimit,
		containsAny(msg, "too many requests", "rate limit", "locked out"):
		return MessageRateLimited

	case strings.Contains(msg, "password") && containsAny(msg, "weak", "too short", "at least", "should contain"):
		return MessageWeakPassword

	case containsAny(msg, "oauth", "provider is not enabled", "unsupported provider"):
		return MessageOAuthFailure
	}

	if authCtx == ContextSignup {
		if containsAny(msg, "already registered", "already exists", "already been registered", "already in use", "taken") {
			return MessageEmailInUse
		}
		return MessageSignupFailed
	}
	if authCtx == ContextLogin {
		return MessageLoginFailed
	}
	return MessageUnexpected
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Sanitizer pairs the pure vocabulary mapping with the diagnostics side
// channel: the raw error is logged with full detail before the sanitized
// string is returned, so detail is withheld from the UI but never lost.
type Sanitizer struct {
	diag *diag.Dispatcher
	now  func() time.Time
}

// NewSanitizer creates a Sanitizer. A nil dispatcher is valid; raw detail
// is then dropped rather than withheld, which is only acceptable in tests.
func NewSanitizer(d *diag.Dispatcher) *Sanitizer {
	return &Sanitizer{diag: d, now: time.Now}
}

// Sanitize logs the raw error to diagnostics and returns the outward
// string for it.
func (s *Sanitizer) Sanitize(ctx context.Context, err error, authCtx AuthContext) string {
	flow := "login"
	if authCtx == ContextSignup {
		flow = "signup"
	}
	raw := ""
	if err != nil {
		raw = err.Error()
	}
	s.diag.Emit(ctx, diag.Event{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		EventType: "auth_error_sanitized",
		Flow:      flow,
		Success:   false,
		Error:     raw,
	})
	return SanitizeAuthError(err, authCtx)
}
