package authkit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bookloop/authkit/internal/diag"
)

func TestLoginCausesAreIndistinguishable(t *testing.T) {
	invalid := SanitizeAuthError(errors.New("Invalid login credentials"), ContextLogin)
	missing := SanitizeAuthError(errors.New("User not found"), ContextLogin)

	if invalid != missing {
		t.Fatalf("login failure strings differ: %q vs %q", invalid, missing)
	}
	if invalid != MessageLoginFailed {
		t.Fatalf("expected the fixed login-failure string, got %q", invalid)
	}
	for _, forbidden := range []string{"credentials", "Invalid", "not found"} {
		if strings.Contains(invalid, forbidden) {
			t.Fatalf("login message leaks %q: %q", forbidden, invalid)
		}
	}
}

func TestSignupDuplicateDoesNotConfirmExistence(t *testing.T) {
	got := SanitizeAuthError(errors.New("Email already exists"), ContextSignup)

	if got != MessageEmailInUse {
		t.Fatalf("expected the duplicate-email string, got %q", got)
	}
	for _, forbidden := range []string{"exists", "already", "@"} {
		if strings.Contains(got, forbidden) {
			t.Fatalf("signup message leaks %q: %q", forbidden, got)
		}
	}
}

func TestSanitizeClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		ctx  AuthContext
		want string
	}{
		{"network text", errors.New("fetch failed: connection refused"), ContextLogin, MessageNetworkFailure},
		{"network kind", NewNetwork("provider down", ""), ContextSignup, MessageNetworkFailure},
		{"rate limited", errors.New("Too many requests"), ContextLogin, MessageRateLimited},
		{"rate kind", NewRateLimit("throttled", time.Minute), ContextLogin, MessageRateLimited},
		{"weak password", errors.New("Password should contain at least 8 characters"), ContextSignup, MessageWeakPassword},
		{"oauth", errors.New("OAuth provider is not enabled"), ContextLogin, MessageOAuthFailure},
		{"signup generic", errors.New("something odd"), ContextSignup, MessageSignupFailed},
		{"login generic", errors.New("something odd"), ContextLogin, MessageLoginFailed},
		{"nil error", nil, ContextLogin, MessageUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeAuthError(tc.err, tc.ctx); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSanitizerLogsRawDetailBeforeReturning(t *testing.T) {
	sink := diag.NewChannelSink(4)
	dispatcher := diag.NewDispatcher(diag.Config{Enabled: true, BufferSize: 4}, sink)
	defer dispatcher.Close()

	s := NewSanitizer(dispatcher)
	raw := errors.New("Invalid login credentials for reader@example.com")

	got := s.Sanitize(context.Background(), raw, ContextLogin)
	if got != MessageLoginFailed {
		t.Fatalf("unexpected sanitized string: %q", got)
	}

	select {
	case event := <-sink.Events():
		if event.EventType != "auth_error_sanitized" {
			t.Fatalf("unexpected event type %q", event.EventType)
		}
		if event.Error != raw.Error() {
			t.Fatalf("diagnostics lost raw detail: %q", event.Error)
		}
		if event.Flow != "login" {
			t.Fatalf("unexpected flow %q", event.Flow)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no diagnostics event emitted")
	}
}
