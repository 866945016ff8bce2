package authkit

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestKindCodesAndStatusClasses(t *testing.T) {
	cases := []struct {
		kind   Kind
		code   string
		status int
	}{
		{KindValidation, "VALIDATION_ERROR", 422},
		{KindNotFound, "NOT_FOUND", 404},
		{KindAuthentication, "AUTHENTICATION_ERROR", 401},
		{KindAuthorization, "AUTHORIZATION_ERROR", 403},
		{KindDatabase, "DATABASE_ERROR", 500},
		{KindNetwork, "NETWORK_ERROR", 503},
		{KindRateLimit, "RATE_LIMIT_EXCEEDED", 429},
		{KindConfiguration, "CONFIGURATION_ERROR", 500},
		{KindExternalService, "EXTERNAL_SERVICE_ERROR", 502},
		{KindBusinessLogic, "BUSINESS_RULE_VIOLATION", 400},
	}
	for _, tc := range cases {
		if got := tc.kind.Code(); got != tc.code {
			t.Errorf("kind %v code = %q, want %q", tc.kind, got, tc.code)
		}
		if got := tc.kind.StatusClass(); got != tc.status {
			t.Errorf("kind %v status = %d, want %d", tc.kind, got, tc.status)
		}
	}
}

func TestErrorIsMatchesByKind(t *testing.T) {
	err := NewRateLimit("slow down", 30*time.Second)
	wrapped := fmt.Errorf("sign-in: %w", err)

	if !errors.Is(wrapped, &Error{Kind: KindRateLimit}) {
		t.Fatal("expected wrapped rate-limit error to match by kind")
	}
	if errors.Is(wrapped, &Error{Kind: KindNetwork}) {
		t.Fatal("rate-limit error must not match network kind")
	}
}

func TestNormalizeErrorPassesTaxonomyThrough(t *testing.T) {
	orig := NewAuthentication("bad credentials")

	once := NormalizeError(orig)
	if once != orig {
		t.Fatal("normalizing a taxonomy error must return it unchanged")
	}
	twice := NormalizeError(once)
	if twice != once {
		t.Fatal("NormalizeError must be idempotent")
	}
}

type fakeSchemaError struct {
	fields map[string][]string
}

func (e *fakeSchemaError) Error() string { return "schema validation failed" }
func (e *fakeSchemaError) FieldIssues() map[string][]string {
	return e.fields
}

func TestNormalizeErrorFoldsFieldIssues(t *testing.T) {
	schemaErr := &fakeSchemaError{fields: map[string][]string{
		"email": {"must be a valid email"},
	}}

	normalized := NormalizeError(schemaErr)
	if normalized.Kind != KindValidation {
		t.Fatalf("expected validation kind, got %v", normalized.Kind)
	}
	if got := normalized.Fields["email"]; len(got) != 1 || got[0] != "must be a valid email" {
		t.Fatalf("unexpected field issues: %v", normalized.Fields)
	}
	if !errors.Is(normalized, schemaErr) {
		t.Fatal("original error must survive as the cause")
	}
}

func TestNormalizeErrorWrapsUnknown(t *testing.T) {
	plain := errors.New("boom")

	normalized := NormalizeError(plain)
	if normalized.Kind != KindBusinessLogic {
		t.Fatalf("expected business-logic fallback, got %v", normalized.Kind)
	}
	if !errors.Is(normalized, plain) {
		t.Fatal("original error must survive as the cause")
	}
	if NormalizeError(normalized) != normalized {
		t.Fatal("NormalizeError must be idempotent on the result")
	}
}

func TestNormalizeErrorNil(t *testing.T) {
	if NormalizeError(nil) != nil {
		t.Fatal("nil must normalize to nil")
	}
}

func TestNormalizeRecovered(t *testing.T) {
	if got := NormalizeRecovered("panic text"); got.Kind != KindBusinessLogic {
		t.Fatalf("string panic should be business-logic, got %v", got.Kind)
	}
	if got := NormalizeRecovered(NewNetwork("down", "")); got.Kind != KindNetwork {
		t.Fatalf("error panic should keep its kind, got %v", got.Kind)
	}
	if NormalizeRecovered(nil) != nil {
		t.Fatal("nil recover value must stay nil")
	}
}

func TestShouldReport(t *testing.T) {
	cases := []struct {
		err  *Error
		want bool
	}{
		{NewDatabase("write failed", errors.New("io")), true},
		{NewExternalService("identity provider", "503"), true},
		{NewConfiguration("missing key", "AUTHKIT_X"), true},
		{NewNetwork("unreachable", ""), true},
		{NewAuthentication("bad creds"), true},
		{NewAuthorization("forbidden"), true},
		{NewValidation("bad input", nil), false},
		{NewNotFound("book", "42"), false},
		{NewRateLimit("slow down", 0), false},
		{NewBusinessLogic("rule broken"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := ShouldReport(tc.err); got != tc.want {
			t.Errorf("ShouldReport(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestUserMessageNotFoundPassesThrough(t *testing.T) {
	err := NewNotFound("book", "42")
	if got := UserMessage(err); got != "book not found" {
		t.Fatalf("not-found message should pass through, got %q", got)
	}
}

func TestUserMessageReplacesRawText(t *testing.T) {
	err := NewDatabase("pq: connection refused to 10.0.0.3:5432", errors.New("dial tcp"))
	got := UserMessage(err)
	if got != "We couldn't save your changes. Please try again." {
		t.Fatalf("unexpected user message: %q", got)
	}
}
