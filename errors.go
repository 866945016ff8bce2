package authkit

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one member of the closed error taxonomy. Every failure
// that leaves this module carries exactly one Kind; there are no ad-hoc
// error shapes on the public surface.
type Kind uint8

const (
	// KindValidation covers rejected input, including password policy and
	// schema-level field failures.
	KindValidation Kind = iota
	// KindNotFound covers missing resources.
	KindNotFound
	// KindAuthentication covers failed or missing authentication.
	KindAuthentication
	// KindAuthorization covers authenticated-but-forbidden access.
	KindAuthorization
	// KindDatabase covers storage failures reported by collaborators.
	KindDatabase
	// KindNetwork covers transport-level failures reaching a collaborator.
	KindNetwork
	// KindRateLimit covers throttled or locked-out operations.
	KindRateLimit
	// KindConfiguration covers invalid or missing configuration.
	KindConfiguration
	// KindExternalService covers upstream collaborator failures.
	KindExternalService
	// KindBusinessLogic covers domain rule violations and is the fallback
	// for anything the normalizer cannot classify more precisely.
	KindBusinessLogic

	kindCount
)

var kindCodes = [kindCount]string{
	KindValidation:      "VALIDATION_ERROR",
	KindNotFound:        "NOT_FOUND",
	KindAuthentication:  "AUTHENTICATION_ERROR",
	KindAuthorization:   "AUTHORIZATION_ERROR",
	KindDatabase:        "DATABASE_ERROR",
	KindNetwork:         "NETWORK_ERROR",
	KindRateLimit:       "RATE_LIMIT_EXCEEDED",
	KindConfiguration:   "CONFIGURATION_ERROR",
	KindExternalService: "EXTERNAL_SERVICE_ERROR",
	KindBusinessLogic:   "BUSINESS_RULE_VIOLATION",
}

var kindStatus = [kindCount]int{
	KindValidation:      422,
	KindNotFound:        404,
	KindAuthentication:  401,
	KindAuthorization:   403,
	KindDatabase:        500,
	KindNetwork:         503,
	KindRateLimit:       429,
	KindConfiguration:   500,
	KindExternalService: 502,
	KindBusinessLogic:   400,
}

// Code returns the stable string identifier for the kind.
func (k Kind) Code() string {
	if k >= kindCount {
		return "UNKNOWN_ERROR"
	}
	return kindCodes[k]
}

// StatusClass returns the HTTP-like status category for the kind.
func (k Kind) StatusClass() int {
	if k >= kindCount {
		return 500
	}
	return kindStatus[k]
}

func (k Kind) String() string {
	return strings.ToLower(strings.TrimSuffix(k.Code(), "_ERROR"))
}

// Error is the single concrete error type of the taxonomy. It is
// constructed at the failure site, never mutated afterwards, and carries
// only the payload fields relevant to its Kind; the rest stay zero.
type Error struct {
	Kind     Kind
	Code     string
	Status   int
	Message  string
	Metadata map[string]string

	// Fields holds per-field message lists for KindValidation.
	Fields map[string][]string

	// Resource and ResourceID identify the subject of a KindNotFound.
	Resource   string
	ResourceID string

	// URL is the target of a failed KindNetwork operation.
	URL string

	// RetryAfter is the suggested wait for a KindRateLimit, zero if unknown.
	RetryAfter time.Duration

	// ConfigKey names the offending setting for KindConfiguration.
	ConfigKey string

	// Service names the upstream for KindExternalService.
	Service string

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As chains.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by Kind, and by Code when the target sets one.
// It lets callers write errors.Is(err, &Error{Kind: KindRateLimit}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

func newError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    kind.Code(),
		Status:  kind.StatusClass(),
		Message: message,
	}
}

// NewValidation creates a validation error with optional per-field
// message lists.
func NewValidation(message string, fields map[string][]string) *Error {
	e := newError(KindValidation, message)
	e.Fields = fields
	return e
}

// NewNotFound creates a not-found error for the named resource.
func NewNotFound(resource, id string) *Error {
	e := newError(KindNotFound, fmt.Sprintf("%s not found", resource))
	e.Resource = resource
	e.ResourceID = id
	return e
}

// NewAuthentication creates an authentication error.
func NewAuthentication(message string) *Error {
	return newError(KindAuthentication, message)
}

// NewAuthorization creates an authorization error.
func NewAuthorization(message string) *Error {
	return newError(KindAuthorization, message)
}

// NewDatabase creates a database error wrapping its cause.
func NewDatabase(message string, cause error) *Error {
	e := newError(KindDatabase, message)
	e.cause = cause
	return e
}

// NewNetwork creates a network error for the given target URL.
func NewNetwork(message, url string) *Error {
	e := newError(KindNetwork, message)
	e.URL = url
	return e
}

// NewRateLimit creates a rate-limit error with a suggested retry delay.
func NewRateLimit(message string, retryAfter time.Duration) *Error {
	e := newError(KindRateLimit, message)
	e.RetryAfter = retryAfter
	return e
}

// NewConfiguration creates a configuration error for the given key.
func NewConfiguration(message, key string) *Error {
	e := newError(KindConfiguration, message)
	e.ConfigKey = key
	return e
}

// NewExternalService creates an upstream-failure error for the named
// service.
func NewExternalService(service, message string) *Error {
	e := newError(KindExternalService, message)
	e.Service = service
	return e
}

// NewBusinessLogic creates a business-rule error.
func NewBusinessLogic(message string) *Error {
	return newError(KindBusinessLogic, message)
}
