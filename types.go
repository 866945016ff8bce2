package authkit

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/bookloop/authkit/internal/diag"
)

// Identity is the provider's user record. The client only caches a
// read-only copy; the identity provider stays the source of truth.
type Identity struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// Session is a time-bounded authorization artifact tied to one identity.
// The client holds it only transiently and never persists it.
type Session struct {
	AccessToken  string
	RefreshToken string
	Identity     Identity
	ExpiresAt    time.Time
}

// Profile carries the display fields attached to an identity. It is
// created lazily on first authenticated access when absent.
type Profile struct {
	ID        string
	Username  string
	FullName  string
	AvatarURL string
	Bio       string
	Role      string
}

// AuthEventKind discriminates provider state-change events. Kinds outside
// this set are delivered but ignored by the store.
type AuthEventKind string

const (
	// EventSignedIn signals a new authenticated session.
	EventSignedIn AuthEventKind = "SIGNED_IN"
	// EventSignedOut signals the session ended.
	EventSignedOut AuthEventKind = "SIGNED_OUT"
	// EventTokenRefreshed signals the session credentials rotated.
	EventTokenRefreshed AuthEventKind = "TOKEN_REFRESHED"
)

// AuthEvent is one provider state-change notification. Session is nil for
// signed-out events.
type AuthEvent struct {
	Kind    AuthEventKind
	Session *Session
}

// ProviderError is the raw error shape surfaced by the identity provider.
// Status is zero when the provider reported no HTTP-like status.
type ProviderError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.Status, e.Message)
	}
	return "provider error: " + e.Message
}

// SignUpInput is the input for [Provider.SignUp]. Data carries optional
// profile fields forwarded verbatim to the provider.
type SignUpInput struct {
	Email    string
	Password string
	Data     map[string]string
}

// UserUpdate is the input for [Provider.UpdateUser]. Only the password can
// be changed through this client.
type UserUpdate struct {
	Password string
}

// Provider is the logical contract of the external identity provider.
// Implementations translate to whatever transport the deployment uses;
// this package only consumes the operations below. Errors should be
// *ProviderError where a status or raw message is known.
type Provider interface {
	SignUp(ctx context.Context, input SignUpInput) (*Identity, *Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignInWithOAuth(ctx context.Context, provider, redirectTo string) error
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email string) error
	UpdateUser(ctx context.Context, update UserUpdate) (*Identity, error)
	GetSession(ctx context.Context) (*Session, error)
	GetUser(ctx context.Context) (*Identity, error)
	RefreshSession(ctx context.Context) (*Session, error)
	Resend(ctx context.Context, email string) error

	// AuthEvents returns the provider's state-change stream and a release
	// function. Releasing closes the channel; callers subscribe once at
	// startup and release on teardown.
	AuthEvents() (<-chan AuthEvent, func())
}

// Telemetry is the analytics collaborator. All methods are fire-and-forget;
// implementations must never propagate failures to the caller.
type Telemetry interface {
	Identify(id string, traits map[string]any)
	Track(event string, properties map[string]any)
	Reset()
}

// CacheKey names a data-fetch cache family keyed by identity.
type CacheKey string

const (
	// CacheLikedItems holds the per-user liked-books listing.
	CacheLikedItems CacheKey = "liked-items"
	// CacheLikeMembership holds per-book like-membership lookups.
	CacheLikeMembership CacheKey = "like-membership"
)

// CacheInvalidator drops cached query results for the given key families.
// Invalidation runs synchronously on every auth state transition so stale
// per-user data is never visible across identities.
type CacheInvalidator interface {
	Invalidate(keys ...CacheKey)
}

// ProfileStore fetches the profile for an identity, creating it when the
// identity has none yet.
type ProfileStore interface {
	GetOrCreate(ctx context.Context, identity Identity) (*Profile, error)
}

// Storage is the persisted key-value collaborator. String keyed, string
// valued. Only UI preferences go through it; auth state never does.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// DiagEvent is a structured diagnostics record emitted by the service.
type DiagEvent = diag.Event

// DiagSink receives [DiagEvent] values from the diagnostics dispatcher.
type DiagSink = diag.Sink

// NoOpSink is a [DiagSink] that silently discards all events.
type NoOpSink = diag.NoOpSink

// ChannelSink is a buffered channel-based [DiagSink].
type ChannelSink = diag.ChannelSink

// JSONWriterSink is a [DiagSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = diag.JSONWriterSink

// ZapSink is a [DiagSink] that forwards events to a zap logger.
type ZapSink = diag.ZapSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return diag.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return diag.NewJSONWriterSink(w)
}

// NewZapSink creates a [ZapSink] that logs to logger.
func NewZapSink(logger *zap.Logger) *ZapSink {
	return diag.NewZapSink(logger)
}
