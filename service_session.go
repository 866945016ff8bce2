package authkit

import (
	"context"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bookloop/authkit/result"
)

// GetSession probes the provider for the current session. Probing never
// fails: any error resolves to nil, meaning "no session".
func (s *Service) GetSession(ctx context.Context) *Session {
	session, err := s.provider.GetSession(ctx)
	if err != nil || session == nil {
		return nil
	}
	sess := *session
	s.fillExpiry(&sess)
	return &sess
}

// GetIdentity probes the provider for the current identity. Like
// GetSession, any error resolves to nil.
func (s *Service) GetIdentity(ctx context.Context) *Identity {
	identity, err := s.provider.GetUser(ctx)
	if err != nil {
		return nil
	}
	return identity
}

// IsAuthenticated reports whether a session currently exists.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	return s.GetSession(ctx) != nil
}

// RefreshSession rotates the current session's credentials.
func (s *Service) RefreshSession(ctx context.Context) result.Result[Session] {
	session, err := s.provider.RefreshSession(ctx)
	if err != nil {
		s.metricInc(MetricSessionRefreshFailure)
		appErr := s.mapProviderError(err, ContextLogin)
		s.emitDiag(ctx, "session_refresh", "session", "", false, err, nil)
		return result.Err[Session](appErr)
	}
	if session == nil {
		s.metricInc(MetricSessionRefreshFailure)
		appErr := NewExternalService("identity provider", "refresh returned no session")
		s.emitDiag(ctx, "session_refresh", "session", "", false, appErr, nil)
		return result.Err[Session](appErr)
	}

	sess := *session
	s.fillExpiry(&sess)
	s.metricInc(MetricSessionRefreshSuccess)
	s.emitDiag(ctx, "session_refresh", "session", sess.Identity.ID, true, nil, nil)
	return result.Ok(sess)
}

// Subscribe registers fn for provider state-change events and returns an
// unsubscribe function. The subscription drains the provider's event
// stream on a dedicated goroutine; unsubscribing releases the stream and
// stops the goroutine. Hold the unsubscribe handle at the composition
// root and release it on teardown.
func (s *Service) Subscribe(fn func(AuthEvent)) func() {
	events, release := s.provider.AuthEvents()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for event := range events {
			fn(event)
		}
	}()

	return func() {
		release()
		<-done
	}
}

// fillExpiry derives ExpiresAt from the access token when the provider
// did not set it. The token is parsed without signature verification;
// the client only needs the expiry claim, trust stays with the provider.
func (s *Service) fillExpiry(sess *Session) {
	if sess == nil || !sess.ExpiresAt.IsZero() || sess.AccessToken == "" {
		return
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(sess.AccessToken, &claims); err != nil {
		return
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
}
