package authkit

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookloop/authkit/internal/diag"
	"github.com/bookloop/authkit/internal/limiters"
	"github.com/bookloop/authkit/internal/rate"
	"github.com/bookloop/authkit/password"
	"github.com/bookloop/authkit/result"
)

// Service wraps the identity provider behind the Result-based API. Every
// fallible operation returns a Result carrying a taxonomy error; nothing
// here panics or throws. Construct it through the Builder.
type Service struct {
	provider  Provider
	cfg       Config
	policy    password.Policy
	gate      limiters.LoginGate
	limiter   rate.Limiter
	sanitizer *Sanitizer
	diag      *diag.Dispatcher
	metrics   *Metrics
	now       func() time.Time
}

// NewAttemptKey returns a fresh lockout key for one login form instance.
func NewAttemptKey() string {
	return uuid.NewString()
}

// Sanitize returns the user-safe message for an auth failure, logging the
// raw detail to diagnostics first.
func (s *Service) Sanitize(ctx context.Context, err error, authCtx AuthContext) string {
	return s.sanitizer.Sanitize(ctx, err, authCtx)
}

// Metrics exposes the service's metrics instance for exporters.
func (s *Service) Metrics() *Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}

// MetricsSnapshot returns a point-in-time copy of all service metrics.
func (s *Service) MetricsSnapshot() MetricsSnapshot {
	if s == nil || s.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return s.metrics.Snapshot()
}

// DiagDropped reports how many diagnostics events were dropped under
// backpressure.
func (s *Service) DiagDropped() uint64 {
	if s == nil {
		return 0
	}
	return s.diag.Dropped()
}

// Close stops background diagnostics delivery after draining.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.diag.Close()
}

func (s *Service) metricInc(id MetricID) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.Inc(id)
}

func (s *Service) emitDiag(ctx context.Context, eventType, flow, identityID string, success bool, cause error, metadata map[string]string) {
	raw := ""
	if cause != nil {
		raw = cause.Error()
	}
	s.diag.Emit(ctx, diag.Event{
		ID:         uuid.NewString(),
		Timestamp:  s.now(),
		EventType:  eventType,
		Flow:       flow,
		IdentityID: identityID,
		Success:    success,
		Error:      raw,
		Metadata:   metadata,
	})
}

// SignUp creates an account. The local password policy runs before the
// provider is contacted; policy failures surface as a Validation error
// with per-rule messages under the "password" field.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) result.Result[Identity] {
	if issues := s.policy.Check(input.Password); len(issues) > 0 {
		s.metricInc(MetricSignUpRejectedPolicy)
		appErr := NewValidation("password does not meet requirements", map[string][]string{
			"password": issues,
		})
		s.emitDiag(ctx, "sign_up", "signup", "", false, appErr, nil)
		return result.Err[Identity](appErr)
	}

	identity, _, err := s.provider.SignUp(ctx, input)
	if err != nil {
		appErr := s.mapProviderError(err, ContextSignup)
		s.metricInc(MetricSignUpFailure)
		s.emitDiag(ctx, "sign_up", "signup", "", false, err, nil)
		return result.Err[Identity](appErr)
	}
	if identity == nil {
		appErr := NewExternalService("identity provider", "sign-up returned no identity")
		s.metricInc(MetricSignUpFailure)
		s.emitDiag(ctx, "sign_up", "signup", "", false, appErr, nil)
		return result.Err[Identity](appErr)
	}

	s.metricInc(MetricSignUpSuccess)
	s.emitDiag(ctx, "sign_up", "signup", identity.ID, true, nil, nil)
	return result.Ok(*identity)
}

// SignIn authenticates with email and password, using the email as the
// lockout key. Use SignInWithAttemptKey to scope the lockout to one form
// instance instead.
func (s *Service) SignIn(ctx context.Context, email, pw string) result.Result[Session] {
	return s.SignInWithAttemptKey(ctx, email, pw, email)
}

// SignInWithAttemptKey authenticates with email and password. The attempt
// key scopes the consecutive-failure lockout; five failures lock the key
// for the configured duration regardless of credential correctness.
func (s *Service) SignInWithAttemptKey(ctx context.Context, email, pw, attemptKey string) result.Result[Session] {
	if s.metrics.LatencyEnabled() {
		start := s.now()
		defer func() {
			s.metrics.Observe(MetricSignInLatency, time.Since(start))
		}()
	}
	if attemptKey == "" {
		attemptKey = email
	}

	if s.gate != nil {
		allowed, remaining, err := s.gate.Allowed(ctx, attemptKey)
		if err == nil && !allowed {
			s.metricInc(MetricSignInRateLimited)
			appErr := NewRateLimit("too many sign-in attempts", remaining)
			s.emitDiag(ctx, "sign_in", "login", "", false, appErr, map[string]string{
				"reason": "locked_out",
			})
			return result.Err[Session](appErr)
		}
		// Gate backend failures fail open; lockout is soft friction, the
		// provider enforces the real limits.
	}
	if s.limiter != nil {
		if ok, err := s.limiter.Allow(ctx, attemptKey); err == nil && !ok {
			s.metricInc(MetricSignInRateLimited)
			appErr := NewRateLimit("too many sign-in attempts", s.cfg.RateLimit.Window)
			s.emitDiag(ctx, "sign_in", "login", "", false, appErr, map[string]string{
				"reason": "rate_limited",
			})
			return result.Err[Session](appErr)
		}
	}

	session, err := s.provider.SignInWithPassword(ctx, email, pw)
	if err != nil {
		if s.gate != nil {
			if locked, gateErr := s.gate.RecordFailure(ctx, attemptKey); gateErr == nil && locked {
				s.metricInc(MetricLockoutTriggered)
			}
		}
		appErr := s.mapProviderError(err, ContextLogin)
		s.metricInc(MetricSignInFailure)
		s.emitDiag(ctx, "sign_in", "login", "", false, err, nil)
		return result.Err[Session](appErr)
	}
	if session == nil {
		s.metricInc(MetricSignInFailure)
		appErr := NewExternalService("identity provider", "sign-in returned no session")
		s.emitDiag(ctx, "sign_in", "login", "", false, appErr, nil)
		return result.Err[Session](appErr)
	}

	if s.gate != nil {
		_ = s.gate.Reset(ctx, attemptKey)
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, attemptKey)
	}

	sess := *session
	s.fillExpiry(&sess)
	s.metricInc(MetricSignInSuccess)
	s.emitDiag(ctx, "sign_in", "login", sess.Identity.ID, true, nil, nil)
	return result.Ok(sess)
}

// SignInWithOAuth starts a social sign-in flow with the named provider.
// The provider completes the flow out of band; success here only means the
// handoff started.
func (s *Service) SignInWithOAuth(ctx context.Context, oauthProvider, redirectTo string) result.Result[result.Unit] {
	if err := s.provider.SignInWithOAuth(ctx, oauthProvider, redirectTo); err != nil {
		s.metricInc(MetricOAuthFailure)
		appErr := s.mapProviderError(err, ContextLogin)
		s.emitDiag(ctx, "oauth_start", "login", "", false, err, map[string]string{
			"oauth_provider": oauthProvider,
		})
		return result.Err[result.Unit](appErr)
	}
	s.metricInc(MetricOAuthStart)
	s.emitDiag(ctx, "oauth_start", "login", "", true, nil, map[string]string{
		"oauth_provider": oauthProvider,
	})
	return result.Ok(result.Unit{})
}

// SignOut ends the current session at the provider.
func (s *Service) SignOut(ctx context.Context) result.Result[result.Unit] {
	if err := s.provider.SignOut(ctx); err != nil {
		appErr := s.mapProviderError(err, ContextLogin)
		s.emitDiag(ctx, "sign_out", "logout", "", false, err, nil)
		return result.Err[result.Unit](appErr)
	}
	s.metricInc(MetricSignOut)
	s.emitDiag(ctx, "sign_out", "logout", "", true, nil, nil)
	return result.Ok(result.Unit{})
}

// ResetPassword asks the provider to send a password reset email. The
// outcome is identical whether or not the email has an account.
func (s *Service) ResetPassword(ctx context.Context, email string) result.Result[result.Unit] {
	if err := s.provider.ResetPasswordForEmail(ctx, email); err != nil {
		appErr := s.mapProviderError(err, ContextLogin)
		s.emitDiag(ctx, "password_reset_request", "login", "", false, err, nil)
		return result.Err[result.Unit](appErr)
	}
	s.metricInc(MetricPasswordResetRequested)
	s.emitDiag(ctx, "password_reset_request", "login", "", true, nil, nil)
	return result.Ok(result.Unit{})
}

// UpdatePassword changes the current user's password. The local policy
// runs first, the same one enforced at sign-up.
func (s *Service) UpdatePassword(ctx context.Context, newPassword string) result.Result[result.Unit] {
	if issues := s.policy.Check(newPassword); len(issues) > 0 {
		s.metricInc(MetricPasswordUpdateFailure)
		appErr := NewValidation("password does not meet requirements", map[string][]string{
			"password": issues,
		})
		s.emitDiag(ctx, "password_update", "account", "", false, appErr, nil)
		return result.Err[result.Unit](appErr)
	}

	identity, err := s.provider.UpdateUser(ctx, UserUpdate{Password: newPassword})
	if err != nil {
		s.metricInc(MetricPasswordUpdateFailure)
		appErr := s.mapProviderError(err, ContextSignup)
		s.emitDiag(ctx, "password_update", "account", "", false, err, nil)
		return result.Err[result.Unit](appErr)
	}

	identityID := ""
	if identity != nil {
		identityID = identity.ID
	}
	s.metricInc(MetricPasswordUpdated)
	s.emitDiag(ctx, "password_update", "account", identityID, true, nil, nil)
	return result.Ok(result.Unit{})
}

// ResendVerification asks the provider to re-send the sign-up
// verification email.
func (s *Service) ResendVerification(ctx context.Context, email string) result.Result[result.Unit] {
	if err := s.provider.Resend(ctx, email); err != nil {
		appErr := s.mapProviderError(err, ContextSignup)
		s.emitDiag(ctx, "verification_resend", "signup", "", false, err, nil)
		return result.Err[result.Unit](appErr)
	}
	s.metricInc(MetricVerificationResent)
	s.emitDiag(ctx, "verification_resend", "signup", "", true, nil, nil)
	return result.Ok(result.Unit{})
}

// mapProviderError translates a raw provider failure into the taxonomy.
// Rules run most-specific first so a 429 is never mistaken for bad
// credentials.
func (s *Service) mapProviderError(err error, authCtx AuthContext) *Error {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		if isNetworkError(err) {
			return NewNetwork("identity provider unreachable", "")
		}
		return NormalizeError(err)
	}

	msg := strings.ToLower(provErr.Message)
	switch {
	case provErr.Status == 429:
		return NewRateLimit(provErr.Message, 0)

	case provErr.Status >= 500:
		return NewExternalService("identity provider", provErr.Message)

	case containsAny(msg, "already registered", "already exists", "already been registered", "already in use"):
		return NewValidation(provErr.Message, map[string][]string{
			"email": {"an account with this email already exists"},
		})

	case strings.Contains(msg, "password") && containsAny(msg, "weak", "too short", "at least", "should contain"):
		return NewValidation(provErr.Message, map[string][]string{
			"password": {"password does not meet requirements"},
		})

	case containsAny(msg, "invalid login credentials", "invalid credentials", "email not confirmed", "not confirmed"):
		return NewAuthentication(provErr.Message)

	case authCtx == ContextSignup:
		return NewValidation(provErr.Message, nil)

	default:
		return NewAuthentication(provErr.Message)
	}
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
