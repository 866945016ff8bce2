package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bookloop/authkit/result"
)

// fakeProvider scripts provider responses per operation and counts calls.
type fakeProvider struct {
	mu sync.Mutex

	signUpErr  error
	signInErr  error
	signInN    int
	session    *Session
	identity   *Identity
	sessionErr error
	refreshErr error
	oauthErr   error
	signOutErr error

	events chan AuthEvent
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		events: make(chan AuthEvent, 8),
	}
}

func (p *fakeProvider) SignUp(context.Context, SignUpInput) (*Identity, *Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.signUpErr != nil {
		return nil, nil, p.signUpErr
	}
	identity := p.identity
	if identity == nil {
		identity = &Identity{ID: "id-1", Email: "reader@example.com"}
	}
	return identity, nil, nil
}

func (p *fakeProvider) SignInWithPassword(context.Context, string, string) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signInN++
	if p.signInErr != nil {
		return nil, p.signInErr
	}
	if p.session != nil {
		return p.session, nil
	}
	return &Session{
		AccessToken: "access",
		Identity:    Identity{ID: "id-1", Email: "reader@example.com"},
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

func (p *fakeProvider) signInCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.signInN
}

func (p *fakeProvider) SignInWithOAuth(context.Context, string, string) error { return p.oauthErr }
func (p *fakeProvider) SignOut(context.Context) error                         { return p.signOutErr }
func (p *fakeProvider) ResetPasswordForEmail(context.Context, string) error   { return nil }

func (p *fakeProvider) UpdateUser(context.Context, UserUpdate) (*Identity, error) {
	return &Identity{ID: "id-1"}, nil
}

func (p *fakeProvider) GetSession(context.Context) (*Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	return p.session, nil
}

func (p *fakeProvider) GetUser(context.Context) (*Identity, error) {
	if p.identity == nil {
		return nil, &ProviderError{Message: "not authenticated", Status: 401}
	}
	return p.identity, nil
}

func (p *fakeProvider) RefreshSession(context.Context) (*Session, error) {
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.session, nil
}

func (p *fakeProvider) Resend(context.Context, string) error { return nil }

func (p *fakeProvider) AuthEvents() (<-chan AuthEvent, func()) {
	var once sync.Once
	return p.events, func() {
		once.Do(func() { close(p.events) })
	}
}

func newTestService(t *testing.T, provider Provider, mutate func(*Config)) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Diag.Enabled = false
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}
	svc, err := New().WithConfig(cfg).WithProvider(provider).Build()
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc
}

func TestSignInRateLimitedProviderError(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = &ProviderError{Message: "Too many requests", Status: 429}
	svc := newTestService(t, provider, nil)

	res := svc.SignIn(context.Background(), "reader@example.com", "pw")
	if !res.IsFailure() {
		t.Fatal("expected failure for 429")
	}
	if !errors.Is(res.Err(), &Error{Kind: KindRateLimit}) {
		t.Fatalf("expected rate-limit kind, got %v", res.Err())
	}
}

func TestProviderErrorMappingPriority(t *testing.T) {
	svc := newTestService(t, newFakeProvider(), nil)

	cases := []struct {
		name string
		err  error
		ctx  AuthContext
		kind Kind
	}{
		{"429 beats message", &ProviderError{Message: "Invalid login credentials", Status: 429}, ContextLogin, KindRateLimit},
		{"5xx", &ProviderError{Message: "upstream exploded", Status: 503}, ContextLogin, KindExternalService},
		{"duplicate account", &ProviderError{Message: "User already registered", Status: 422}, ContextSignup, KindValidation},
		{"weak password", &ProviderError{Message: "Password should contain at least 8 characters", Status: 422}, ContextSignup, KindValidation},
		{"invalid credentials", &ProviderError{Message: "Invalid login credentials", Status: 400}, ContextLogin, KindAuthentication},
		{"unconfirmed email", &ProviderError{Message: "Email not confirmed", Status: 400}, ContextLogin, KindAuthentication},
		{"other 4xx sign-in", &ProviderError{Message: "odd failure", Status: 400}, ContextLogin, KindAuthentication},
		{"other 4xx sign-up", &ProviderError{Message: "odd failure", Status: 400}, ContextSignup, KindValidation},
		{"no status sign-in", &ProviderError{Message: "odd failure"}, ContextLogin, KindAuthentication},
		{"context deadline", context.DeadlineExceeded, ContextLogin, KindNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.mapProviderError(tc.err, tc.ctx)
			if got.Kind != tc.kind {
				t.Fatalf("got kind %v, want %v", got.Kind, tc.kind)
			}
		})
	}
}

func TestSignUpRejectedByLocalPolicy(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(t, provider, nil)

	res := svc.SignUp(context.Background(), SignUpInput{
		Email:    "reader@example.com",
		Password: "short",
	})
	if !res.IsFailure() {
		t.Fatal("expected policy rejection")
	}
	var appErr *Error
	if !errors.As(res.Err(), &appErr) || appErr.Kind != KindValidation {
		t.Fatalf("expected validation error, got %v", res.Err())
	}
	if len(appErr.Fields["password"]) == 0 {
		t.Fatal("expected per-rule password messages")
	}
}

func TestSignUpSuccess(t *testing.T) {
	svc := newTestService(t, newFakeProvider(), nil)

	res := svc.SignUp(context.Background(), SignUpInput{
		Email:    "reader@example.com",
		Password: "vK7!mQ2&xZ5@wT8%",
	})
	if res.IsFailure() {
		t.Fatalf("unexpected failure: %v", res.Err())
	}
	identity, _ := res.Get()
	if identity.Email != "reader@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestSignInLockoutAfterConsecutiveFailures(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = &ProviderError{Message: "Invalid login credentials", Status: 400}
	svc := newTestService(t, provider, func(cfg *Config) {
		cfg.Lockout.Threshold = 2
	})

	ctx := context.Background()
	key := NewAttemptKey()

	for i := 0; i < 2; i++ {
		res := svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)
		if !errors.Is(res.Err(), &Error{Kind: KindAuthentication}) {
			t.Fatalf("attempt %d: expected authentication error, got %v", i+1, res.Err())
		}
	}

	res := svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)
	if !errors.Is(res.Err(), &Error{Kind: KindRateLimit}) {
		t.Fatalf("expected lockout after threshold, got %v", res.Err())
	}
	if got := provider.signInCalls(); got != 2 {
		t.Fatalf("locked-out attempt must not reach the provider, calls=%d", got)
	}
	if svc.MetricsSnapshot().Counters[MetricLockoutTriggered] != 1 {
		t.Fatal("expected one lockout-triggered metric")
	}
}

func TestSignInSuccessResetsLockout(t *testing.T) {
	provider := newFakeProvider()
	provider.signInErr = &ProviderError{Message: "Invalid login credentials", Status: 400}
	svc := newTestService(t, provider, func(cfg *Config) {
		cfg.Lockout.Threshold = 3
	})

	ctx := context.Background()
	key := NewAttemptKey()

	svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)
	svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)

	provider.mu.Lock()
	provider.signInErr = nil
	provider.mu.Unlock()

	if res := svc.SignInWithAttemptKey(ctx, "reader@example.com", "good", key); res.IsFailure() {
		t.Fatalf("expected success, got %v", res.Err())
	}

	// The streak restarted; two more failures must not lock.
	provider.mu.Lock()
	provider.signInErr = &ProviderError{Message: "Invalid login credentials", Status: 400}
	provider.mu.Unlock()

	svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)
	res := svc.SignInWithAttemptKey(ctx, "reader@example.com", "bad", key)
	if !errors.Is(res.Err(), &Error{Kind: KindAuthentication}) {
		t.Fatalf("streak should have restarted, got %v", res.Err())
	}
}

func TestProbingOperationsResolveToNil(t *testing.T) {
	provider := newFakeProvider()
	provider.sessionErr = errors.New("transport down")
	svc := newTestService(t, provider, nil)

	if got := svc.GetSession(context.Background()); got != nil {
		t.Fatalf("probe error must resolve to nil, got %+v", got)
	}
	if got := svc.GetIdentity(context.Background()); got != nil {
		t.Fatalf("probe error must resolve to nil, got %+v", got)
	}
	if svc.IsAuthenticated(context.Background()) {
		t.Fatal("no session means not authenticated")
	}
}

func TestSessionExpiryDerivedFromToken(t *testing.T) {
	// Unsigned token with exp=4102444800 (2100-01-01T00:00:00Z).
	const token = "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJleHAiOjQxMDI0NDQ4MDB9."

	provider := newFakeProvider()
	provider.session = &Session{
		AccessToken: token,
		Identity:    Identity{ID: "id-1"},
	}
	svc := newTestService(t, provider, nil)

	sess := svc.GetSession(context.Background())
	if sess == nil {
		t.Fatal("expected a session")
	}
	want := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if !sess.ExpiresAt.Equal(want) {
		t.Fatalf("expiry = %v, want %v", sess.ExpiresAt, want)
	}
}

func TestRefreshSession(t *testing.T) {
	provider := newFakeProvider()
	provider.session = &Session{
		AccessToken: "rotated",
		Identity:    Identity{ID: "id-1"},
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	svc := newTestService(t, provider, nil)

	res := svc.RefreshSession(context.Background())
	if res.IsFailure() {
		t.Fatalf("unexpected failure: %v", res.Err())
	}
	sess, _ := res.Get()
	if sess.AccessToken != "rotated" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	provider.refreshErr = &ProviderError{Message: "session expired", Status: 401}
	if res := svc.RefreshSession(context.Background()); !res.IsFailure() {
		t.Fatal("expected failure when provider rejects refresh")
	}
}

func TestSubscribeDeliversAndReleases(t *testing.T) {
	provider := newFakeProvider()
	svc := newTestService(t, provider, nil)

	received := make(chan AuthEvent, 1)
	unsubscribe := svc.Subscribe(func(event AuthEvent) {
		received <- event
	})

	provider.events <- AuthEvent{Kind: EventSignedIn, Session: &Session{}}

	select {
	case event := <-received:
		if event.Kind != EventSignedIn {
			t.Fatalf("unexpected event kind %q", event.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	unsubscribe()
}

func TestUpdatePasswordEnforcesPolicy(t *testing.T) {
	svc := newTestService(t, newFakeProvider(), nil)

	res := svc.UpdatePassword(context.Background(), "weak")
	if !errors.Is(res.Err(), &Error{Kind: KindValidation}) {
		t.Fatalf("expected validation error, got %v", res.Err())
	}

	if res := svc.UpdatePassword(context.Background(), "vK7!mQ2&xZ5@wT8%"); res.IsFailure() {
		t.Fatalf("unexpected failure: %v", res.Err())
	}
}

func TestVoidOperations(t *testing.T) {
	svc := newTestService(t, newFakeProvider(), nil)
	ctx := context.Background()

	ops := []result.Result[result.Unit]{
		svc.SignInWithOAuth(ctx, "google", ""),
		svc.SignOut(ctx),
		svc.ResetPassword(ctx, "reader@example.com"),
		svc.ResendVerification(ctx, "reader@example.com"),
	}
	for i, res := range ops {
		if res.IsFailure() {
			t.Fatalf("operation %d failed: %v", i, res.Err())
		}
	}
}
