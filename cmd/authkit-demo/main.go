// Package main walks through the auth subsystem end to end with an
// in-memory identity provider: sign-up, a failed and a successful
// sign-in, session adoption by the store, and logout.
//
// Run:
//
//	go run ./cmd/authkit-demo
//
// Configuration comes from AUTHKIT_* environment variables layered over
// the defaults; see authkit.ConfigFromEnv.
package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.uber.org/zap"

	authkit "github.com/bookloop/authkit"
)

func main() {
	ctx := context.Background()

	cfg, err := authkit.ConfigFromEnv()
	if err != nil {
		log.Fatal("config: ", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	service, err := authkit.New().
		WithConfig(cfg).
		WithProvider(newMemoryProvider()).
		WithDiagSink(authkit.NewZapSink(logger)).
		Build()
	if err != nil {
		log.Fatal("build: ", err)
	}
	defer service.Close()

	store := authkit.NewStore(service, authkit.StoreDeps{
		Profiles:  memoryProfiles{},
		Cache:     loggingCache{logger: logger},
		Telemetry: authkit.NewThrottledTelemetry(nil, cfg.Telemetry),
	})
	store.Initialize(ctx)
	defer store.Close()

	// Sign up a reader.
	signUp := service.SignUp(ctx, authkit.SignUpInput{
		Email:    "reader@example.com",
		Password: "vK7!mQ2&xZ5@wT8%",
	})
	if signUp.IsFailure() {
		log.Fatal("sign-up: ", signUp.Err())
	}
	fmt.Println("signed up:", signUp.GetOrElse(authkit.Identity{}).Email)

	// A wrong password shows the sanitized outward message; the raw
	// detail goes to the zap diagnostics sink only.
	if res := service.SignIn(ctx, "reader@example.com", "wrong"); res.IsFailure() {
		fmt.Println("sign-in failed:", service.Sanitize(ctx, res.Err(), authkit.ContextLogin))
	}

	signIn := service.SignIn(ctx, "reader@example.com", "vK7!mQ2&xZ5@wT8%")
	if signIn.IsFailure() {
		log.Fatal("sign-in: ", signIn.Err())
	}
	session := signIn.GetOrElse(authkit.Session{})
	store.SetSession(ctx, &session)

	state := store.State()
	fmt.Printf("authenticated=%v identity=%s\n", state.IsAuthenticated, state.IdentityID)

	if err := store.Logout(ctx); err != nil {
		log.Fatal("logout: ", err)
	}
	fmt.Println("anonymous again:", store.State().IsAnonymous)

	snapshot := service.MetricsSnapshot()
	fmt.Printf("sign-ins ok=%d failed=%d\n",
		snapshot.Counters[authkit.MetricSignInSuccess],
		snapshot.Counters[authkit.MetricSignInFailure])
}

// memoryProvider is a demo-only identity provider keeping accounts and
// the current session in process memory.
type memoryProvider struct {
	mu        sync.Mutex
	passwords map[string]string
	session   *authkit.Session
	events    chan authkit.AuthEvent
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{
		passwords: make(map[string]string),
		events:    make(chan authkit.AuthEvent, 8),
	}
}

func (p *memoryProvider) SignUp(_ context.Context, input authkit.SignUpInput) (*authkit.Identity, *authkit.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.passwords[input.Email]; exists {
		return nil, nil, &authkit.ProviderError{Message: "User already registered", Status: 422}
	}
	p.passwords[input.Email] = input.Password
	identity := &authkit.Identity{ID: "id-" + input.Email, Email: input.Email, CreatedAt: time.Now()}
	return identity, nil, nil
}

func (p *memoryProvider) SignInWithPassword(_ context.Context, email, password string) (*authkit.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	stored, ok := p.passwords[email]
	if !ok || stored != password {
		return nil, &authkit.ProviderError{Message: "Invalid login credentials", Status: 400}
	}
	session := &authkit.Session{
		AccessToken:  "demo-access",
		RefreshToken: "demo-refresh",
		Identity:     authkit.Identity{ID: "id-" + email, Email: email},
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	p.session = session
	return session, nil
}

func (p *memoryProvider) SignInWithOAuth(context.Context, string, string) error {
	return &authkit.ProviderError{Message: "provider is not enabled", Status: 400}
}

func (p *memoryProvider) SignOut(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = nil
	return nil
}

func (p *memoryProvider) ResetPasswordForEmail(context.Context, string) error { return nil }

func (p *memoryProvider) UpdateUser(_ context.Context, update authkit.UserUpdate) (*authkit.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil, &authkit.ProviderError{Message: "not authenticated", Status: 401}
	}
	p.passwords[p.session.Identity.Email] = update.Password
	identity := p.session.Identity
	return &identity, nil
}

func (p *memoryProvider) GetSession(context.Context) (*authkit.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session, nil
}

func (p *memoryProvider) GetUser(context.Context) (*authkit.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return nil, &authkit.ProviderError{Message: "not authenticated", Status: 401}
	}
	identity := p.session.Identity
	return &identity, nil
}

func (p *memoryProvider) RefreshSession(ctx context.Context) (*authkit.Session, error) {
	return p.GetSession(ctx)
}

func (p *memoryProvider) Resend(context.Context, string) error { return nil }

func (p *memoryProvider) AuthEvents() (<-chan authkit.AuthEvent, func()) {
	var once sync.Once
	return p.events, func() {
		once.Do(func() { close(p.events) })
	}
}

// memoryProfiles fabricates a profile from the identity.
type memoryProfiles struct{}

func (memoryProfiles) GetOrCreate(_ context.Context, identity authkit.Identity) (*authkit.Profile, error) {
	return &authkit.Profile{ID: identity.ID, Username: identity.Email, Role: "reader"}, nil
}

// loggingCache logs invalidations instead of managing a real query cache.
type loggingCache struct {
	logger *zap.Logger
}

func (c loggingCache) Invalidate(keys ...authkit.CacheKey) {
	names := make([]string, len(keys))
	for i, key := range keys {
		names[i] = string(key)
	}
	c.logger.Info("cache invalidated", zap.Strings("keys", names))
}
