package authkit

import (
	"context"
	"encoding/json"
	"sync"
)

// uiPrefsKey is the only key this store ever writes to persisted storage.
// Auth truth is re-derived from the provider at process start, never read
// back from disk.
const uiPrefsKey = "authkit.ui-prefs"

// State is the full session store state. Invariants: IsAuthenticated is
// true exactly when Session is non-nil, IsAnonymous is its negation, and
// Profile is only ever non-nil while authenticated.
type State struct {
	IdentityID      string
	Session         *Session
	IsAuthenticated bool
	IsAnonymous     bool
	Profile         *Profile

	// UI-only fields. They share the container but carry no auth meaning.
	Filters   []string
	SeenItems map[string]bool
}

func anonymousState(filters []string, seen map[string]bool) State {
	return State{
		IsAnonymous: true,
		Filters:     filters,
		SeenItems:   seen,
	}
}

// StoreDeps are the collaborators the store reconciles auth state with.
// Profiles is required; the rest may be nil and are then skipped.
type StoreDeps struct {
	Profiles  ProfileStore
	Cache     CacheInvalidator
	Telemetry Telemetry
	Storage   Storage
}

// Store is the process-wide observable session state container. All
// mutation goes through its methods; each one replaces the full state
// under the lock, so concurrent callers resolve last-write-wins rather
// than tearing fields apart.
type Store struct {
	service *Service
	deps    StoreDeps

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	releaseEvents func()
}

// NewStore creates a store in the anonymous state, bound to the service.
func NewStore(service *Service, deps StoreDeps) *Store {
	return &Store{
		service: service,
		deps:    deps,
		state:   anonymousState(nil, nil),
		subs:    make(map[int]func(State)),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequiresAuth reports whether a write operation should be gated behind
// sign-in. Read-only browsing never requires auth.
func (s *Store) RequiresAuth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.state.IsAuthenticated
}

// Subscribe registers fn to run after every state change, with a copy of
// the new state. It returns an unsubscribe function.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) notifyLocked() (State, []func(State)) {
	state := s.state
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return state, fns
}

func (s *Store) replaceState(next State) {
	s.mu.Lock()
	s.state = next
	state, fns := s.notifyLocked()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// invalidateAuthCaches drops identity-keyed query caches. It runs
// synchronously inside every transition that changes IsAuthenticated or
// IdentityID, before control returns to the caller.
func (s *Store) invalidateAuthCaches() {
	if s.deps.Cache != nil {
		s.deps.Cache.Invalidate(CacheLikedItems, CacheLikeMembership)
	}
	if s.service != nil {
		s.service.metricInc(MetricCacheInvalidated)
	}
}

// Initialize probes the provider for an existing session and adopts it,
// forcing the anonymous state when the probe finds nothing or fails. It
// also loads persisted UI preferences and starts draining provider
// state-change events. Call it once at startup.
func (s *Store) Initialize(ctx context.Context) {
	s.loadUIPrefs(ctx)

	if s.service != nil && s.releaseEvents == nil {
		s.releaseEvents = s.service.Subscribe(func(event AuthEvent) {
			s.handleAuthEvent(event)
		})
	}

	var session *Session
	if s.service != nil {
		session = s.service.GetSession(ctx)
	}
	s.SetSession(ctx, session)
}

// Close releases the provider event subscription.
func (s *Store) Close() {
	if s.releaseEvents != nil {
		s.releaseEvents()
		s.releaseEvents = nil
	}
}

func (s *Store) handleAuthEvent(event AuthEvent) {
	ctx := context.Background()
	switch event.Kind {
	case EventSignedIn, EventTokenRefreshed:
		s.SetSession(ctx, event.Session)
	case EventSignedOut:
		s.SetSession(ctx, nil)
	}
}

// SetSession adopts a provider session, or transitions to anonymous when
// session is nil. The profile fetch is best-effort: a failure leaves
// Profile nil without blocking the authenticated transition.
func (s *Store) SetSession(ctx context.Context, session *Session) {
	if session == nil {
		s.mu.Lock()
		filters, seen := s.state.Filters, s.state.SeenItems
		s.mu.Unlock()

		s.replaceState(anonymousState(filters, seen))
		s.invalidateAuthCaches()
		return
	}

	profile := s.fetchProfile(ctx, session.Identity)

	s.mu.Lock()
	next := State{
		IdentityID:      session.Identity.ID,
		Session:         session,
		IsAuthenticated: true,
		Profile:         profile,
		Filters:         s.state.Filters,
		SeenItems:       s.state.SeenItems,
	}
	s.mu.Unlock()

	s.replaceState(next)
	s.invalidateAuthCaches()

	if s.deps.Telemetry != nil {
		traits := map[string]any{"email": session.Identity.Email}
		if profile != nil {
			traits["username"] = profile.Username
		}
		s.deps.Telemetry.Identify(session.Identity.ID, traits)
	}
}

// SetUser adopts an identity by id only, without a session. Used when the
// caller knows who is signed in but holds no session object.
func (s *Store) SetUser(ctx context.Context, identityID string) {
	if identityID == "" {
		s.SetSession(ctx, nil)
		return
	}

	profile := s.fetchProfile(ctx, Identity{ID: identityID})

	s.mu.Lock()
	next := State{
		IdentityID:      identityID,
		IsAuthenticated: true,
		Profile:         profile,
		Filters:         s.state.Filters,
		SeenItems:       s.state.SeenItems,
	}
	s.mu.Unlock()

	s.replaceState(next)
	s.invalidateAuthCaches()
}

// Logout signs out at the provider, resets the analytics identity, and
// returns the store to the anonymous state. UI-only fields are reset too;
// a logout hands the device to a potentially different person.
func (s *Store) Logout(ctx context.Context) error {
	var signOutErr error
	if s.service != nil {
		if res := s.service.SignOut(ctx); res.IsFailure() {
			signOutErr = res.Err()
		}
	}

	if s.deps.Telemetry != nil {
		s.deps.Telemetry.Reset()
	}

	s.replaceState(anonymousState(nil, nil))
	s.invalidateAuthCaches()
	s.persistUIPrefs(ctx)

	return signOutErr
}

// RefreshProfile re-fetches and replaces the profile. No-op when no
// identity is set. The replacement is an overwrite, not a merge.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	identityID := s.state.IdentityID
	var email string
	if s.state.Session != nil {
		email = s.state.Session.Identity.Email
	}
	s.mu.Unlock()

	if identityID == "" {
		return
	}

	profile := s.fetchProfile(ctx, Identity{ID: identityID, Email: email})
	if profile == nil {
		return
	}

	s.mu.Lock()
	next := s.state
	next.Profile = profile
	s.mu.Unlock()

	s.replaceState(next)
}

func (s *Store) fetchProfile(ctx context.Context, identity Identity) *Profile {
	if s.deps.Profiles == nil {
		return nil
	}
	profile, err := s.deps.Profiles.GetOrCreate(ctx, identity)
	if err != nil {
		if s.service != nil {
			s.service.metricInc(MetricProfileFetchFailure)
			s.service.emitDiag(ctx, "profile_fetch", "session", identity.ID, false, err, nil)
		}
		return nil
	}
	return profile
}

// SetFilters replaces the UI filter selection and persists it.
func (s *Store) SetFilters(ctx context.Context, filters []string) {
	s.mu.Lock()
	next := s.state
	next.Filters = filters
	s.mu.Unlock()

	s.replaceState(next)
	s.persistUIPrefs(ctx)
}

// MarkSeen records that the user dismissed an item and persists it.
func (s *Store) MarkSeen(ctx context.Context, itemID string) {
	s.mu.Lock()
	next := s.state
	seen := make(map[string]bool, len(next.SeenItems)+1)
	for k, v := range next.SeenItems {
		seen[k] = v
	}
	seen[itemID] = true
	next.SeenItems = seen
	s.mu.Unlock()

	s.replaceState(next)
	s.persistUIPrefs(ctx)
}

type uiPrefs struct {
	Filters   []string        `json:"filters,omitempty"`
	SeenItems map[string]bool `json:"seen_items,omitempty"`
}

func (s *Store) loadUIPrefs(ctx context.Context) {
	if s.deps.Storage == nil {
		return
	}
	raw, err := s.deps.Storage.GetItem(ctx, uiPrefsKey)
	if err != nil || raw == "" {
		return
	}
	var prefs uiPrefs
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return
	}

	s.mu.Lock()
	s.state.Filters = prefs.Filters
	s.state.SeenItems = prefs.SeenItems
	s.mu.Unlock()
}

func (s *Store) persistUIPrefs(ctx context.Context) {
	if s.deps.Storage == nil {
		return
	}

	s.mu.Lock()
	prefs := uiPrefs{
		Filters:   s.state.Filters,
		SeenItems: s.state.SeenItems,
	}
	s.mu.Unlock()

	data, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	_ = s.deps.Storage.SetItem(ctx, uiPrefsKey, string(data))
}
