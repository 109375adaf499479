package gate

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// Store owns the Session and is its single writer. The initial session
// resolve and every auth-change event funnel through the same transition
// logic, so the visible state is always consistent with the most recently
// observed raw session regardless of arrival order.
type Store struct {
	client   IdentityClient
	profiles ProfileSource
	logger   Logger

	mu          sync.Mutex
	session     Session
	gen         uint64
	resolved    bool
	started     bool
	closed      bool
	observers   map[int]func(Session)
	observerSeq int
	unsubscribe func()
}

type StoreOption func(*Store) *Store

// WithStoreLogger overrides the store logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) *Store {
		if logger != nil {
			s.logger = logger
		}
		return s
	}
}

// NewStore creates a session store bound to an identity client and a
// profile source. Call Start to begin observing the provider.
func NewStore(client IdentityClient, profiles ProfileSource, opts ...StoreOption) *Store {
	if client == nil {
		panic("Missing IdentityClient in session store...")
	}

	if profiles == nil {
		panic("Missing ProfileSource in session store...")
	}

	s := &Store{
		client:    client,
		profiles:  profiles,
		logger:    defLogger{},
		observers: map[int]func(Session){},
	}
	s.session.Loading = true

	for _, opt := range opts {
		if opt != nil {
			s = opt(s)
		}
	}

	return s
}

// Start registers for auth-change events and kicks off the one initial
// session resolve. The two race; both run the same transition logic.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return goerrors.New("session store is closed", goerrors.CategoryOperation)
	}
	if s.started {
		s.mu.Unlock()
		return goerrors.New("session store already started", goerrors.CategoryOperation)
	}
	s.started = true
	s.mu.Unlock()

	unsubscribe := s.client.OnAuthStateChange(func(raw *RawSession) {
		s.applySession(ctx, raw)
	})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		unsubscribe()
		return nil
	}
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	go func() {
		raw, err := s.client.GetSession(ctx)
		if err != nil {
			s.logger.Error("initial session resolve: %v", err)
			raw = nil
		}
		s.applySession(ctx, raw)
	}()

	return nil
}

// applySession is the single state-transition function. It sets the user,
// recomputes the verification flag, clears or fetches the profile, and
// trips the loading latch once the first transition has fully completed,
// profile fetch included.
func (s *Store) applySession(ctx context.Context, raw *RawSession) {
	var user *AuthUser
	if raw != nil {
		user = raw.User
	}

	verified := user.IsEmailConfirmed()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	gen := s.gen
	s.session.User = user
	s.session.IsEmailVerified = verified
	if !verified {
		// no stale profile survives a cleared user or an unverified one
		s.session.Profile = nil
	}
	s.mu.Unlock()

	if verified {
		s.fetchProfile(ctx, user.ID, gen)
	}

	s.settle()
}

// fetchProfile loads the profile for authUserID and applies the result only
// when no other transition landed while the fetch was in flight. Every
// transition bumps the generation counter; a fetch carries the generation it
// was issued under, and a mismatch on completion marks the result stale. The
// user-id comparison alone is not enough: the same account can transition
// verified to unverified mid-fetch, and the late result must not reattach a
// profile to the now-unverified session.
func (s *Store) fetchProfile(ctx context.Context, authUserID string, gen uint64) {
	profile, err := s.profiles.GetByAuthUserID(ctx, authUserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			// expected before the first verified sign-in creates the row
			s.logger.Debug("no profile yet for %s", authUserID)
		} else {
			// non-fatal: consumers see "profile absent" and recover
			s.logger.Error("profile fetch for %s: %v", authUserID, err)
		}
		profile = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if s.gen != gen {
		// superseded: a later transition owns the state now
		return
	}

	s.session.Profile = profile
}

// settle trips the loading latch after the first transition completes, then
// notifies observers. Later transitions only notify.
func (s *Store) settle() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if !s.resolved {
		s.resolved = true
		s.session.Loading = false
	}
	s.mu.Unlock()

	s.publish()
}

func (s *Store) publish() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	snapshot := s.session
	observers := make([]func(Session), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snapshot)
	}
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Subscribe registers fn to run on every published transition. The returned
// function removes the observer.
func (s *Store) Subscribe(fn func(Session)) func() {
	s.mu.Lock()
	id := s.observerSeq
	s.observerSeq++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// SignIn authenticates against the provider and enforces email verification
// before the caller is allowed to keep the session: an unverified account is
// signed back out immediately. On an accepted sign-in the profile row is
// ensured and last-login tracking runs best-effort.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	if err := s.client.SignInWithPassword(ctx, email, password); err != nil {
		return wrapProviderError(err, "sign in failed")
	}

	raw, err := s.client.GetSession(ctx)
	if err != nil {
		return wrapProviderError(err, "unable to resolve session after sign in")
	}

	if raw != nil && raw.User != nil && !raw.User.IsEmailConfirmed() {
		if err := s.client.SignOut(ctx); err != nil {
			s.logger.Warn("sign out after unverified sign in: %v", err)
		}
		return ErrEmailNotVerified
	}

	if raw != nil && raw.User != nil {
		s.ensureProfile(ctx, raw.User)

		if err := s.profiles.TrackSuccessfulLogin(ctx, email); err != nil {
			s.logger.Warn("track successful login for %s: %v", email, err)
		}
	}

	return nil
}

// ensureProfile creates the application profile on first verified sign-in.
// Profile rows never exist before verification; this is the deferred
// creation path for accounts registered through the provider.
func (s *Store) ensureProfile(ctx context.Context, user *AuthUser) {
	if _, err := s.profiles.GetOrCreate(ctx, ProfileFromAuthUser(user)); err != nil {
		s.logger.Warn("ensure profile for %s: %v", user.ID, err)
	}
}

// SignUp registers the account with the provider. The application profile
// is not created here; it must not exist before verification.
func (s *Store) SignUp(ctx context.Context, email, password, fullName, affiliation string) error {
	metadata := map[string]any{
		"full_name": fullName,
	}
	if affiliation != "" {
		metadata["affiliation"] = affiliation
	}

	if _, err := s.client.SignUp(ctx, email, password, metadata); err != nil {
		return wrapProviderError(err, "sign up failed")
	}

	return nil
}

// SignOut revokes the provider session and always clears local state, even
// when the provider call fails, so the UI cannot get stuck authenticated.
func (s *Store) SignOut(ctx context.Context) {
	if err := s.client.SignOut(ctx); err != nil {
		s.logger.Warn("provider sign out: %v", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.gen++
	s.session.User = nil
	s.session.Profile = nil
	s.session.IsEmailVerified = false
	s.mu.Unlock()

	s.publish()
}

// RefreshProfile re-runs the profile fetch for the current user. No-op when
// signed out.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	user := s.session.User
	gen := s.gen
	s.mu.Unlock()

	if user == nil {
		return
	}

	s.fetchProfile(ctx, user.ID, gen)
	s.publish()
}

// Close releases the auth-change subscription and drops all observers. The
// transition function is never applied after Close returns.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.observers = map[int]func(Session){}
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
