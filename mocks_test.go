package gate_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	gate "github.com/goliatone/go-account-gate"
)

// fakeIdentityClient is a stateful provider double. Tests drive transitions
// through emit to simulate the auth-change stream.
type fakeIdentityClient struct {
	mu        sync.Mutex
	session   *gate.RawSession
	listeners []func(*gate.RawSession)

	// nextSession becomes current on a successful password sign-in
	nextSession *gate.RawSession

	signUpErr  error
	signInErr  error
	signOutErr error
	resendErr  error

	signUpCalls  int
	signInCalls  int
	signOutCalls int
	resendCalls  int
}

func (f *fakeIdentityClient) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*gate.AuthUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &gate.AuthUser{ID: "new-user", Email: email, UserMetadata: metadata}, nil
}

func (f *fakeIdentityClient) SignInWithPassword(ctx context.Context, email, password string) error {
	f.mu.Lock()
	f.signInCalls++
	err := f.signInErr
	next := f.nextSession
	f.mu.Unlock()

	if err != nil {
		return err
	}

	f.emit(next)
	return nil
}

func (f *fakeIdentityClient) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOutCalls++
	err := f.signOutErr
	f.session = nil
	f.mu.Unlock()

	f.emit(nil)
	return err
}

func (f *fakeIdentityClient) GetSession(ctx context.Context) (*gate.RawSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, nil
}

func (f *fakeIdentityClient) Resend(ctx context.Context, typ gate.ResendType, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resendCalls++
	return f.resendErr
}

func (f *fakeIdentityClient) OnAuthStateChange(fn func(*gate.RawSession)) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.listeners[idx] = nil
		f.mu.Unlock()
	}
}

// emit sets the current session and notifies listeners, like a real
// provider event.
func (f *fakeIdentityClient) emit(session *gate.RawSession) {
	f.mu.Lock()
	f.session = session
	listeners := make([]func(*gate.RawSession), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, fn := range listeners {
		if fn != nil {
			fn(session)
		}
	}
}

// MockProfileSource implements gate.ProfileSource
type MockProfileSource struct {
	mock.Mock
}

func (m *MockProfileSource) GetByAuthUserID(ctx context.Context, authUserID string) (*gate.Profile, error) {
	args := m.Called(ctx, authUserID)
	profile, _ := args.Get(0).(*gate.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileSource) GetOrCreate(ctx context.Context, record *gate.Profile) (*gate.Profile, error) {
	args := m.Called(ctx, record)
	profile, _ := args.Get(0).(*gate.Profile)
	return profile, args.Error(1)
}

func (m *MockProfileSource) TrackSuccessfulLogin(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

// MockIdentityAdmin implements gate.IdentityAdmin
type MockIdentityAdmin struct {
	mock.Mock
}

func (m *MockIdentityAdmin) ListUsers(ctx context.Context) ([]gate.AuthUser, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]gate.AuthUser)
	return users, args.Error(1)
}

// MockMailer implements gate.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, html string) error {
	args := m.Called(ctx, to, subject, html)
	return args.Error(0)
}

// MockConfirmationSender implements gate.ConfirmationSender
type MockConfirmationSender struct {
	mock.Mock
}

func (m *MockConfirmationSender) SendConfirmation(ctx context.Context, email, fullName string) (string, error) {
	args := m.Called(ctx, email, fullName)
	return args.String(0), args.Error(1)
}
