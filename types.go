package gate

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// ResendType identifies which provider email should be re-sent.
type ResendType = string

const (
	// ResendSignup re-sends the signup confirmation email.
	ResendSignup ResendType = "signup"
)

// IdentityClient wraps the external identity provider: credential checks,
// session issuance, and the auth-change notification stream all live on the
// provider side.
type IdentityClient interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*AuthUser, error)
	SignInWithPassword(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*RawSession, error)
	Resend(ctx context.Context, typ ResendType, email string) error

	// OnAuthStateChange registers fn for every login/logout/token-refresh
	// event. The returned function releases the subscription.
	OnAuthStateChange(fn func(*RawSession)) (unsubscribe func())
}

// IdentityAdmin is the privileged provider surface the dispatcher uses to
// resolve pending identities.
type IdentityAdmin interface {
	ListUsers(ctx context.Context) ([]AuthUser, error)
}

// ProfileSource is the slice of the profile repository the session store
// depends on.
type ProfileSource interface {
	GetByAuthUserID(ctx context.Context, authUserID string) (*Profile, error)
	GetOrCreate(ctx context.Context, record *Profile) (*Profile, error)
	TrackSuccessfulLogin(ctx context.Context, email string) error
}

// ConfirmationSender triggers the confirmation email for a freshly
// registered account. Implementations call the dispatcher endpoint.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, fullName string) (string, error)
}

// Mailer delivers a rendered email. The delivery pipeline itself is an
// external collaborator.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GATE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GATE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GATE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GATE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
