package gate

import (
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Config holds the provider endpoints and keys the package needs at
// startup. Missing values are a fatal configuration error, not something to
// limp along without.
type Config struct {
	// ProviderURL is the identity provider base URL, e.g.
	// https://xyz.supabase.co
	ProviderURL string
	// AnonKey is the public client key sent on user-facing calls.
	AnonKey string
	// ServiceKey is the privileged key for admin lookups. Server-side only.
	ServiceKey string
	// MailerURL is the outbound email delivery endpoint.
	MailerURL string
	// RedirectURL is where the confirmation link lands after the provider
	// verifies the token.
	RedirectURL string
}

// Validate checks that every required endpoint and key is present and well
// formed.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.ProviderURL, validation.Required, is.URL),
		validation.Field(&c.AnonKey, validation.Required),
		validation.Field(&c.ServiceKey, validation.Required),
		validation.Field(&c.MailerURL, validation.Required, is.URL),
		validation.Field(&c.RedirectURL, validation.Required, is.URL),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid gate configuration").
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}

// NewConfigFromEnv loads configuration from the environment. The caller
// should treat an error as fatal at startup.
func NewConfigFromEnv() (Config, error) {
	cfg := Config{
		ProviderURL: os.Getenv("SUPABASE_URL"),
		AnonKey:     os.Getenv("SUPABASE_ANON_KEY"),
		ServiceKey:  os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		MailerURL:   os.Getenv("MAILER_URL"),
		RedirectURL: os.Getenv("CONFIRMATION_REDIRECT_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// AuthURL builds a provider auth endpoint, e.g. AuthURL("signup").
func (c Config) AuthURL(path string) string {
	return fmt.Sprintf("%s/auth/v1/%s", strings.TrimRight(c.ProviderURL, "/"), strings.TrimLeft(path, "/"))
}

// FunctionURL builds an edge-function endpoint on the provider host.
func (c Config) FunctionURL(name string) string {
	return fmt.Sprintf("%s/functions/v1/%s", strings.TrimRight(c.ProviderURL, "/"), strings.TrimLeft(name, "/"))
}

// ConfirmationLink builds the verification link embedded in the outbound
// confirmation email. The provider validates the token and then redirects
// the browser to RedirectURL.
func (c Config) ConfirmationLink(token string) string {
	return fmt.Sprintf(
		"%s?token=%s&type=signup&redirect_to=%s",
		c.AuthURL("verify"),
		token,
		c.RedirectURL,
	)
}
