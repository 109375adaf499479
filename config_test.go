package gate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gate "github.com/goliatone/go-account-gate"
)

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	assert.NoError(t, cfg.Validate())

	missing := cfg
	missing.AnonKey = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.True(t, gate.IsValidationError(err))

	badURL := cfg
	badURL.ProviderURL = "not a url"
	assert.Error(t, badURL.Validate())
}

func TestNewConfigFromEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
	t.Setenv("MAILER_URL", "https://project.supabase.co/functions/v1/send-email")
	t.Setenv("CONFIRMATION_REDIRECT_URL", "https://app.example.com/welcome")

	cfg, err := gate.NewConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "anon-key", cfg.AnonKey)
}

func TestNewConfigFromEnvMissingValues(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("MAILER_URL", "")
	t.Setenv("CONFIRMATION_REDIRECT_URL", "")

	_, err := gate.NewConfigFromEnv()
	assert.Error(t, err)
}

func TestConfigURLBuilders(t *testing.T) {
	cfg := testConfig()
	cfg.ProviderURL = "https://project.supabase.co/"

	assert.Equal(t, "https://project.supabase.co/auth/v1/signup", cfg.AuthURL("signup"))
	assert.Equal(t, "https://project.supabase.co/functions/v1/send-email", cfg.FunctionURL("send-email"))

	link := cfg.ConfirmationLink("tok-123")
	assert.Contains(t, link, "https://project.supabase.co/auth/v1/verify")
	assert.Contains(t, link, "token=tok-123")
	assert.Contains(t, link, "type=signup")
	assert.Contains(t, link, "redirect_to=https://app.example.com/welcome")
}
