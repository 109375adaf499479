package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	gate "github.com/goliatone/go-account-gate"
)

func testConfig() gate.Config {
	return gate.Config{
		ProviderURL: "https://project.supabase.co",
		AnonKey:     "anon-key",
		ServiceKey:  "service-key",
		MailerURL:   "https://project.supabase.co/functions/v1/send-email",
		RedirectURL: "https://app.example.com/welcome",
	}
}

func newTestHandler(t *testing.T, admin *MockIdentityAdmin, mailer *MockMailer) *gate.SendConfirmationHandler {
	t.Helper()

	renderer, err := gate.NewMailRenderer()
	require.NoError(t, err)

	return &gate.SendConfirmationHandler{
		Admin:    admin,
		Renderer: renderer,
		Mailer:   mailer,
		Config:   testConfig(),
	}
}

func TestSendConfirmationDispatchesEmail(t *testing.T) {
	now := time.Now()
	admin := &MockIdentityAdmin{}
	admin.On("ListUsers", mock.Anything).Return([]gate.AuthUser{
		{ID: "other", Email: "other@example.com"},
		{
			ID:               "user-1",
			Email:            "Pepe.Rone@Example.com",
			EmailConfirmedAt: nil,
			CreatedAt:        &now,
			UserMetadata:     map[string]any{"full_name": "Pepe Rone"},
		},
	}, nil)

	var sentHTML string
	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, "pepe.rone@example.com", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			sentHTML = args.String(3)
		}).
		Return(nil)

	handler := newTestHandler(t, admin, mailer)

	var res *gate.SendConfirmationResponse
	msg := gate.SendConfirmationMessage{
		// lookup is case-insensitive
		Email:    "pepe.rone@example.com",
		FullName: "Pepe Rone",
		OnResponse: func(resp *gate.SendConfirmationResponse) {
			res = resp
		},
	}

	err := handler.Execute(context.Background(), msg)
	require.NoError(t, err)

	require.NotNil(t, res)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "pepe.rone@example.com")

	assert.Contains(t, sentHTML, "Pepe Rone")
	assert.Contains(t, sentHTML, "https://project.supabase.co/auth/v1/verify")
	assert.Contains(t, sentHTML, "redirect_to=https://app.example.com/welcome")
	mailer.AssertExpectations(t)
}

func TestSendConfirmationUnknownIdentity(t *testing.T) {
	admin := &MockIdentityAdmin{}
	admin.On("ListUsers", mock.Anything).Return([]gate.AuthUser{
		{ID: "other", Email: "other@example.com"},
	}, nil)

	mailer := &MockMailer{}
	handler := newTestHandler(t, admin, mailer)

	var res *gate.SendConfirmationResponse
	msg := gate.SendConfirmationMessage{
		Email: "missing@example.com",
		OnResponse: func(resp *gate.SendConfirmationResponse) {
			res = resp
		},
	}

	err := handler.Execute(context.Background(), msg)
	require.Error(t, err)

	assert.True(t, gate.IsIdentityNotFoundError(err))
	require.NotNil(t, res)
	assert.False(t, res.Success)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendConfirmationDeliveryFailure(t *testing.T) {
	admin := &MockIdentityAdmin{}
	admin.On("ListUsers", mock.Anything).Return([]gate.AuthUser{
		{ID: "user-1", Email: "pepe.rone@example.com"},
	}, nil)

	mailer := &MockMailer{}
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(assert.AnError)

	handler := newTestHandler(t, admin, mailer)

	err := handler.Execute(context.Background(), gate.SendConfirmationMessage{
		Email: "pepe.rone@example.com",
	})
	require.Error(t, err)

	assert.True(t, gate.IsDeliveryFailedError(err))
}

func TestSendConfirmationProviderLookupFailure(t *testing.T) {
	admin := &MockIdentityAdmin{}
	admin.On("ListUsers", mock.Anything).Return(nil, assert.AnError)

	mailer := &MockMailer{}
	handler := newTestHandler(t, admin, mailer)

	err := handler.Execute(context.Background(), gate.SendConfirmationMessage{
		Email: "pepe.rone@example.com",
	})
	require.Error(t, err)

	assert.False(t, gate.IsIdentityNotFoundError(err))
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendConfirmationCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	handler := newTestHandler(t, &MockIdentityAdmin{}, &MockMailer{})

	err := handler.Execute(ctx, gate.SendConfirmationMessage{
		Email: "pepe.rone@example.com",
	})
	assert.Error(t, err)
}
