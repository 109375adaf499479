package gate

import (
	"context"
	"errors"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
)

// Step identifies where a registration attempt currently stands.
type Step = string

const (
	// StepForm is the initial step, collecting registration details.
	StepForm Step = "form"
	// StepAwaitingConfirmation means the account exists at the provider and
	// the user must click the emailed confirmation link.
	StepAwaitingConfirmation Step = "awaiting_confirmation"
	// StepSuccess is reserved for flows that confirm inline rather than via
	// an email round-trip.
	StepSuccess Step = "success"
)

// SignUpRequest carries the registration form fields.
type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	Affiliation     string `json:"affiliation,omitempty"`
}

// Validate runs local checks only. It must pass before any provider call is
// made.
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.FullName, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password, "Passwords do not match")),
		),
	)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str, message string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New(message)
		}
		return nil
	}
}

// Registrar creates the provider account for a registration submission.
// *Store satisfies it.
type Registrar interface {
	SignUp(ctx context.Context, email, password, fullName, affiliation string) error
}

// ConfirmationResender re-triggers the provider's own confirmation email.
type ConfirmationResender interface {
	Resend(ctx context.Context, typ ResendType, email string) error
}

// Flow drives a registration attempt through its steps. Submit moves
// form -> awaiting_confirmation, Back returns to the form, and Resend
// re-requests the confirmation email while waiting.
type Flow struct {
	registrar Registrar
	sender    ConfirmationSender
	resender  ConfirmationResender
	logger    Logger

	mu       sync.Mutex
	step     Step
	email    string
	fullName string
}

type FlowOption func(*Flow) *Flow

// WithFlowLogger overrides the flow logger.
func WithFlowLogger(logger Logger) FlowOption {
	return func(f *Flow) *Flow {
		if logger != nil {
			f.logger = logger
		}
		return f
	}
}

// NewFlow creates a registration flow. The sender dispatches the branded
// confirmation email after the provider account is created; resender backs
// the "send it again" affordance on the waiting step.
func NewFlow(registrar Registrar, sender ConfirmationSender, resender ConfirmationResender, opts ...FlowOption) *Flow {
	if registrar == nil {
		panic("Missing Registrar in registration flow...")
	}

	f := &Flow{
		registrar: registrar,
		sender:    sender,
		resender:  resender,
		logger:    defLogger{},
		step:      StepForm,
	}

	for _, opt := range opts {
		if opt != nil {
			f = opt(f)
		}
	}

	return f
}

// Step returns the current registration step.
func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// SubmittedEmail returns the address of the pending registration, empty
// while still on the form.
func (f *Flow) SubmittedEmail() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Submit validates the request, creates the provider account, and advances
// to the waiting step. Validation failures surface before any network call
// and leave the flow on the form. A confirmation-email dispatch failure
// still advances the step, because the account now exists and the user can
// resend; the error is returned so callers can show it.
func (f *Flow) Submit(ctx context.Context, req SignUpRequest) error {
	f.mu.Lock()
	if f.step != StepForm {
		f.mu.Unlock()
		return goerrors.New("registration already submitted", goerrors.CategoryOperation)
	}
	f.mu.Unlock()

	if err := req.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := f.registrar.SignUp(ctx, req.Email, req.Password, req.FullName, req.Affiliation); err != nil {
		return err
	}

	f.mu.Lock()
	f.step = StepAwaitingConfirmation
	f.email = req.Email
	f.fullName = req.FullName
	f.mu.Unlock()

	if f.sender != nil {
		if _, err := f.sender.SendConfirmation(ctx, req.Email, req.FullName); err != nil {
			f.logger.Warn("confirmation dispatch for %s: %v", req.Email, err)
			return err
		}
	}

	return nil
}

// Back returns from the waiting step to the form so the user can correct
// their details and submit again.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepAwaitingConfirmation {
		return goerrors.New("nothing to go back from", goerrors.CategoryOperation)
	}

	f.step = StepForm
	f.email = ""
	f.fullName = ""

	return nil
}

// Resend asks the provider to send the confirmation email again. Only valid
// while awaiting confirmation.
func (f *Flow) Resend(ctx context.Context) error {
	f.mu.Lock()
	if f.step != StepAwaitingConfirmation {
		f.mu.Unlock()
		return goerrors.New("no pending registration to resend for", goerrors.CategoryOperation)
	}
	email := f.email
	f.mu.Unlock()

	if f.resender == nil {
		return goerrors.New("resend is not configured", goerrors.CategoryOperation)
	}

	if err := f.resender.Resend(ctx, ResendSignup, email); err != nil {
		return wrapProviderError(err, "resend confirmation failed")
	}

	return nil
}
