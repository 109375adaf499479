package gate_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	gate "github.com/goliatone/go-account-gate"
)

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) SignUp(ctx context.Context, email, password, fullName, affiliation string) error {
	f.calls++
	return f.err
}

type fakeResender struct {
	calls int
	err   error
	last  string
}

func (f *fakeResender) Resend(ctx context.Context, typ gate.ResendType, email string) error {
	f.calls++
	f.last = email
	return f.err
}

func validSignUpRequest() gate.SignUpRequest {
	return gate.SignUpRequest{
		Email:           "pepe.rone@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
		FullName:        "Pepe Rone",
		Affiliation:     "Example University",
	}
}

func TestFlowStartsOnForm(t *testing.T) {
	flow := gate.NewFlow(&fakeRegistrar{}, nil, nil)
	assert.Equal(t, gate.StepForm, flow.Step())
	assert.Empty(t, flow.SubmittedEmail())
}

func TestSubmitAdvancesToAwaitingConfirmation(t *testing.T) {
	registrar := &fakeRegistrar{}
	sender := &MockConfirmationSender{}
	sender.On("SendConfirmation", mock.Anything, "pepe.rone@example.com", "Pepe Rone").
		Return("Confirmation email sent to pepe.rone@example.com", nil)

	flow := gate.NewFlow(registrar, sender, nil)

	err := flow.Submit(context.Background(), validSignUpRequest())
	require.NoError(t, err)

	assert.Equal(t, gate.StepAwaitingConfirmation, flow.Step())
	assert.Equal(t, "pepe.rone@example.com", flow.SubmittedEmail())
	assert.Equal(t, 1, registrar.calls)
	sender.AssertExpectations(t)
}

func TestSubmitPasswordMismatchNeverReachesProvider(t *testing.T) {
	registrar := &fakeRegistrar{}
	flow := gate.NewFlow(registrar, nil, nil)

	req := validSignUpRequest()
	req.ConfirmPassword = "different1"

	err := flow.Submit(context.Background(), req)
	require.Error(t, err)

	assert.True(t, gate.IsValidationError(err))

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	require.NotNil(t, richErr.Source)
	assert.Contains(t, richErr.Source.Error(), "Passwords do not match")

	assert.Equal(t, 0, registrar.calls)
	assert.Equal(t, gate.StepForm, flow.Step())
}

func TestSubmitShortPasswordRejected(t *testing.T) {
	registrar := &fakeRegistrar{}
	flow := gate.NewFlow(registrar, nil, nil)

	req := validSignUpRequest()
	req.Password = "abc"
	req.ConfirmPassword = "abc"

	err := flow.Submit(context.Background(), req)
	require.Error(t, err)

	assert.True(t, gate.IsValidationError(err))
	assert.Equal(t, 0, registrar.calls)
}

func TestSubmitProviderRejectionStaysOnForm(t *testing.T) {
	// e.g. the address is already registered
	registrar := &fakeRegistrar{err: assert.AnError}
	flow := gate.NewFlow(registrar, nil, nil)

	err := flow.Submit(context.Background(), validSignUpRequest())
	require.Error(t, err)

	assert.Equal(t, gate.StepForm, flow.Step())
	assert.Empty(t, flow.SubmittedEmail())
}

func TestSubmitDispatchFailureStillAdvances(t *testing.T) {
	registrar := &fakeRegistrar{}
	sender := &MockConfirmationSender{}
	sender.On("SendConfirmation", mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	flow := gate.NewFlow(registrar, sender, nil)

	err := flow.Submit(context.Background(), validSignUpRequest())
	require.Error(t, err)

	// the account exists; the user can resend from the waiting step
	assert.Equal(t, gate.StepAwaitingConfirmation, flow.Step())
}

func TestSubmitTwiceRejected(t *testing.T) {
	registrar := &fakeRegistrar{}
	flow := gate.NewFlow(registrar, nil, nil)

	require.NoError(t, flow.Submit(context.Background(), validSignUpRequest()))

	err := flow.Submit(context.Background(), validSignUpRequest())
	require.Error(t, err)
	assert.Equal(t, 1, registrar.calls)
}

func TestBackReturnsToForm(t *testing.T) {
	flow := gate.NewFlow(&fakeRegistrar{}, nil, nil)

	require.NoError(t, flow.Submit(context.Background(), validSignUpRequest()))
	require.NoError(t, flow.Back())

	assert.Equal(t, gate.StepForm, flow.Step())
	assert.Empty(t, flow.SubmittedEmail())
}

func TestBackOnlyFromAwaitingConfirmation(t *testing.T) {
	flow := gate.NewFlow(&fakeRegistrar{}, nil, nil)
	assert.Error(t, flow.Back())
}

func TestResendWhileAwaitingConfirmation(t *testing.T) {
	resender := &fakeResender{}
	flow := gate.NewFlow(&fakeRegistrar{}, nil, resender)

	require.NoError(t, flow.Submit(context.Background(), validSignUpRequest()))
	require.NoError(t, flow.Resend(context.Background()))

	assert.Equal(t, 1, resender.calls)
	assert.Equal(t, "pepe.rone@example.com", resender.last)
}

func TestResendOnlyFromAwaitingConfirmation(t *testing.T) {
	resender := &fakeResender{}
	flow := gate.NewFlow(&fakeRegistrar{}, nil, resender)

	assert.Error(t, flow.Resend(context.Background()))
	assert.Equal(t, 0, resender.calls)
}
