package gate

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeEmailNotVerified = "EMAIL_NOT_VERIFIED"
	textCodeIdentityNotFound = "IDENTITY_NOT_FOUND"
	textCodeDeliveryFailed   = "EMAIL_DELIVERY_FAILED"
	textCodeProviderFailure  = "IDENTITY_PROVIDER_FAILURE"
	textCodeProfileFetch     = "PROFILE_FETCH_FAILED"
)

// ErrEmailNotVerified is returned when a sign-in succeeds at the provider but
// the account's email has not been confirmed. The session is revoked before
// this error is surfaced.
var ErrEmailNotVerified = goerrors.New(
	"Please verify your email before logging in. Check your inbox for the verification link.",
	goerrors.CategoryAuth,
).WithTextCode(textCodeEmailNotVerified).WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is returned when no pending identity matches the
// requested email.
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrDeliveryFailed is returned when the mailer collaborator reports a
// failed delivery. The dispatcher does not retry; retry policy belongs to
// the caller.
var ErrDeliveryFailed = goerrors.New("failed to send confirmation email", goerrors.CategoryOperation).
	WithTextCode(textCodeDeliveryFailed).
	WithCode(goerrors.CodeBadRequest)

// wrapProviderError converts an identity-provider failure into a rich error
// at the collaborator boundary so no provider-specific error shape crosses
// into core logic.
func wrapProviderError(err error, msg string) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	return goerrors.Wrap(err, goerrors.CategoryAuth, msg).
		WithTextCode(textCodeProviderFailure)
}

// IsEmailNotVerifiedError reports whether err is the unverified-email
// rejection raised at sign-in time.
func IsEmailNotVerifiedError(err error) bool {
	return hasTextCode(err, textCodeEmailNotVerified)
}

// IsIdentityNotFoundError reports whether err means no identity matched.
func IsIdentityNotFoundError(err error) bool {
	return hasTextCode(err, textCodeIdentityNotFound) || goerrors.IsNotFound(err)
}

// IsDeliveryFailedError reports whether err is a mailer delivery failure.
func IsDeliveryFailedError(err error) bool {
	return hasTextCode(err, textCodeDeliveryFailed)
}

// IsValidationError reports whether err originated from local payload
// validation, before any network call.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryValidation
	}

	return false
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == code
	}

	return false
}
