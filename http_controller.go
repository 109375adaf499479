package gate

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// ConfirmationController exposes the confirmation dispatch endpoint over
// HTTP. It is called cross-origin from the registration UI, so every
// response, preflight included, carries the CORS headers.
type ConfirmationController struct {
	Handler *SendConfirmationHandler
	Logger  Logger
}

// corsHeaders is attached to every response from this controller. Preflight
// must succeed before any request logic runs.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Client-Info, Apikey",
}

const (
	confirmationRoutePath = "/send-confirmation-email"
	confirmationRouteName = "account.send_confirmation"
)

// NewConfirmationController creates the HTTP surface for confirmation
// dispatch.
func NewConfirmationController(handler *SendConfirmationHandler) *ConfirmationController {
	if handler == nil {
		panic("Missing SendConfirmationHandler in confirmation controller...")
	}

	return &ConfirmationController{
		Handler: handler,
		Logger:  defLogger{},
	}
}

// RegisterConfirmationRoutes mounts the CORS middleware and the dispatch
// endpoint on the given router.
func RegisterConfirmationRoutes[T any](app router.Router[T], controller *ConfirmationController) {
	app.Use(CORS())
	app.Post(confirmationRoutePath, controller.SendConfirmation).SetName(confirmationRouteName)
}

// CORS attaches the cross-origin headers to every response and answers
// OPTIONS preflights before any handler runs.
func CORS() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			setCORSHeaders(ctx)

			if strings.ToUpper(ctx.Method()) == "OPTIONS" {
				return ctx.Status(router.StatusOK).SendString("")
			}

			return hf(ctx)
		}
	}
}

type SendConfirmationPayload struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (r SendConfirmationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// SendConfirmation handles the dispatch request. Identity lookup failures
// and delivery failures both map to a 400 with the error in the envelope;
// the caller distinguishes them by message.
func (c *ConfirmationController) SendConfirmation(ctx router.Context) error {
	setCORSHeaders(ctx)

	payload := new(SendConfirmationPayload)
	if err := ctx.Bind(payload); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid request body",
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	var res *SendConfirmationResponse

	msg := SendConfirmationMessage{
		Email:    payload.Email,
		FullName: payload.FullName,
		OnResponse: func(resp *SendConfirmationResponse) {
			res = resp
		},
	}

	if err := c.Handler.Execute(ctx.Context(), msg); err != nil {
		c.logger().Error("confirmation dispatch for %s: %v", payload.Email, err)
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"success": false,
			"error":   publicErrorMessage(err),
		})
	}

	return ctx.JSON(router.StatusOK, res)
}

func setCORSHeaders(ctx router.Context) {
	for k, v := range corsHeaders {
		ctx.SetHeader(k, v)
	}
}

func (c *ConfirmationController) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defLogger{}
}

// publicErrorMessage keeps provider internals out of HTTP responses. Known
// failures pass their message through; anything else degrades to a generic
// line.
func publicErrorMessage(err error) string {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case textCodeIdentityNotFound, textCodeDeliveryFailed:
			return richErr.Message
		}
	}

	return "unable to send confirmation email"
}
