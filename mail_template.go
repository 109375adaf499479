package gate

import (
	"bytes"
	"embed"
	"net/http"

	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"
)

//go:embed views
var viewsFS embed.FS

// MailRenderer renders outbound email bodies from the embedded templates.
type MailRenderer struct {
	engine *django.Engine
}

// NewMailRenderer loads the embedded email templates. Call once at startup;
// a load failure is a packaging error.
func NewMailRenderer() (*MailRenderer, error) {
	engine := django.NewFileSystem(http.FS(viewsFS), ".html")

	if err := engine.Load(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load email templates")
	}

	return &MailRenderer{engine: engine}, nil
}

// RenderConfirmation produces the HTML body for the signup confirmation
// email. The link is the provider verification URL with the redirect baked
// in.
func (r *MailRenderer) RenderConfirmation(fullName, confirmationLink string) (string, error) {
	if fullName == "" {
		fullName = "there"
	}

	var buf bytes.Buffer
	err := r.engine.Render(&buf, "views/confirmation_email", map[string]any{
		"full_name":         fullName,
		"confirmation_link": confirmationLink,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
