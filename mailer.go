package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// HTTPMailer delivers email through an HTTP delivery endpoint, e.g. an edge
// function fronting the actual email service.
type HTTPMailer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   Logger
}

var _ Mailer = (*HTTPMailer)(nil)

type MailerOption func(*HTTPMailer) *HTTPMailer

// WithMailerHTTPClient overrides the HTTP client, mostly for tests.
func WithMailerHTTPClient(client *http.Client) MailerOption {
	return func(m *HTTPMailer) *HTTPMailer {
		if client != nil {
			m.client = client
		}
		return m
	}
}

// WithMailerLogger overrides the mailer logger.
func WithMailerLogger(logger Logger) MailerOption {
	return func(m *HTTPMailer) *HTTPMailer {
		if logger != nil {
			m.logger = logger
		}
		return m
	}
}

// NewHTTPMailer creates a mailer posting to endpoint, authenticated with
// apiKey as a bearer token.
func NewHTTPMailer(endpoint, apiKey string, opts ...MailerOption) *HTTPMailer {
	m := &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			m = opt(m)
		}
	}

	return m
}

type mailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// mailResult is the delivery endpoint's response envelope. Success is a
// pointer so an endpoint that answers with an empty body still counts as
// delivered on a 2xx status.
type mailResult struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// Send posts one email. A non-2xx response is a delivery failure, and so is
// a 2xx response whose envelope reports success false.
func (m *HTTPMailer) Send(ctx context.Context, to, subject, html string) error {
	body, err := json.Marshal(mailPayload{
		To:      to,
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode mail payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build mail request")
	}

	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	res, err := m.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "mail delivery request failed")
	}
	defer res.Body.Close()

	detail, _ := io.ReadAll(io.LimitReader(res.Body, 4096))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		m.logger.Error("mail endpoint returned %d: %s", res.StatusCode, detail)
		return goerrors.New(
			fmt.Sprintf("mail endpoint returned status %d", res.StatusCode),
			goerrors.CategoryOperation,
		).WithTextCode(textCodeDeliveryFailed)
	}

	if len(bytes.TrimSpace(detail)) == 0 {
		return nil
	}

	var result mailResult
	if err := json.Unmarshal(detail, &result); err != nil {
		m.logger.Error("mail endpoint returned malformed body: %s", detail)
		return goerrors.Wrap(err, goerrors.CategoryOperation, "malformed mail endpoint response").
			WithTextCode(textCodeDeliveryFailed)
	}

	if result.Success != nil && !*result.Success {
		msg := result.Error
		if msg == "" {
			msg = "mail endpoint reported delivery failure"
		}
		m.logger.Error("mail endpoint rejected delivery: %s", msg)
		return goerrors.New(msg, goerrors.CategoryOperation).
			WithTextCode(textCodeDeliveryFailed)
	}

	return nil
}
