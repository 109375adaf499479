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

// ConfirmationClient calls the confirmation dispatch endpoint from the
// registration flow. It is the client half of ConfirmationController.
type ConfirmationClient struct {
	endpoint string
	anonKey  string
	client   *http.Client
}

var _ ConfirmationSender = (*ConfirmationClient)(nil)

type ConfirmationClientOption func(*ConfirmationClient) *ConfirmationClient

// WithConfirmationHTTPClient overrides the HTTP client, mostly for tests.
func WithConfirmationHTTPClient(client *http.Client) ConfirmationClientOption {
	return func(c *ConfirmationClient) *ConfirmationClient {
		if client != nil {
			c.client = client
		}
		return c
	}
}

// NewConfirmationClient creates a client for the dispatch endpoint. anonKey
// is sent as the bearer token and apikey header.
func NewConfirmationClient(endpoint, anonKey string, opts ...ConfirmationClientOption) *ConfirmationClient {
	c := &ConfirmationClient{
		endpoint: endpoint,
		anonKey:  anonKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

type sendConfirmationRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
}

// SendConfirmation asks the dispatch endpoint to email the confirmation
// link. Returns the human-readable outcome message on success.
func (c *ConfirmationClient) SendConfirmation(ctx context.Context, email, fullName string) (string, error) {
	body, err := json.Marshal(sendConfirmationRequest{
		Email:    email,
		FullName: fullName,
	})
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode confirmation request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build confirmation request")
	}

	req.Header.Set("Content-Type", "application/json")
	if c.anonKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
		req.Header.Set("Apikey", c.anonKey)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "confirmation request failed")
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))

	var envelope SendConfirmationResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", goerrors.New(
			fmt.Sprintf("confirmation endpoint returned status %d", res.StatusCode),
			goerrors.CategoryOperation,
		).WithTextCode(textCodeDeliveryFailed)
	}

	if res.StatusCode != http.StatusOK || !envelope.Success {
		msg := envelope.Error
		if msg == "" {
			msg = fmt.Sprintf("confirmation endpoint returned status %d", res.StatusCode)
		}
		return "", goerrors.New(msg, goerrors.CategoryOperation).
			WithTextCode(textCodeDeliveryFailed)
	}

	return envelope.Message, nil
}
