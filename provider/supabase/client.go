package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"

	gate "github.com/goliatone/go-account-gate"
)

// Config holds Supabase connection settings.
type Config struct {
	// BaseURL is the project URL, e.g. "https://xyz.supabase.co".
	BaseURL string

	// AnonKey is the public client key for user-facing calls.
	AnonKey string

	// ServiceKey is the service role key. Required only for admin lookups.
	ServiceKey string

	// HTTPClient overrides the default client (optional).
	HTTPClient *http.Client

	// Logger overrides the default logger (optional).
	Logger gate.Logger
}

// Client talks to the Supabase auth API. It keeps the current session
// in memory and notifies auth-change listeners on sign-in and sign-out, the
// same contract the hosted client libraries expose.
type Client struct {
	config Config
	client *http.Client
	logger gate.Logger

	mu          sync.Mutex
	session     *gate.RawSession
	listeners   map[int]func(*gate.RawSession)
	listenerSeq int
}

var (
	_ gate.IdentityClient = (*Client)(nil)
	_ gate.IdentityAdmin  = (*Client)(nil)
)

// New creates a Supabase auth client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("supabase: base URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase: anon key is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	return &Client{
		config:    cfg,
		client:    client,
		logger:    logger,
		listeners: map[int]func(*gate.RawSession){},
	}, nil
}

func (c *Client) authURL(path string) string {
	return fmt.Sprintf("%s/auth/v1/%s", strings.TrimRight(c.config.BaseURL, "/"), strings.TrimLeft(path, "/"))
}

type signUpRequest struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// SignUp registers a new account. With email confirmation enabled the
// provider returns the pending user and no session; the account stays
// unusable until the confirmation link is clicked.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*gate.AuthUser, error) {
	body := signUpRequest{
		Email:    email,
		Password: password,
		Data:     metadata,
	}

	user := &gate.AuthUser{}
	if err := c.do(ctx, http.MethodPost, c.authURL("signup"), c.config.AnonKey, "", body, user); err != nil {
		return nil, err
	}

	return user, nil
}

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string         `json:"access_token"`
	TokenType    string         `json:"token_type"`
	ExpiresIn    int            `json:"expires_in"`
	RefreshToken string         `json:"refresh_token"`
	User         *gate.AuthUser `json:"user"`
}

// SignInWithPassword exchanges credentials for a session and announces the
// transition to auth-change listeners.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	body := passwordGrantRequest{
		Email:    email,
		Password: password,
	}

	res := &tokenResponse{}
	err := c.do(ctx, http.MethodPost, c.authURL("token?grant_type=password"), c.config.AnonKey, "", body, res)
	if err != nil {
		return err
	}

	session := &gate.RawSession{
		AccessToken:  res.AccessToken,
		TokenType:    res.TokenType,
		RefreshToken: res.RefreshToken,
		User:         res.User,
	}

	if res.ExpiresIn > 0 {
		expiresAt := time.Now().Add(time.Duration(res.ExpiresIn) * time.Second)
		session.ExpiresAt = &expiresAt
	}

	c.setSession(session)

	return nil
}

// SignOut revokes the session at the provider and clears the local one. The
// local session is cleared even when revocation fails so callers cannot get
// wedged into a half-signed-in state.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	var revokeErr error
	if session != nil && session.AccessToken != "" {
		revokeErr = c.do(ctx, http.MethodPost, c.authURL("logout"), c.config.AnonKey, session.AccessToken, nil, nil)
	}

	c.setSession(nil)

	return revokeErr
}

// GetSession returns a copy of the current session, or nil when signed out.
// It never performs a network call; the session lives with the client.
func (c *Client) GetSession(ctx context.Context) (*gate.RawSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, nil
	}

	session := *c.session
	return &session, nil
}

type resendRequest struct {
	Type  string `json:"type"`
	Email string `json:"email"`
}

// Resend asks the provider to send its verification email again. The
// provider rate-limits and deduplicates on its side.
func (c *Client) Resend(ctx context.Context, typ gate.ResendType, email string) error {
	body := resendRequest{
		Type:  typ,
		Email: email,
	}

	return c.do(ctx, http.MethodPost, c.authURL("resend"), c.config.AnonKey, "", body, nil)
}

// VerifyEmailConfirmation redeems a confirmation token. The hosted flow does
// this through the emailed link; this method backs server-side redemption.
func (c *Client) VerifyEmailConfirmation(ctx context.Context, token string) error {
	url := fmt.Sprintf("%s?token=%s&type=signup", c.authURL("verify"), token)
	return c.do(ctx, http.MethodGet, url, c.config.AnonKey, "", nil, nil)
}

// OnAuthStateChange registers fn to run on every session transition. The
// returned function unregisters it. Callbacks run synchronously on the
// goroutine that triggered the transition.
func (c *Client) OnAuthStateChange(fn func(*gate.RawSession)) func() {
	c.mu.Lock()
	id := c.listenerSeq
	c.listenerSeq++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

type listUsersResponse struct {
	Users []gate.AuthUser `json:"users"`
}

// ListUsers returns every identity known to the provider, confirmed or not.
// Requires the service role key.
func (c *Client) ListUsers(ctx context.Context) ([]gate.AuthUser, error) {
	if c.config.ServiceKey == "" {
		return nil, goerrors.New("service role key is required for admin lookups", goerrors.CategoryOperation)
	}

	res := &listUsersResponse{}
	err := c.do(ctx, http.MethodGet, c.authURL("admin/users"), c.config.ServiceKey, c.config.ServiceKey, nil, res)
	if err != nil {
		return nil, err
	}

	return res.Users, nil
}

func (c *Client) setSession(session *gate.RawSession) {
	c.mu.Lock()
	c.session = session
	listeners := make([]func(*gate.RawSession), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	var copied *gate.RawSession
	if session != nil {
		s := *session
		copied = &s
	}

	for _, fn := range listeners {
		fn(copied)
	}
}

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// do runs one API call. apikey goes on every request; bearer only when a
// token is available or the call is privileged.
func (c *Client) do(ctx context.Context, method, url, apiKey, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}

	req.Header.Set("apikey", apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "identity provider request failed")
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(raw, &apiErr)

		msg := apiErr.text()
		if msg == "" {
			msg = fmt.Sprintf("identity provider returned status %d", res.StatusCode)
		}

		c.logger.Debug("provider call %s %s failed: %d %s", method, url, res.StatusCode, msg)

		return goerrors.New(msg, goerrors.CategoryAuth).
			WithMetadata(map[string]any{
				"status": res.StatusCode,
			})
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode provider response")
		}
	}

	return nil
}
