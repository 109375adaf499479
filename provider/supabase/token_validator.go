package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"

	gate "github.com/goliatone/go-account-gate"
)

// TokenValidator validates Supabase-issued access tokens against the
// project's JWKS endpoint. Keys refresh in the background until Close.
type TokenValidator struct {
	jwks   *keyfunc.JWKS
	logger gate.Logger
}

// NewTokenValidator fetches the JWKS and starts the refresh loop. ctx bounds
// both the initial fetch and the background refreshes.
func NewTokenValidator(ctx context.Context, cfg Config) (*TokenValidator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("supabase: base URL is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	jwksURL := fmt.Sprintf("%s/auth/v1/.well-known/jwks.json", strings.TrimRight(cfg.BaseURL, "/"))

	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:             ctx,
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: failed to fetch JWKS: %w", err)
	}

	return &TokenValidator{
		jwks:   jwks,
		logger: logger,
	}, nil
}

// Validate parses and verifies an access token, returning its claims.
func (v *TokenValidator) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, v.jwks.Keyfunc)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, "invalid access token").
			WithCode(goerrors.CodeUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, goerrors.New("invalid access token claims", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	v.jwks.EndBackground()
}
