// Package auth provides pluggable credential providers for the fetcher.
// A provider supplies auth headers for outgoing requests and refreshes them
// when the server reports an expired credential.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenProvider is the credential boundary consumed by the fetch engine.
type TokenProvider interface {
	// Headers returns the headers to attach to requests. May be empty
	// before the first successful Refresh.
	Headers() map[string]string

	// Refresh obtains fresh credentials.
	Refresh(ctx context.Context) error
}

// Config holds the PasswordProvider configuration.
type Config struct {
	// AuthURL is the JSON login endpoint. Required.
	AuthURL string

	// Username and Password are posted as a JSON payload. Username required.
	Username string
	Password string

	// TokenField names the JSON response field holding the token.
	// Default "access_token".
	TokenField string

	// TokenTTL bounds how long a stored token is shared. Only used when
	// Store is set. Default 15 minutes.
	TokenTTL time.Duration

	// Store optionally shares the token across processes so concurrent
	// fetcher instances reuse one login.
	Store TokenStore

	// HTTPClient overrides the client used for login requests.
	HTTPClient *http.Client

	// Logger receives auth events. Nil derives a component logger.
	Logger *zerolog.Logger
}

// PasswordProvider exchanges a username/password for a bearer token via a
// JSON login endpoint. Safe for concurrent use.
type PasswordProvider struct {
	cfg        Config
	httpClient *http.Client
	logger     zerolog.Logger

	mu      sync.RWMutex
	token   string
	headers map[string]string
}

// NewPasswordProvider creates a provider. Credentials are not fetched until
// the first Refresh.
func NewPasswordProvider(cfg Config) (*PasswordProvider, error) {
	if cfg.AuthURL == "" {
		return nil, fmt.Errorf("auth url is required")
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("username is required")
	}

	if cfg.TokenField == "" {
		cfg.TokenField = "access_token"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 15 * time.Minute
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	} else {
		logger = log.With().Str("component", "auth").Logger()
	}

	return &PasswordProvider{
		cfg:        cfg,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Headers returns a copy of the current auth headers.
func (p *PasswordProvider) Headers() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	headers := make(map[string]string, len(p.headers))
	for key, value := range p.headers {
		headers[key] = value
	}
	return headers
}

// Refresh obtains a token, consulting the shared store first and writing a
// freshly fetched token through on success. A stored token identical to the
// one that just failed is ignored, so a 401-triggered refresh always
// reaches the login endpoint.
func (p *PasswordProvider) Refresh(ctx context.Context) error {
	if p.cfg.Store != nil {
		if token, err := p.cfg.Store.Load(ctx); err != nil {
			p.logger.Warn().Err(err).Msg("Token store load failed")
		} else if token != "" && token != p.currentToken() {
			p.setToken(token)
			p.logger.Debug().Msg("Token loaded from shared store")
			return nil
		}
	}

	token, err := p.login(ctx)
	if err != nil {
		return err
	}
	p.setToken(token)

	if p.cfg.Store != nil {
		if err := p.cfg.Store.Save(ctx, token, p.cfg.TokenTTL); err != nil {
			p.logger.Warn().Err(err).Msg("Token store save failed")
		}
	}

	p.logger.Info().Msg("Token refreshed")
	return nil
}

// login posts the credentials and extracts the configured token field.
func (p *PasswordProvider) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": p.cfg.Username,
		"password": p.cfg.Password,
	})
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.AuthURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("authentication failed with status %d", resp.StatusCode)
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}

	raw, ok := body[p.cfg.TokenField]
	if !ok {
		return "", fmt.Errorf("token field %q not found in login response", p.cfg.TokenField)
	}

	var token string
	if err := json.Unmarshal(raw, &token); err != nil {
		return "", fmt.Errorf("parse token field %q: %w", p.cfg.TokenField, err)
	}
	if token == "" {
		return "", fmt.Errorf("token field %q is empty", p.cfg.TokenField)
	}

	return token, nil
}

func (p *PasswordProvider) setToken(token string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.token = token
	p.headers = map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}
}

func (p *PasswordProvider) currentToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}
