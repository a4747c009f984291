package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/cirqulofit/internal/models"
)

var (
	// ErrUnauthenticated means the caller has no valid session. Transport and
	// decoding failures against the identity provider are reported as this too.
	ErrUnauthenticated = errors.New("auth: not authenticated")

	// ErrNoAccess means the token is valid but the account may not use this app.
	ErrNoAccess = errors.New("auth: no access to app")
)

// Gateway is the identity provider boundary.
type Gateway interface {
	// CheckSession validates token and returns the account behind it.
	CheckSession(ctx context.Context, token string) (models.Account, error)
	// LoginURL is where a client goes to sign in, returning to redirect.
	LoginURL(redirect string) string
	// RegisterURL is where a client goes to sign up, returning to redirect.
	RegisterURL(redirect string) string
	// LogoutURL is where a client lands after signing out.
	LogoutURL() string
}

// Maestro implements Gateway against the Maestro identity service.
type Maestro struct {
	webURL     string
	apiURL     string
	appName    string
	httpClient *http.Client
	log        *slog.Logger
}

var _ Gateway = (*Maestro)(nil)

// NewMaestro creates a gateway. webURL hosts the login pages and apiURL the
// token endpoints.
func NewMaestro(webURL, apiURL, appName string, logger *slog.Logger) *Maestro {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Maestro{
		webURL:     strings.TrimRight(webURL, "/"),
		apiURL:     strings.TrimRight(apiURL, "/"),
		appName:    appName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger,
	}
}

// CheckSession verifies the token, then the app grant, then loads the account.
func (m *Maestro) CheckSession(ctx context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, ErrUnauthenticated
	}

	if _, err := m.do(ctx, http.MethodGet, "/auth/verify-token", token, nil); err != nil {
		return models.Account{}, m.degrade("verify-token", err)
	}

	body, err := m.do(ctx, http.MethodPost, "/auth/check-app-access", token, map[string]string{"app_name": m.appName})
	if err != nil {
		return models.Account{}, m.degrade("check-app-access", err)
	}
	var access struct {
		HasAccess bool `json:"has_access"`
	}
	if err := json.Unmarshal(body, &access); err != nil {
		return models.Account{}, m.degrade("check-app-access", fmt.Errorf("decoding response: %w", err))
	}
	if !access.HasAccess {
		return models.Account{}, ErrNoAccess
	}

	body, err = m.do(ctx, http.MethodGet, "/auth/me", token, nil)
	if err != nil {
		return models.Account{}, m.degrade("me", err)
	}
	var acct models.Account
	if err := json.Unmarshal(body, &acct); err != nil {
		return models.Account{}, m.degrade("me", fmt.Errorf("decoding response: %w", err))
	}
	return acct, nil
}

func (m *Maestro) LoginURL(redirect string) string {
	return m.withRedirect("/login", redirect)
}

func (m *Maestro) RegisterURL(redirect string) string {
	return m.withRedirect("/register", redirect)
}

func (m *Maestro) LogoutURL() string {
	return m.webURL + "/login"
}

func (m *Maestro) withRedirect(path, redirect string) string {
	u := m.webURL + path
	if redirect != "" {
		u += "?redirect=" + url.QueryEscape(redirect)
	}
	return u
}

// degrade logs a provider failure and folds it into ErrUnauthenticated.
func (m *Maestro) degrade(step string, err error) error {
	m.log.Warn("identity check failed", "step", step, "error", err)
	return fmt.Errorf("%w: %s: %w", ErrUnauthenticated, step, err)
}

func (m *Maestro) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, data)
	}
	return data, nil
}
