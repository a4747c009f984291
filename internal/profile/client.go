package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/cirqulofit/internal/models"
)

// TokenSaver receives the access token issued by Login.
type TokenSaver interface {
	SaveToken(ctx context.Context, token string) error
}

// APIError is a non-2xx answer from the profile API.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("profile api: status %d", e.Status)
}

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// AuthResponse is the token grant returned by Login.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Update is a partial account edit. Nil fields are left out of the request.
type Update struct {
	Email      *string `json:"email,omitempty"`
	Username   *string `json:"username,omitempty"`
	Name       *string `json:"name,omitempty"`
	Level      *int    `json:"level,omitempty"`
	Experience *int    `json:"experience,omitempty"`
}

// Client talks to the profile and statistics REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSaver
	token      string
}

// NewClient creates a client for baseURL. tokens may be nil.
func NewClient(baseURL string, tokens TokenSaver) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
	}
}

// WithToken returns a copy of c that authenticates as token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Token returns the bearer token the client sends, if any.
func (c *Client) Token() string {
	return c.token
}

// Login exchanges credentials for an access token using the OAuth2 password
// form, where username carries the email. The token is kept on c and saved.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return AuthResponse{}, fmt.Errorf("profile: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out AuthResponse
	if err := c.send(req, &out); err != nil {
		return AuthResponse{}, fmt.Errorf("login: %w", err)
	}
	if out.AccessToken == "" {
		return AuthResponse{}, errors.New("login: response carried no access token")
	}

	c.token = out.AccessToken
	if c.tokens != nil {
		if err := c.tokens.SaveToken(ctx, out.AccessToken); err != nil {
			return out, fmt.Errorf("saving token: %w", err)
		}
	}
	return out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (models.Account, error) {
	var out models.Account
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", r, &out); err != nil {
		return models.Account{}, fmt.Errorf("register: %w", err)
	}
	return out, nil
}

// CurrentUser returns the account behind the token.
func (c *Client) CurrentUser(ctx context.Context) (models.Account, error) {
	var out models.Account
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return models.Account{}, fmt.Errorf("current user: %w", err)
	}
	return out, nil
}

// GetUserProfile returns the account with its remote statistics.
func (c *Client) GetUserProfile(ctx context.Context) (UserProfile, error) {
	var out UserProfile
	if err := c.doJSON(ctx, http.MethodGet, "/users/profile", nil, &out); err != nil {
		return UserProfile{}, fmt.Errorf("get profile: %w", err)
	}
	return out, nil
}

// UpdateProfile applies a partial edit and returns the updated account.
func (c *Client) UpdateProfile(ctx context.Context, u Update) (models.Account, error) {
	var out models.Account
	if err := c.doJSON(ctx, http.MethodPut, "/users/profile", u, &out); err != nil {
		return models.Account{}, fmt.Errorf("update profile: %w", err)
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: detail(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// detail extracts the "detail" field of an error body. Non-string details,
// such as validation error lists, are returned as raw JSON.
func detail(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &e); err != nil || len(e.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return s
	}
	return string(e.Detail)
}
