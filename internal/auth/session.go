package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/cirqulofit/internal/models"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// State is what the rest of the app sees of authentication.
type State struct {
	IsAuthenticated bool            `json:"isAuthenticated"`
	User            *models.Account `json:"user"`
}

// Session tracks the local sign-in backed by a stored token.
type Session struct {
	gw     Gateway
	tokens TokenStore
	log    *slog.Logger

	mu      sync.RWMutex
	token   string
	account *models.Account
}

// NewSession creates an unauthenticated session.
func NewSession(gw Gateway, tokens TokenStore, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{gw: gw, tokens: tokens, log: logger}
}

// Initialize restores the stored token and validates it. A token the
// provider rejects is removed. Without a stored token the session simply
// stays unauthenticated.
func (s *Session) Initialize(ctx context.Context) State {
	token, err := s.tokens.LoadToken(ctx)
	if err != nil {
		s.log.Warn("failed to load stored token", "error", err)
		return s.State()
	}
	if token == "" {
		return s.State()
	}

	acct, err := s.gw.CheckSession(ctx, token)
	switch {
	case err == nil:
		s.set(token, &acct)
		s.log.Info("session restored", "user", acct.Username)
	case errors.Is(err, ErrUnauthenticated):
		if cerr := s.tokens.ClearToken(ctx); cerr != nil {
			s.log.Warn("failed to clear stored token", "error", cerr)
		}
	default:
		s.log.Info("stored token not usable", "error", err)
	}
	return s.State()
}

// SignIn validates token and, when accepted, stores it.
func (s *Session) SignIn(ctx context.Context, token string) (models.Account, error) {
	acct, err := s.gw.CheckSession(ctx, token)
	if err != nil {
		return models.Account{}, err
	}
	if err := s.tokens.SaveToken(ctx, token); err != nil {
		s.log.Warn("failed to persist token", "error", err)
	}
	s.set(token, &acct)
	return acct, nil
}

// Logout forgets the session and returns where the client should go next.
func (s *Session) Logout(ctx context.Context) (string, error) {
	s.set("", nil)
	if err := s.tokens.ClearToken(ctx); err != nil {
		return s.gw.LogoutURL(), fmt.Errorf("clearing token: %w", err)
	}
	return s.gw.LogoutURL(), nil
}

// UpdateUser replaces the cached account after a profile edit.
func (s *Session) UpdateUser(acct models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		s.account = &acct
	}
}

// State returns a copy of the current authentication state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return State{}
	}
	acct := *s.account
	return State{IsAuthenticated: true, User: &acct}
}

// Token returns the active bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) set(token string, acct *models.Account) {
	s.mu.Lock()
	s.token = token
	s.account = acct
	s.mu.Unlock()
}
