package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/cirqulofit/internal/auth"
	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/profile"
)

// handleAuthMe reports the local sign-in state. A bearer token on the
// request is checked instead of the stored session when present.
func (s *Server) handleAuthMe(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		writeJSON(w, http.StatusOK, s.auth.State())
		return
	}
	acct, err := s.gateway.CheckSession(r.Context(), token)
	if err != nil {
		writeJSON(w, http.StatusOK, auth.State{})
		return
	}
	writeJSON(w, http.StatusOK, auth.State{IsAuthenticated: true, User: &acct})
}

func (s *Server) handleLoginURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.gateway.LoginURL(r.URL.Query().Get("redirect"))})
}

func (s *Server) handleRegisterURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": s.gateway.RegisterURL(r.URL.Query().Get("redirect"))})
}

// handleSignIn accepts the token handed back by the identity provider.
func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token is required"})
		return
	}
	acct, err := s.auth.SignIn(r.Context(), body.Token)
	switch {
	case errors.Is(err, auth.ErrNoAccess):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "account has no access to this app"})
	case err != nil:
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	default:
		writeJSON(w, http.StatusOK, auth.State{IsAuthenticated: true, User: &acct})
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	next, err := s.auth.Logout(r.Context())
	if err != nil {
		s.log.Warn("logout", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": next})
}

type profileResponse struct {
	User  models.Account   `json:"user"`
	Stats models.UserStats `json:"stats"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profile.WithToken(tokenFromContext(r)).GetUserProfile(r.Context())
	if err != nil {
		s.upstreamError(w, "get profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: p.User, Stats: p.Stats.Stats()})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u profile.Update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	acct, err := s.profile.WithToken(tokenFromContext(r)).UpdateProfile(r.Context(), u)
	if err != nil {
		s.upstreamError(w, "update profile", err)
		return
	}
	if current, ok := accountFromContext(r); ok && current.ID == acct.ID {
		s.auth.UpdateUser(acct)
	}
	writeJSON(w, http.StatusOK, acct)
}

// upstreamError passes client errors from the profile API through and maps
// everything else to 502.
func (s *Server) upstreamError(w http.ResponseWriter, op string, err error) {
	var apiErr *profile.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		writeJSON(w, apiErr.Status, map[string]string{"error": apiErr.Error()})
		return
	}
	s.log.Warn("profile api failed", "op", op, "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "profile service unavailable"})
}
