package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/cirqulofit/internal/catalog"
	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/progression"
	"github.com/claude/cirqulofit/internal/session"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type userResponse struct {
	User      models.User               `json:"user"`
	LevelName string                    `json:"levelName"`
	Progress  progression.LevelProgress `json:"progress"`
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	u := s.machine.User()
	writeJSON(w, http.StatusOK, userResponse{
		User:      u,
		LevelName: catalog.LevelName(u.Level),
		Progress:  progression.Progress(u),
	})
}

// handleHistory pages through completed sessions, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil || limit < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		return
	}
	limit = min(limit, maxHistoryLimit)
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a non-negative integer"})
		return
	}

	u := s.machine.User()
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  len(u.WorkoutHistory),
		"limit":  limit,
		"offset": offset,
		"items":  u.RecentHistory(limit, offset),
	})
}

func (s *Server) handleUnlockAchievement(w http.ResponseWriter, r *http.Request) {
	var a models.Achievement
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if a.ID == "" || a.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id and name are required"})
		return
	}
	if a.UnlockedAt.IsZero() {
		a.UnlockedAt = time.Now().UTC()
	}
	s.dispatch(w, r, session.UnlockAchievement{Achievement: a})
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.LevelUp{})
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Exercises())
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Levels())
}

// handleGif resolves a catalog exercise ID to a GIF URL. A miss is a null
// url so clients show their placeholder.
func (s *Server) handleGif(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "exercise")
	ex, ok := catalog.ExerciseByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "exercise not found"})
		return
	}
	var url *string
	if u := s.gifs.Lookup(r.Context(), ex.Name); u != "" {
		url = &u
	}
	writeJSON(w, http.StatusOK, map[string]any{"exercise": id, "url": url})
}

// handlePreloadGifs resolves every catalog exercise at once.
func (s *Server) handlePreloadGifs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gifs.Preload(r.Context(), catalog.Exercises()))
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
