package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/session"
)

// stateResponse is the app state plus the active session's set progress.
type stateResponse struct {
	models.AppState
	Progress *models.Progress `json:"progress,omitempty"`
}

func newStateResponse(st models.AppState) stateResponse {
	resp := stateResponse{AppState: st}
	if st.CurrentSession != nil {
		p := st.CurrentSession.Progress()
		resp.Progress = &p
	}
	return resp
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.machine.Snapshot()))
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.StartWorkout{})
}

func (s *Server) handleStopWorkout(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.StopWorkout{})
}

// handleCompleteWorkout only completes a session whose sets are all done.
func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	s.dispatchActive(w, r, session.CompleteWorkout{})
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	ex, set, ok := setIndices(w, r)
	if !ok {
		return
	}
	s.dispatchActive(w, r, session.CompleteSet{ExerciseIndex: ex, SetIndex: set})
}

func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	ex, set, ok := setIndices(w, r)
	if !ok {
		return
	}
	var body struct {
		Weight *float64 `json:"weight"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Weight == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "weight is required"})
		return
	}
	s.dispatchActive(w, r, session.UpdateWeight{ExerciseIndex: ex, SetIndex: set, Weight: *body.Weight})
}

func (s *Server) handleUpdateReps(w http.ResponseWriter, r *http.Request) {
	ex, set, ok := setIndices(w, r)
	if !ok {
		return
	}
	var body struct {
		Reps *int `json:"reps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Reps == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reps is required"})
		return
	}
	s.dispatchActive(w, r, session.UpdateReps{ExerciseIndex: ex, SetIndex: set, Reps: *body.Reps})
}

func (s *Server) handleStartTimer(w http.ResponseWriter, r *http.Request) {
	var body session.StartTimer
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	s.dispatch(w, r, body)
}

func (s *Server) handleStopTimer(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, session.StopTimer{})
}

// dispatchActive rejects commands while idle, and completion while any set
// is open, instead of returning the unchanged state.
func (s *Server) dispatchActive(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	st, err := s.machine.DispatchActive(r.Context(), cmd)
	s.respond(w, cmd, st, err)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, cmd session.Command) {
	st, err := s.machine.Dispatch(r.Context(), cmd)
	s.respond(w, cmd, st, err)
}

func (s *Server) respond(w http.ResponseWriter, cmd session.Command, st models.AppState, err error) {
	switch {
	case errors.Is(err, session.ErrNoActiveWorkout):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no active workout"})
	case errors.Is(err, session.ErrIncompleteSets):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":    "not every set is completed",
			"progress": st.CurrentSession.Progress(),
		})
	case errors.Is(err, session.ErrIndexOutOfRange):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrInvalidTimerType):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case err != nil:
		s.log.Error("command failed", "command", cmd.Name(), "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, newStateResponse(st))
	}
}

func setIndices(w http.ResponseWriter, r *http.Request) (exercise, set int, ok bool) {
	exercise, err := strconv.Atoi(chi.URLParam(r, "exercise"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise index must be an integer"})
		return 0, 0, false
	}
	set, err = strconv.Atoi(chi.URLParam(r, "set"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "set index must be an integer"})
		return 0, 0, false
	}
	return exercise, set, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
