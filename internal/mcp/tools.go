package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/cirqulofit/internal/catalog"
	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/progression"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// --- Tool definitions ---

var toolGetWorkoutState = mcp.NewTool("get_workout_state",
	mcp.WithDescription("Get the current workout state: whether a session is active, every exercise with its sets, the timer, and set completion progress."),
)

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new workout from the template for the user's level. Replaces any session already in progress."),
)

var toolStopWorkout = mcp.NewTool("stop_workout",
	mcp.WithDescription("Abandon the active workout. Nothing is recorded in the history."),
)

var toolCompleteSet = mcp.NewTool("complete_set",
	mcp.WithDescription("Mark one set of the active workout as done. Indices are zero-based positions in get_workout_state."),
	mcp.WithNumber("exercise_index", mcp.Required(), mcp.Description("Zero-based exercise position")),
	mcp.WithNumber("set_index", mcp.Required(), mcp.Description("Zero-based set position within the exercise")),
)

var toolUpdateSet = mcp.NewTool("update_set",
	mcp.WithDescription("Change the weight and/or reps of one set of the active workout. At least one of weight or reps is required."),
	mcp.WithNumber("exercise_index", mcp.Required(), mcp.Description("Zero-based exercise position")),
	mcp.WithNumber("set_index", mcp.Required(), mcp.Description("Zero-based set position within the exercise")),
	mcp.WithNumber("weight", mcp.Description("New weight in kg")),
	mcp.WithNumber("reps", mcp.Description("New repetition count")),
)

var toolStartTimer = mcp.NewTool("start_timer",
	mcp.WithDescription("Start the countdown timer. Replaces any running countdown."),
	mcp.WithNumber("duration", mcp.Required(), mcp.Description("Countdown length in seconds")),
	mcp.WithString("type", mcp.Description("Timer type. Defaults to 'rest'."), mcp.Enum("rest", "work", "warmup", "cooldown")),
)

var toolStopTimer = mcp.NewTool("stop_timer",
	mcp.WithDescription("Pause the countdown timer, keeping the remaining time."),
)

var toolCompleteWorkout = mcp.NewTool("complete_workout",
	mcp.WithDescription("Finish the active workout once every set is done. Records it in the history and awards experience."),
)

var toolGetUserStats = mcp.NewTool("get_user_stats",
	mcp.WithDescription("Get the user's level, experience progress, cumulative stats (workouts, minutes, volume, streaks, favorite exercise) and achievements."),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("List completed workouts, newest first."),
	mcp.WithNumber("limit", mcp.Description("Maximum sessions to return. Defaults to 10, capped at 100.")),
	mcp.WithNumber("offset", mcp.Description("Number of most recent sessions to skip. Defaults to 0.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List catalog exercises with muscle groups, equipment and instructions."),
	mcp.WithString("muscle_group", mcp.Description("Filter by muscle group (partial match, case-insensitive)")),
)

// --- Tool handlers ---

// stateResult renders the app state with set progress, like the REST API.
func stateResult(st models.AppState) *mcp.CallToolResult {
	out := map[string]any{
		"isWorkoutActive": st.IsWorkoutActive,
		"currentSession":  st.CurrentSession,
		"timer":           st.Timer,
	}
	if st.CurrentSession != nil {
		out["progress"] = st.CurrentSession.Progress()
	}
	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

func (h *handlers) command(name string, st models.AppState, err error) *mcp.CallToolResult {
	if err != nil {
		h.log.Warn("mcp "+name, "error", err)
		return mcp.NewToolResultError(name + " failed: " + err.Error())
	}
	return stateResult(st)
}

// requireActive returns a tool error when no workout is in progress.
func (h *handlers) requireActive(ctx context.Context) (models.AppState, *mcp.CallToolResult) {
	st, err := h.t.State(ctx)
	if err != nil {
		h.log.Error("mcp state", "error", err)
		return st, mcp.NewToolResultError("query failed: " + err.Error())
	}
	if !st.IsWorkoutActive || st.CurrentSession == nil {
		return st, mcp.NewToolResultError("no active workout; call start_workout first")
	}
	return st, nil
}

func setIndices(req mcp.CallToolRequest) (exercise, set int, res *mcp.CallToolResult) {
	exercise, err := req.RequireInt("exercise_index")
	if err != nil {
		return 0, 0, mcp.NewToolResultError("exercise_index parameter is required")
	}
	set, err = req.RequireInt("set_index")
	if err != nil {
		return 0, 0, mcp.NewToolResultError("set_index parameter is required")
	}
	return exercise, set, nil
}

func (h *handlers) getWorkoutState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.t.State(ctx)
	if err != nil {
		h.log.Error("mcp get_workout_state", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return stateResult(st), nil
}

func (h *handlers) startWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.t.StartWorkout(ctx)
	return h.command("start_workout", st, err), nil
}

func (h *handlers) stopWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, res := h.requireActive(ctx); res != nil {
		return res, nil
	}
	st, err := h.t.StopWorkout(ctx)
	return h.command("stop_workout", st, err), nil
}

func (h *handlers) completeSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ex, set, res := setIndices(req)
	if res != nil {
		return res, nil
	}
	if _, res := h.requireActive(ctx); res != nil {
		return res, nil
	}
	st, err := h.t.CompleteSet(ctx, ex, set)
	return h.command("complete_set", st, err), nil
}

func (h *handlers) updateSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ex, set, res := setIndices(req)
	if res != nil {
		return res, nil
	}
	args := req.GetArguments()
	_, hasWeight := args["weight"]
	_, hasReps := args["reps"]
	if !hasWeight && !hasReps {
		return mcp.NewToolResultError("weight or reps is required"), nil
	}
	if _, res := h.requireActive(ctx); res != nil {
		return res, nil
	}

	var (
		st  models.AppState
		err error
	)
	if hasWeight {
		st, err = h.t.UpdateWeight(ctx, ex, set, req.GetFloat("weight", 0))
		if err != nil {
			return h.command("update_set", st, err), nil
		}
	}
	if hasReps {
		st, err = h.t.UpdateReps(ctx, ex, set, req.GetInt("reps", 0))
	}
	return h.command("update_set", st, err), nil
}

func (h *handlers) startTimer(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	duration, err := req.RequireInt("duration")
	if err != nil {
		return mcp.NewToolResultError("duration parameter is required"), nil
	}
	timerType := models.TimerType(req.GetString("type", string(models.TimerRest)))
	if !timerType.Valid() {
		return mcp.NewToolResultError("invalid timer type: " + string(timerType)), nil
	}
	st, err := h.t.StartTimer(ctx, duration, timerType)
	return h.command("start_timer", st, err), nil
}

func (h *handlers) stopTimer(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.t.StopTimer(ctx)
	return h.command("stop_timer", st, err), nil
}

func (h *handlers) completeWorkout(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cur, res := h.requireActive(ctx)
	if res != nil {
		return res, nil
	}
	if !cur.CurrentSession.AllSetsCompleted() {
		p := cur.CurrentSession.Progress()
		return mcp.NewToolResultError(fmt.Sprintf("not every set is completed (%d of %d done)", p.CompletedSets, p.TotalSets)), nil
	}
	st, err := h.t.CompleteWorkout(ctx)
	if err != nil {
		return h.command("complete_workout", st, err), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"completed": lastSession(st.User),
		"user":      userSummary(st.User),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getUserStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.t.State(ctx)
	if err != nil {
		h.log.Error("mcp get_user_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(userSummary(st.User))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultHistoryLimit)
	if limit < 1 {
		return mcp.NewToolResultError("limit must be a positive integer"), nil
	}
	limit = min(limit, maxHistoryLimit)
	offset := req.GetInt("offset", 0)
	if offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}

	items, total, err := h.t.History(ctx, limit, offset)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"total": total,
		"items": items,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := strings.ToLower(req.GetString("muscle_group", ""))

	exercises := catalog.Exercises()
	if filter != "" {
		matched := exercises[:0]
		for _, ex := range exercises {
			for _, g := range ex.MuscleGroups {
				if strings.Contains(strings.ToLower(g), filter) {
					matched = append(matched, ex)
					break
				}
			}
		}
		exercises = matched
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func userSummary(u models.User) map[string]any {
	return map[string]any{
		"name":         u.Name,
		"level":        u.Level,
		"levelName":    catalog.LevelName(u.Level),
		"progress":     progression.Progress(u),
		"stats":        u.Stats,
		"achievements": u.Achievements,
	}
}

func lastSession(u models.User) *models.WorkoutSession {
	if len(u.WorkoutHistory) == 0 {
		return nil
	}
	s := u.WorkoutHistory[len(u.WorkoutHistory)-1]
	return &s
}
