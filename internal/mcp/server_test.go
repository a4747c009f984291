package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/session"
)

type toolFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func newTestHandlers(t *testing.T) (*handlers, *session.Machine) {
	t.Helper()
	m := session.New(models.NewUser(), session.Options{}, nil)
	return &handlers{t: NewLocal(m), log: slog.New(slog.DiscardHandler)}, m
}

// call invokes a tool handler and returns its text payload.
func call(t *testing.T, fn toolFunc, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := fn(context.Background(), req)
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content = %T, want TextContent", res.Content[0])
	}
	return text.Text, res.IsError
}

func callJSON[T any](t *testing.T, fn toolFunc, args map[string]any) T {
	t.Helper()
	text, isErr := call(t, fn, args)
	if isErr {
		t.Fatalf("tool error: %s", text)
	}
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decoding %q: %v", text, err)
	}
	return v
}

type toolState struct {
	IsWorkoutActive bool                   `json:"isWorkoutActive"`
	CurrentSession  *models.WorkoutSession `json:"currentSession"`
	Timer           models.TimerState      `json:"timer"`
	Progress        *models.Progress       `json:"progress"`
}

// TestNewRegistersTools verifies the tool list exposed over JSON-RPC.
func TestNewRegistersTools(t *testing.T) {
	m := session.New(models.NewUser(), session.Options{}, nil)
	s := New(NewLocal(m), "test", nil)

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"get_workout_state", "start_workout", "stop_workout", "complete_set", "update_set", "start_timer", "stop_timer", "complete_workout", "get_user_stats", "get_history", "list_exercises"} {
		if !strings.Contains(string(data), `"`+name+`"`) {
			t.Errorf("tools/list is missing %s", name)
		}
	}
}

// TestWorkoutStateIdle verifies the idle state has no session or progress.
func TestWorkoutStateIdle(t *testing.T) {
	h, _ := newTestHandlers(t)
	st := callJSON[toolState](t, h.getWorkoutState, nil)
	if st.IsWorkoutActive || st.CurrentSession != nil || st.Progress != nil {
		t.Errorf("state = %+v, want idle", st)
	}
}

// TestStartAndCompleteSetTools verifies the start and complete_set tools drive the machine.
func TestStartAndCompleteSetTools(t *testing.T) {
	h, m := newTestHandlers(t)

	st := callJSON[toolState](t, h.startWorkout, nil)
	if !st.IsWorkoutActive || st.Progress == nil || st.Progress.TotalSets != 25 {
		t.Fatalf("after start = %+v", st.Progress)
	}

	st = callJSON[toolState](t, h.completeSet, map[string]any{"exercise_index": 1, "set_index": 2})
	if st.Progress.CompletedSets != 1 {
		t.Errorf("completed = %d, want 1", st.Progress.CompletedSets)
	}
	if !m.Snapshot().CurrentSession.Exercises[1].Sets[2].Completed {
		t.Error("machine state not updated")
	}
}

// TestSetToolsRequireActiveWorkout verifies set tools report an idle session.
func TestSetToolsRequireActiveWorkout(t *testing.T) {
	h, _ := newTestHandlers(t)

	for name, fn := range map[string]toolFunc{
		"complete_set": h.completeSet,
		"update_set":   h.updateSet,
	} {
		text, isErr := call(t, fn, map[string]any{"exercise_index": 0, "set_index": 0, "reps": 5})
		if !isErr || !strings.Contains(text, "no active workout") {
			t.Errorf("%s while idle = %q (error %v)", name, text, isErr)
		}
	}
	if _, isErr := call(t, h.stopWorkout, nil); !isErr {
		t.Error("stop_workout while idle succeeded")
	}
}

// TestSetToolErrors verifies parameter validation and out-of-range indices.
func TestSetToolErrors(t *testing.T) {
	h, _ := newTestHandlers(t)
	callJSON[toolState](t, h.startWorkout, nil)

	tests := []struct {
		name string
		fn   toolFunc
		args map[string]any
		want string
	}{
		{"missing exercise", h.completeSet, map[string]any{"set_index": 0}, "exercise_index"},
		{"missing set", h.completeSet, map[string]any{"exercise_index": 0}, "set_index"},
		{"out of range", h.completeSet, map[string]any{"exercise_index": 40, "set_index": 0}, "out of range"},
		{"no fields", h.updateSet, map[string]any{"exercise_index": 0, "set_index": 0}, "weight or reps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, isErr := call(t, tt.fn, tt.args)
			if !isErr || !strings.Contains(text, tt.want) {
				t.Errorf("result = %q (error %v), want error containing %q", text, isErr, tt.want)
			}
		})
	}
}

// TestUpdateSetTool verifies weight and reps are applied together.
func TestUpdateSetTool(t *testing.T) {
	h, _ := newTestHandlers(t)
	callJSON[toolState](t, h.startWorkout, nil)

	st := callJSON[toolState](t, h.updateSet, map[string]any{"exercise_index": 2, "set_index": 0, "weight": 27.5, "reps": 9})
	set := st.CurrentSession.Exercises[2].Sets[0]
	if set.Weight != 27.5 || set.Reps != 9 {
		t.Errorf("set = %+v, want 27.5kg x 9", set)
	}

	st = callJSON[toolState](t, h.updateSet, map[string]any{"exercise_index": 2, "set_index": 0, "reps": 6})
	set = st.CurrentSession.Exercises[2].Sets[0]
	if set.Weight != 27.5 || set.Reps != 6 {
		t.Errorf("set = %+v, want weight kept and 6 reps", set)
	}
}

// TestTimerTools verifies the timer tools and type validation.
func TestTimerTools(t *testing.T) {
	h, _ := newTestHandlers(t)

	st := callJSON[toolState](t, h.startTimer, map[string]any{"duration": 45})
	if !st.Timer.IsRunning || st.Timer.TimeLeft != 45 || st.Timer.Type != models.TimerRest {
		t.Errorf("timer = %+v", st.Timer)
	}
	st = callJSON[toolState](t, h.startTimer, map[string]any{"duration": 30, "type": "warmup"})
	if st.Timer.Type != models.TimerWarmup || st.Timer.TotalTime != 30 {
		t.Errorf("timer = %+v", st.Timer)
	}
	if _, isErr := call(t, h.startTimer, map[string]any{"duration": 30, "type": "nap"}); !isErr {
		t.Error("invalid timer type accepted")
	}
	if _, isErr := call(t, h.startTimer, nil); !isErr {
		t.Error("missing duration accepted")
	}

	st = callJSON[toolState](t, h.stopTimer, nil)
	if st.Timer.IsRunning || st.Timer.TimeLeft != 30 {
		t.Errorf("stopped timer = %+v", st.Timer)
	}
}

type completion struct {
	Completed *models.WorkoutSession `json:"completed"`
	User      struct {
		Level int `json:"level"`
		Stats struct {
			TotalWorkouts int `json:"totalWorkouts"`
		} `json:"stats"`
		Progress struct {
			Experience int `json:"experience"`
		} `json:"progress"`
	} `json:"user"`
}

// TestCompleteWorkoutTool verifies completion is refused until every set is done
// and then awards experience.
func TestCompleteWorkoutTool(t *testing.T) {
	h, m := newTestHandlers(t)
	callJSON[toolState](t, h.startWorkout, nil)

	text, isErr := call(t, h.completeWorkout, nil)
	if !isErr || !strings.Contains(text, "0 of 25") {
		t.Fatalf("premature completion = %q (error %v)", text, isErr)
	}

	for i, ex := range m.Snapshot().CurrentSession.Exercises {
		for j := range ex.Sets {
			callJSON[toolState](t, h.completeSet, map[string]any{"exercise_index": i, "set_index": j})
		}
	}

	got := callJSON[completion](t, h.completeWorkout, nil)

	if got.Completed == nil || !got.Completed.Completed {
		t.Fatalf("completed session = %+v", got.Completed)
	}
	if got.User.Stats.TotalWorkouts != 1 || got.User.Progress.Experience != 50 {
		t.Errorf("user = %+v", got.User)
	}
	if m.Snapshot().IsWorkoutActive {
		t.Error("session still active")
	}
}

// TestLocalGuardsSessionCommands verifies the local tracker refuses set
// commands while idle and completion with open sets, without tool prechecks.
func TestLocalGuardsSessionCommands(t *testing.T) {
	m := session.New(models.NewUser(), session.Options{}, nil)
	tr := NewLocal(m)
	ctx := context.Background()

	if _, err := tr.CompleteSet(ctx, 0, 0); !errors.Is(err, session.ErrNoActiveWorkout) {
		t.Errorf("idle CompleteSet: err = %v, want ErrNoActiveWorkout", err)
	}
	if _, err := tr.StartWorkout(ctx); err != nil {
		t.Fatal(err)
	}
	st, err := tr.CompleteWorkout(ctx)
	if !errors.Is(err, session.ErrIncompleteSets) {
		t.Fatalf("CompleteWorkout: err = %v, want ErrIncompleteSets", err)
	}
	if !st.IsWorkoutActive || len(st.User.WorkoutHistory) != 0 {
		t.Errorf("rejected completion changed state: active %v, history %d", st.IsWorkoutActive, len(st.User.WorkoutHistory))
	}
}

// TestHistoryTool verifies paging defaults and validation.
func TestHistoryTool(t *testing.T) {
	h, m := newTestHandlers(t)
	ctx := context.Background()
	u := models.NewUser()
	for _, id := range []string{"a", "b", "c"} {
		u.WorkoutHistory = append(u.WorkoutHistory, models.WorkoutSession{ID: id, Completed: true})
	}
	if _, err := m.Dispatch(ctx, session.InitializeUser{User: u}); err != nil {
		t.Fatal(err)
	}

	type page struct {
		Total int                     `json:"total"`
		Items []models.WorkoutSession `json:"items"`
	}
	p := callJSON[page](t, h.getHistory, nil)
	if p.Total != 3 || len(p.Items) != 3 || p.Items[0].ID != "c" {
		t.Errorf("page = %+v", p)
	}
	p = callJSON[page](t, h.getHistory, map[string]any{"limit": 1, "offset": 1})
	if len(p.Items) != 1 || p.Items[0].ID != "b" {
		t.Errorf("second page = %+v", p.Items)
	}
	if _, isErr := call(t, h.getHistory, map[string]any{"limit": 0}); !isErr {
		t.Error("limit 0 accepted")
	}
}

// TestUserStatsTool verifies the level summary.
func TestUserStatsTool(t *testing.T) {
	h, _ := newTestHandlers(t)
	got := callJSON[map[string]any](t, h.getUserStats, nil)
	if got["levelName"] != "Iniciante" {
		t.Errorf("levelName = %v, want Iniciante", got["levelName"])
	}
	if _, ok := got["stats"]; !ok {
		t.Error("stats missing")
	}
}

// TestListExercisesTool verifies the catalog listing and muscle group filter.
func TestListExercisesTool(t *testing.T) {
	h, _ := newTestHandlers(t)

	if all := callJSON[[]models.Exercise](t, h.listExercises, nil); len(all) != 9 {
		t.Errorf("exercises = %d, want 9", len(all))
	}
	chest := callJSON[[]models.Exercise](t, h.listExercises, map[string]any{"muscle_group": "PEITO"})
	if len(chest) == 0 {
		t.Fatal("no chest exercises")
	}
	for _, ex := range chest {
		if !strings.Contains(strings.Join(ex.MuscleGroups, ","), "peito") {
			t.Errorf("%s does not train peito", ex.ID)
		}
	}
}

// TestCatalogResource verifies the catalog resource lists one template.
func TestCatalogResource(t *testing.T) {
	h, _ := newTestHandlers(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "cirqulofit://catalog"

	contents, err := h.catalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text := contents[0].(mcp.TextResourceContents)
	var body struct {
		Exercises []models.Exercise `json:"exercises"`
		Workouts  []models.Workout  `json:"workouts"`
		Levels    []models.Level    `json:"levels"`
	}
	if err := json.Unmarshal([]byte(text.Text), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Exercises) != 9 || len(body.Workouts) != 1 || len(body.Levels) != 3 {
		t.Errorf("catalog = %d exercises, %d workouts, %d levels", len(body.Exercises), len(body.Workouts), len(body.Levels))
	}
	if text.URI != "cirqulofit://catalog" {
		t.Errorf("uri = %q", text.URI)
	}
}

// TestCurrentSessionResource verifies null while idle and the session once started.
func TestCurrentSessionResource(t *testing.T) {
	h, m := newTestHandlers(t)
	req := mcp.ReadResourceRequest{}
	req.Params.URI = "cirqulofit://current_session"

	contents, err := h.currentSession(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got := contents[0].(mcp.TextResourceContents).Text; got != "null" {
		t.Errorf("idle resource = %q, want null", got)
	}

	if _, err := m.StartWorkout(context.Background()); err != nil {
		t.Fatal(err)
	}
	contents, err = h.currentSession(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if got := contents[0].(mcp.TextResourceContents).Text; !strings.Contains(got, `"completedSets":0`) {
		t.Errorf("active resource = %q", got)
	}
}
