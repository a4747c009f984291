package mcp

import (
	"context"

	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/session"
)

// Tracker abstracts the workout state for MCP tools. Local wraps the
// in-process session machine; HTTPClient calls the REST API of a remote
// instance.
type Tracker interface {
	State(ctx context.Context) (models.AppState, error)
	StartWorkout(ctx context.Context) (models.AppState, error)
	StopWorkout(ctx context.Context) (models.AppState, error)
	CompleteSet(ctx context.Context, exerciseIndex, setIndex int) (models.AppState, error)
	UpdateWeight(ctx context.Context, exerciseIndex, setIndex int, weight float64) (models.AppState, error)
	UpdateReps(ctx context.Context, exerciseIndex, setIndex, reps int) (models.AppState, error)
	StartTimer(ctx context.Context, seconds int, timerType models.TimerType) (models.AppState, error)
	StopTimer(ctx context.Context) (models.AppState, error)
	CompleteWorkout(ctx context.Context) (models.AppState, error)
	History(ctx context.Context, limit, offset int) (items []models.WorkoutSession, total int, err error)
}

// Local serves tools from a session machine in the same process.
type Local struct {
	m *session.Machine
}

// Compile-time checks: both implementations satisfy Tracker.
var (
	_ Tracker = (*Local)(nil)
	_ Tracker = (*HTTPClient)(nil)
)

// NewLocal wraps m.
func NewLocal(m *session.Machine) *Local {
	return &Local{m: m}
}

func (l *Local) State(context.Context) (models.AppState, error) {
	return l.m.Snapshot(), nil
}

func (l *Local) StartWorkout(ctx context.Context) (models.AppState, error) {
	return l.m.StartWorkout(ctx)
}

// Session commands go through DispatchActive so the active-session check
// and the transition happen under one lock.
func (l *Local) StopWorkout(ctx context.Context) (models.AppState, error) {
	return l.m.DispatchActive(ctx, session.StopWorkout{})
}

func (l *Local) CompleteSet(ctx context.Context, exerciseIndex, setIndex int) (models.AppState, error) {
	return l.m.DispatchActive(ctx, session.CompleteSet{ExerciseIndex: exerciseIndex, SetIndex: setIndex})
}

func (l *Local) UpdateWeight(ctx context.Context, exerciseIndex, setIndex int, weight float64) (models.AppState, error) {
	return l.m.DispatchActive(ctx, session.UpdateWeight{ExerciseIndex: exerciseIndex, SetIndex: setIndex, Weight: weight})
}

func (l *Local) UpdateReps(ctx context.Context, exerciseIndex, setIndex, reps int) (models.AppState, error) {
	return l.m.DispatchActive(ctx, session.UpdateReps{ExerciseIndex: exerciseIndex, SetIndex: setIndex, Reps: reps})
}

func (l *Local) StartTimer(ctx context.Context, seconds int, timerType models.TimerType) (models.AppState, error) {
	return l.m.Dispatch(ctx, session.StartTimer{Duration: seconds, Type: timerType})
}

func (l *Local) StopTimer(ctx context.Context) (models.AppState, error) {
	return l.m.StopTimer(ctx)
}

func (l *Local) CompleteWorkout(ctx context.Context) (models.AppState, error) {
	return l.m.CompleteWorkout(ctx)
}

func (l *Local) History(_ context.Context, limit, offset int) ([]models.WorkoutSession, int, error) {
	u := l.m.User()
	return u.RecentHistory(limit, offset), len(u.WorkoutHistory), nil
}
