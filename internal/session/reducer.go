package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/cirqulofit/internal/models"
	"github.com/claude/cirqulofit/internal/progression"
)

var (
	// ErrIndexOutOfRange is returned when a set command targets an exercise or
	// set that does not exist in the active session.
	ErrIndexOutOfRange = errors.New("session: exercise or set index out of range")

	// ErrInvalidTimerType is returned by StartTimer for an unknown timer type.
	ErrInvalidTimerType = errors.New("session: invalid timer type")

	// ErrNoActiveWorkout is returned by Machine.DispatchActive while idle.
	ErrNoActiveWorkout = errors.New("session: no active workout")

	// ErrIncompleteSets is returned by Machine.DispatchActive for a
	// CompleteWorkout while any set is still open.
	ErrIncompleteSets = errors.New("session: not every set is completed")

	// ErrUnknownCommand is returned for a Command implementation the reducer
	// does not handle.
	ErrUnknownCommand = errors.New("session: unknown command")
)

// Env supplies the reducer's only impure inputs.
type Env struct {
	Now       func() time.Time
	NewID     func() string
	Templates func(level int) models.Workout
}

// transition is the outcome of applying one command.
type transition struct {
	state       models.AppState
	userChanged bool
	changed     bool
}

// reduce applies cmd to a private copy of state. Commands that need an active
// session are no-ops while idle. state is never modified.
func reduce(state models.AppState, cmd Command, env Env) (transition, error) {
	unchanged := transition{state: state}
	next := state.Clone()

	switch c := cmd.(type) {
	case InitializeUser:
		next.User = c.User.Clone()
		return transition{state: next, userChanged: true, changed: true}, nil

	case StartWorkout:
		next.CurrentSession = newSession(next.User.Level, env)
		next.IsWorkoutActive = true
		next.Timer = models.IdleTimer()
		return transition{state: next, changed: true}, nil

	case StopWorkout:
		if !state.IsWorkoutActive || state.CurrentSession == nil {
			return unchanged, nil
		}
		next.CurrentSession = nil
		next.IsWorkoutActive = false
		next.Timer = models.IdleTimer()
		return transition{state: next, changed: true}, nil

	case CompleteSet:
		set, err := targetSet(&next, c.ExerciseIndex, c.SetIndex)
		if set == nil {
			return unchanged, err
		}
		if set.Completed {
			return unchanged, nil
		}
		set.Completed = true
		return transition{state: next, changed: true}, nil

	case UpdateWeight:
		set, err := targetSet(&next, c.ExerciseIndex, c.SetIndex)
		if set == nil {
			return unchanged, err
		}
		set.Weight = c.Weight
		return transition{state: next, changed: true}, nil

	case UpdateReps:
		set, err := targetSet(&next, c.ExerciseIndex, c.SetIndex)
		if set == nil {
			return unchanged, err
		}
		set.Reps = c.Reps
		return transition{state: next, changed: true}, nil

	case StartTimer:
		typ := c.Type
		if typ == "" {
			typ = models.TimerRest
		}
		if !typ.Valid() {
			return unchanged, fmt.Errorf("%w: %q", ErrInvalidTimerType, typ)
		}
		d := max(c.Duration, 0)
		next.Timer = models.TimerState{
			IsRunning: d > 0,
			TimeLeft:  d,
			TotalTime: d,
			Type:      typ,
		}
		return transition{state: next, changed: true}, nil

	case StopTimer:
		if !state.Timer.IsRunning {
			return unchanged, nil
		}
		next.Timer.IsRunning = false
		return transition{state: next, changed: true}, nil

	case Tick:
		if !state.Timer.IsRunning {
			return unchanged, nil
		}
		if state.Timer.TimeLeft <= 1 {
			next.Timer.TimeLeft = 0
			next.Timer.IsRunning = false
		} else {
			next.Timer.TimeLeft--
		}
		return transition{state: next, changed: true}, nil

	case CompleteWorkout:
		if !state.IsWorkoutActive || state.CurrentSession == nil {
			return unchanged, nil
		}
		finished := finalize(*next.CurrentSession, env.Now())
		next.User = progression.Advance(next.User, finished)
		next.CurrentSession = nil
		next.IsWorkoutActive = false
		next.Timer = models.IdleTimer()
		return transition{state: next, userChanged: true, changed: true}, nil

	case UnlockAchievement:
		next.User = progression.UnlockAchievement(next.User, c.Achievement)
		return transition{state: next, userChanged: true, changed: true}, nil

	case LevelUp:
		next.User = progression.LevelUp(next.User)
		return transition{state: next, userChanged: true, changed: true}, nil

	default:
		return unchanged, fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// newSession seeds a session from the level's template with every set reset
// to incomplete, whatever the template says.
func newSession(level int, env Env) *models.WorkoutSession {
	tmpl := env.Templates(level)
	exercises := tmpl.Clone().Exercises
	for i := range exercises {
		for j := range exercises[i].Sets {
			exercises[i].Sets[j].Completed = false
		}
	}
	return &models.WorkoutSession{
		ID:        env.NewID(),
		WorkoutID: tmpl.ID,
		StartTime: env.Now(),
		Exercises: exercises,
	}
}

// finalize stamps the end time and the elapsed whole minutes.
func finalize(s models.WorkoutSession, now time.Time) models.WorkoutSession {
	end := now
	minutes := max(int(end.Sub(s.StartTime)/time.Minute), 0)
	s.EndTime = &end
	s.Completed = true
	s.TotalDuration = &minutes
	return s
}

// targetSet resolves indices inside the active session of state. A nil set
// with a nil error means there is no active session.
func targetSet(state *models.AppState, exerciseIndex, setIndex int) (*models.WorkoutSet, error) {
	if !state.IsWorkoutActive || state.CurrentSession == nil {
		return nil, nil
	}
	exercises := state.CurrentSession.Exercises
	if exerciseIndex < 0 || exerciseIndex >= len(exercises) {
		return nil, fmt.Errorf("%w: exercise %d of %d", ErrIndexOutOfRange, exerciseIndex, len(exercises))
	}
	sets := exercises[exerciseIndex].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return nil, fmt.Errorf("%w: set %d of %d in exercise %d", ErrIndexOutOfRange, setIndex, len(sets), exerciseIndex)
	}
	return &sets[setIndex], nil
}
