package session

import "github.com/claude/cirqulofit/internal/models"

// Command is one input to the state machine. The set of commands is closed.
type Command interface {
	// Name is a stable identifier used in logs and metrics.
	Name() string
	command()
}

// StartWorkout begins a session from the template for the user's level.
type StartWorkout struct{}

// StopWorkout abandons the active session without touching stats.
type StopWorkout struct{}

// CompleteSet marks a set done. Completing a completed set is a no-op.
type CompleteSet struct {
	ExerciseIndex int `json:"exerciseIndex"`
	SetIndex      int `json:"setIndex"`
}

// UpdateWeight replaces a set's weight. The value is taken as given.
type UpdateWeight struct {
	ExerciseIndex int     `json:"exerciseIndex"`
	SetIndex      int     `json:"setIndex"`
	Weight        float64 `json:"weight"`
}

// UpdateReps replaces a set's repetition count. The value is taken as given.
type UpdateReps struct {
	ExerciseIndex int `json:"exerciseIndex"`
	SetIndex      int `json:"setIndex"`
	Reps          int `json:"reps"`
}

// StartTimer replaces the timer with a fresh countdown of Duration seconds.
// An empty Type means rest.
type StartTimer struct {
	Duration int              `json:"duration"`
	Type     models.TimerType `json:"type"`
}

// StopTimer pauses the countdown, keeping the remaining time.
type StopTimer struct{}

// Tick advances a running countdown by one second.
type Tick struct{}

// CompleteWorkout finalizes the active session and folds it into the user's
// progression. Callers must only issue it once every set is completed.
type CompleteWorkout struct{}

// InitializeUser replaces the user, typically with the persisted profile.
type InitializeUser struct {
	User models.User `json:"user"`
}

// UnlockAchievement appends an achievement to the user.
type UnlockAchievement struct {
	Achievement models.Achievement `json:"achievement"`
}

// LevelUp moves the user to the next level.
type LevelUp struct{}

func (StartWorkout) Name() string      { return "start_workout" }
func (StopWorkout) Name() string       { return "stop_workout" }
func (CompleteSet) Name() string       { return "complete_set" }
func (UpdateWeight) Name() string      { return "update_weight" }
func (UpdateReps) Name() string        { return "update_reps" }
func (StartTimer) Name() string        { return "start_timer" }
func (StopTimer) Name() string         { return "stop_timer" }
func (Tick) Name() string              { return "tick_timer" }
func (CompleteWorkout) Name() string   { return "complete_workout" }
func (InitializeUser) Name() string    { return "initialize_user" }
func (UnlockAchievement) Name() string { return "unlock_achievement" }
func (LevelUp) Name() string           { return "level_up" }

func (StartWorkout) command()      {}
func (StopWorkout) command()       {}
func (CompleteSet) command()       {}
func (UpdateWeight) command()      {}
func (UpdateReps) command()        {}
func (StartTimer) command()        {}
func (StopTimer) command()         {}
func (Tick) command()              {}
func (CompleteWorkout) command()   {}
func (InitializeUser) command()    {}
func (UnlockAchievement) command() {}
func (LevelUp) command()           {}
