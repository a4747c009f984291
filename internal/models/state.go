package models

// TimerType is what the countdown is timing.
type TimerType string

const (
	TimerRest     TimerType = "rest"
	TimerWork     TimerType = "work"
	TimerWarmup   TimerType = "warmup"
	TimerCooldown TimerType = "cooldown"
)

// Valid reports whether t is one of the known timer types.
func (t TimerType) Valid() bool {
	switch t {
	case TimerRest, TimerWork, TimerWarmup, TimerCooldown:
		return true
	}
	return false
}

// TimerState is the countdown sub-state. TimeLeft stays within [0, TotalTime]
// and IsRunning is false whenever TimeLeft is 0.
type TimerState struct {
	IsRunning bool      `json:"isRunning"`
	TimeLeft  int       `json:"timeLeft"`  // seconds
	TotalTime int       `json:"totalTime"` // seconds
	Type      TimerType `json:"type"`
}

// IdleTimer is the reset timer value.
func IdleTimer() TimerState {
	return TimerState{Type: TimerRest}
}

// Fraction is the elapsed share of the countdown, for progress display.
func (t TimerState) Fraction() float64 {
	if t.TotalTime <= 0 {
		return 0
	}
	return float64(t.TotalTime-t.TimeLeft) / float64(t.TotalTime)
}

// AppState is the root aggregate. CurrentSession is non-nil exactly when
// IsWorkoutActive is true.
type AppState struct {
	User            User            `json:"user"`
	CurrentSession  *WorkoutSession `json:"currentSession,omitempty"`
	Timer           TimerState      `json:"timer"`
	IsWorkoutActive bool            `json:"isWorkoutActive"`
}

// Clone deep-copies the state so snapshots can be handed out safely.
func (s AppState) Clone() AppState {
	out := s
	out.User = s.User.Clone()
	if s.CurrentSession != nil {
		cs := s.CurrentSession.Clone()
		out.CurrentSession = &cs
	}
	return out
}

// NewAppState returns the idle state for the given user.
func NewAppState(user User) AppState {
	return AppState{
		User:  user,
		Timer: IdleTimer(),
	}
}
