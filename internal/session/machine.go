package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/cirqulofit/internal/catalog"
	"github.com/claude/cirqulofit/internal/models"
)

// Persister saves the user sub-tree after a transition that changed it.
type Persister interface {
	SaveUser(ctx context.Context, u models.User) error
}

// Recorder receives state machine events for instrumentation.
type Recorder interface {
	CommandApplied(name string, err error)
	WorkoutStarted()
	WorkoutCompleted(minutes int)
	WorkoutAbandoned()
	PersistFailed()
}

// Options configures a Machine. Zero fields take production defaults.
type Options struct {
	Persister Persister
	Recorder  Recorder
	Now       func() time.Time
	NewID     func() string
	Templates func(level int) models.Workout
	// PersistTimeout bounds one SaveUser call. Defaults to 5s.
	PersistTimeout time.Duration
}

// Machine owns the application state and applies commands to it one at a
// time. Readers get deep copies.
type Machine struct {
	mu    sync.Mutex
	state models.AppState
	env   Env
	opts  Options
	log   *slog.Logger

	subMu  sync.Mutex
	subs   map[int]func()
	nextID int
}

// New creates a machine in the Idle state for user.
func New(user models.User, opts Options, logger *slog.Logger) *Machine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Templates == nil {
		opts.Templates = catalog.TemplateForLevel
	}
	if opts.PersistTimeout == 0 {
		opts.PersistTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		state: models.NewAppState(user),
		env:   Env{Now: opts.Now, NewID: opts.NewID, Templates: opts.Templates},
		opts:  opts,
		log:   logger,
		subs:  make(map[int]func()),
	}
}

// Dispatch applies cmd atomically and returns the resulting state. On error
// the state is unchanged. Persistence failures are logged, not returned.
func (m *Machine) Dispatch(ctx context.Context, cmd Command) (models.AppState, error) {
	return m.apply(ctx, cmd, nil)
}

// DispatchActive is Dispatch with preconditions checked under the same lock
// as the transition: it fails with ErrNoActiveWorkout while idle, and a
// CompleteWorkout fails with ErrIncompleteSets until every set is done.
func (m *Machine) DispatchActive(ctx context.Context, cmd Command) (models.AppState, error) {
	return m.apply(ctx, cmd, func(st models.AppState) error {
		if !st.IsWorkoutActive || st.CurrentSession == nil {
			return ErrNoActiveWorkout
		}
		if _, ok := cmd.(CompleteWorkout); ok && !st.CurrentSession.AllSetsCompleted() {
			p := st.CurrentSession.Progress()
			return fmt.Errorf("%w: %d of %d done", ErrIncompleteSets, p.CompletedSets, p.TotalSets)
		}
		return nil
	})
}

func (m *Machine) apply(ctx context.Context, cmd Command, guard func(models.AppState) error) (models.AppState, error) {
	m.mu.Lock()
	prev := m.state
	var (
		tr  transition
		err error
	)
	if guard != nil {
		err = guard(prev)
	}
	if err == nil {
		tr, err = reduce(prev, cmd, m.env)
	}
	if err != nil {
		out := prev.Clone()
		m.mu.Unlock()
		m.record(cmd, err)
		m.log.Debug("command rejected", "command", cmd.Name(), "error", err)
		return out, err
	}
	m.state = tr.state
	if tr.userChanged {
		m.persist(ctx, tr.state.User)
	}
	out := tr.state.Clone()
	m.mu.Unlock()

	m.record(cmd, nil)
	if tr.changed {
		m.observe(cmd, prev, out)
		m.notify()
	}
	return out, nil
}

// Snapshot returns a deep copy of the current state.
func (m *Machine) Snapshot() models.AppState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Timer returns the current timer without copying the rest of the state.
func (m *Machine) Timer() models.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Timer
}

// User returns a copy of the current user.
func (m *Machine) User() models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User.Clone()
}

// Subscribe registers fn to run after every transition that changed the
// state. fn runs outside the machine's lock and must not block.
func (m *Machine) Subscribe(fn func()) (unsubscribe func()) {
	m.subMu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// StartWorkout begins a session from the template for the user's level.
func (m *Machine) StartWorkout(ctx context.Context) (models.AppState, error) {
	return m.Dispatch(ctx, StartWorkout{})
}

// StopWorkout abandons the active session.
func (m *Machine) StopWorkout(ctx context.Context) (models.AppState, error) {
	return m.Dispatch(ctx, StopWorkout{})
}

// CompleteSet marks one set of the active session done.
func (m *Machine) CompleteSet(ctx context.Context, exerciseIndex, setIndex int) (models.AppState, error) {
	return m.Dispatch(ctx, CompleteSet{ExerciseIndex: exerciseIndex, SetIndex: setIndex})
}

// UpdateWeight sets the weight of one set.
func (m *Machine) UpdateWeight(ctx context.Context, exerciseIndex, setIndex int, weight float64) (models.AppState, error) {
	return m.Dispatch(ctx, UpdateWeight{ExerciseIndex: exerciseIndex, SetIndex: setIndex, Weight: weight})
}

// UpdateReps sets the repetition count of one set.
func (m *Machine) UpdateReps(ctx context.Context, exerciseIndex, setIndex, reps int) (models.AppState, error) {
	return m.Dispatch(ctx, UpdateReps{ExerciseIndex: exerciseIndex, SetIndex: setIndex, Reps: reps})
}

// StartRestTimer starts a rest countdown of seconds.
func (m *Machine) StartRestTimer(ctx context.Context, seconds int) (models.AppState, error) {
	return m.Dispatch(ctx, StartTimer{Duration: seconds, Type: models.TimerRest})
}

// StopTimer pauses the countdown.
func (m *Machine) StopTimer(ctx context.Context) (models.AppState, error) {
	return m.Dispatch(ctx, StopTimer{})
}

// CompleteWorkout finalizes the active session once every set is done.
func (m *Machine) CompleteWorkout(ctx context.Context) (models.AppState, error) {
	return m.DispatchActive(ctx, CompleteWorkout{})
}

// persist runs with m.mu held so saves land in transition order.
func (m *Machine) persist(ctx context.Context, u models.User) {
	if m.opts.Persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.PersistTimeout)
	defer cancel()
	if err := m.opts.Persister.SaveUser(ctx, u); err != nil {
		m.log.Warn("failed to persist user", "error", err)
		if m.opts.Recorder != nil {
			m.opts.Recorder.PersistFailed()
		}
	}
}

func (m *Machine) record(cmd Command, err error) {
	if m.opts.Recorder != nil {
		m.opts.Recorder.CommandApplied(cmd.Name(), err)
	}
}

// observe logs and records lifecycle edges of a transition.
func (m *Machine) observe(cmd Command, prev, next models.AppState) {
	switch cmd.(type) {
	case StartWorkout:
		if prev.IsWorkoutActive {
			m.log.Warn("workout restarted, previous session discarded", "previous_session", prev.CurrentSession.ID)
		}
		m.log.Info("workout started", "session", next.CurrentSession.ID, "workout", next.CurrentSession.WorkoutID)
		if m.opts.Recorder != nil {
			m.opts.Recorder.WorkoutStarted()
		}
	case StopWorkout:
		m.log.Info("workout stopped", "session", prev.CurrentSession.ID)
		if m.opts.Recorder != nil {
			m.opts.Recorder.WorkoutAbandoned()
		}
	case CompleteWorkout:
		last := next.User.WorkoutHistory[len(next.User.WorkoutHistory)-1]
		minutes := last.DurationMinutes()
		m.log.Info("workout completed",
			"session", last.ID,
			"minutes", minutes,
			"experience", next.User.Experience,
			"level", next.User.Level,
		)
		if m.opts.Recorder != nil {
			m.opts.Recorder.WorkoutCompleted(minutes)
		}
	}
}

func (m *Machine) notify() {
	m.subMu.Lock()
	fns := make([]func(), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
