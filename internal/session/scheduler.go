package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/cirqulofit/internal/models"
)

// Scheduler drives Tick commands into a Machine while its timer runs.
// The pending tick is discarded and re-armed whenever the timer's running
// flag or remaining time changes, so a restarted countdown never inherits a
// stale tick.
type Scheduler struct {
	m        *Machine
	interval time.Duration
	log      *slog.Logger

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	unsub   func()
}

// NewScheduler creates a scheduler ticking m every interval. It does nothing
// until Start is called.
func NewScheduler(m *Machine, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scheduler{
		m:        m,
		interval: interval,
		log:      logger,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the scheduling goroutine. It stops when ctx is cancelled
// or Close is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.unsub = s.m.Subscribe(func() {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	})
	go s.run(ctx)
}

// Close stops the goroutine and waits for it to exit. Safe to call more than once.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		close(s.done)
		if s.unsub != nil {
			s.unsub()
			<-s.stopped
		}
	})
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.stopped)

	var (
		timer  *time.Timer
		fire   <-chan time.Time
		last   models.TimerState
		primed bool
	)
	disarm := func() {
		if timer != nil {
			timer.Stop()
			timer, fire = nil, nil
		}
	}
	defer disarm()

	for {
		t := s.m.Timer()
		wanted := t.IsRunning && t.TimeLeft > 0
		switch {
		case !primed || t != last:
			disarm()
			if wanted {
				timer = time.NewTimer(s.interval)
				fire = timer.C
			}
		case wanted && fire == nil:
			timer = time.NewTimer(s.interval)
			fire = timer.C
		}
		last, primed = t, true

		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-s.wake:
		case <-fire:
			timer, fire = nil, nil
			if _, err := s.m.Dispatch(ctx, Tick{}); err != nil {
				s.log.Error("timer tick failed", "error", err)
			}
		}
	}
}
