package session

import (
	"context"
	"testing"
	"time"

	"github.com/claude/cirqulofit/internal/models"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

// TestSchedulerCountsDown verifies a running timer reaches zero and stops.
func TestSchedulerCountsDown(t *testing.T) {
	m := New(models.NewUser(), Options{}, nil)
	s := NewScheduler(m, 2*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	if _, err := m.StartRestTimer(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		tm := m.Timer()
		return !tm.IsRunning && tm.TimeLeft == 0
	})
	if got := m.Timer().TotalTime; got != 3 {
		t.Errorf("totalTime = %d, want 3", got)
	}
}

// TestSchedulerIdleWhenStopped verifies no ticks are delivered to a paused timer.
func TestSchedulerIdleWhenStopped(t *testing.T) {
	m := New(models.NewUser(), Options{}, nil)
	s := NewScheduler(m, time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	ctx := context.Background()
	if _, err := m.StartRestTimer(ctx, 10000); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return m.Timer().TimeLeft < 10000 })
	if _, err := m.StopTimer(ctx); err != nil {
		t.Fatal(err)
	}
	paused := m.Timer().TimeLeft

	time.Sleep(20 * time.Millisecond)
	if got := m.Timer(); got.TimeLeft != paused || got.IsRunning {
		t.Errorf("timer moved while paused: %+v, paused at %d", got, paused)
	}
}

// TestSchedulerRestart verifies starting a new countdown mid-run resets the
// remaining time and keeps ticking.
func TestSchedulerRestart(t *testing.T) {
	m := New(models.NewUser(), Options{}, nil)
	s := NewScheduler(m, 2*time.Millisecond, nil)
	s.Start(context.Background())
	defer s.Close()

	ctx := context.Background()
	if _, err := m.StartRestTimer(ctx, 10000); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return m.Timer().TimeLeft < 10000 })
	if _, err := m.StartRestTimer(ctx, 4); err != nil {
		t.Fatal(err)
	}
	if tm := m.Timer(); tm.TotalTime != 4 || tm.TimeLeft > 4 {
		t.Errorf("restarted timer = %+v", tm)
	}
	waitFor(t, func() bool { return m.Timer().TimeLeft == 0 })
}

// TestSchedulerStopsOnContext verifies cancelling the context ends the goroutine.
func TestSchedulerStopsOnContext(t *testing.T) {
	m := New(models.NewUser(), Options{}, nil)
	s := NewScheduler(m, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	s.Close()
	s.Close()
}

// TestSchedulerCloseWithoutStart verifies Close on an unstarted scheduler returns.
func TestSchedulerCloseWithoutStart(t *testing.T) {
	s := NewScheduler(New(models.NewUser(), Options{}, nil), 0, nil)
	if s.interval != time.Second {
		t.Errorf("interval = %v, want 1s default", s.interval)
	}
	s.Close()
}
