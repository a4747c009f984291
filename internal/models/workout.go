package models

import (
	"math"
	"time"
)

// Difficulty is the tier of a workout template.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Exercise is a static catalog definition. Never mutated after startup.
type Exercise struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	MuscleGroups []string `json:"muscleGroups"`
	Equipment    string   `json:"equipment"`
	GifURL       string   `json:"gifUrl,omitempty"`
	Instructions []string `json:"instructions"`
}

// Clone returns a copy that shares no slices with e.
func (e Exercise) Clone() Exercise {
	e.MuscleGroups = append([]string(nil), e.MuscleGroups...)
	e.Instructions = append([]string(nil), e.Instructions...)
	return e
}

// WorkoutSet is one planned or performed set.
type WorkoutSet struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
	RestTime  *int    `json:"restTime,omitempty"` // seconds
}

// Volume is weight times reps for a single set.
func (s WorkoutSet) Volume() float64 {
	return s.Weight * float64(s.Reps)
}

// WorkoutExercise binds an exercise to its ordered sets.
type WorkoutExercise struct {
	Exercise   Exercise     `json:"exercise"`
	Sets       []WorkoutSet `json:"sets"`
	TargetReps int          `json:"targetReps"`
	TargetSets int          `json:"targetSets"`
	RestTime   int          `json:"restTime"` // seconds between sets
}

// Clone deep-copies the exercise and its sets.
func (we WorkoutExercise) Clone() WorkoutExercise {
	out := we
	out.Exercise = we.Exercise.Clone()
	out.Sets = make([]WorkoutSet, len(we.Sets))
	for i, s := range we.Sets {
		if s.RestTime != nil {
			rt := *s.RestTime
			s.RestTime = &rt
		}
		out.Sets[i] = s
	}
	return out
}

// Workout is an immutable catalog template.
type Workout struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Exercises         []WorkoutExercise `json:"exercises"`
	EstimatedDuration int               `json:"estimatedDuration"` // minutes
	Difficulty        Difficulty        `json:"difficulty"`
	Level             int               `json:"level"`
}

// Clone deep-copies the template.
func (w Workout) Clone() Workout {
	out := w
	out.Exercises = cloneExercises(w.Exercises)
	return out
}

// WorkoutSession is one attempt at a Workout. EndTime and TotalDuration are
// set only once the session is completed.
type WorkoutSession struct {
	ID            string            `json:"id"`
	WorkoutID     string            `json:"workoutId"`
	StartTime     time.Time         `json:"startTime"`
	EndTime       *time.Time        `json:"endTime,omitempty"`
	Exercises     []WorkoutExercise `json:"exercises"`
	Completed     bool              `json:"completed"`
	TotalDuration *int              `json:"totalDuration,omitempty"` // minutes
}

// Clone deep-copies the session.
func (s WorkoutSession) Clone() WorkoutSession {
	out := s
	out.Exercises = cloneExercises(s.Exercises)
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	if s.TotalDuration != nil {
		d := *s.TotalDuration
		out.TotalDuration = &d
	}
	return out
}

// DurationMinutes returns TotalDuration, or 0 when unset.
func (s WorkoutSession) DurationMinutes() int {
	if s.TotalDuration == nil {
		return 0
	}
	return *s.TotalDuration
}

// Progress summarizes set completion across a session.
type Progress struct {
	CompletedSets int     `json:"completedSets"`
	TotalSets     int     `json:"totalSets"`
	Percentage    float64 `json:"percentage"`
}

// Progress counts completed sets. Percentage is 0 for a session without sets.
func (s WorkoutSession) Progress() Progress {
	var p Progress
	for _, ex := range s.Exercises {
		p.TotalSets += len(ex.Sets)
		for _, set := range ex.Sets {
			if set.Completed {
				p.CompletedSets++
			}
		}
	}
	if p.TotalSets > 0 {
		p.Percentage = math.Round(float64(p.CompletedSets)/float64(p.TotalSets)*10000) / 100
	}
	return p
}

// AllSetsCompleted reports whether every set of every exercise is done.
func (s WorkoutSession) AllSetsCompleted() bool {
	p := s.Progress()
	return p.CompletedSets == p.TotalSets
}

func cloneExercises(in []WorkoutExercise) []WorkoutExercise {
	if in == nil {
		return nil
	}
	out := make([]WorkoutExercise, len(in))
	for i, ex := range in {
		out[i] = ex.Clone()
	}
	return out
}
