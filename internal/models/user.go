package models

import "time"

// AchievementCategory groups achievements on the profile page.
type AchievementCategory string

const (
	AchievementStreak  AchievementCategory = "streak"
	AchievementWeight  AchievementCategory = "weight"
	AchievementWorkout AchievementCategory = "workout"
	AchievementLevel   AchievementCategory = "level"
)

// Achievement is an unlocked badge.
type Achievement struct {
	ID          string              `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Icon        string              `json:"icon"`
	UnlockedAt  time.Time           `json:"unlockedAt"`
	Category    AchievementCategory `json:"category"`
}

// UserStats holds cumulative counters. Only the progression engine updates them.
type UserStats struct {
	TotalWorkouts    int     `json:"totalWorkouts"`
	TotalTime        int     `json:"totalTime"` // minutes
	TotalWeight      float64 `json:"totalWeight"`
	CurrentStreak    int     `json:"currentStreak"`
	LongestStreak    int     `json:"longestStreak"`
	FavoriteExercise string  `json:"favoriteExercise,omitempty"`
}

// User is the identity-agnostic profile used by the session subsystem.
type User struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Level          int              `json:"level"`
	Experience     int              `json:"experience"`
	WorkoutHistory []WorkoutSession `json:"workoutHistory"`
	Achievements   []Achievement    `json:"achievements"`
	Stats          UserStats        `json:"stats"`
}

// Clone deep-copies the user including history and achievements.
func (u User) Clone() User {
	out := u
	if u.WorkoutHistory != nil {
		out.WorkoutHistory = make([]WorkoutSession, len(u.WorkoutHistory))
		for i, s := range u.WorkoutHistory {
			out.WorkoutHistory[i] = s.Clone()
		}
	}
	if u.Achievements != nil {
		out.Achievements = make([]Achievement, len(u.Achievements))
		copy(out.Achievements, u.Achievements)
	}
	return out
}

// NewUser returns the default profile for a first run.
func NewUser() User {
	return User{
		ID:             "1",
		Name:           "Usuário",
		Level:          1,
		Experience:     0,
		WorkoutHistory: []WorkoutSession{},
		Achievements:   []Achievement{},
	}
}

// Level is a named experience tier with the template it unlocks.
type Level struct {
	Number             int     `json:"number"`
	Name               string  `json:"name"`
	RequiredExperience int     `json:"requiredExperience"`
	Description        string  `json:"description"`
	Color              string  `json:"color"`
	Workout            Workout `json:"workout"`
}

// RecentHistory returns up to limit completed sessions, newest first, after
// skipping the offset most recent ones.
func (u User) RecentHistory(limit, offset int) []WorkoutSession {
	out := make([]WorkoutSession, 0, max(limit, 0))
	offset = max(offset, 0)
	for i := len(u.WorkoutHistory) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, u.WorkoutHistory[i])
	}
	return out
}
