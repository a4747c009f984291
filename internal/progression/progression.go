// Package progression derives experience, level and cumulative stats from
// completed workout sessions. Every function is pure: inputs are never mutated.
package progression

import (
	"math"

	"github.com/claude/cirqulofit/internal/models"
)

const (
	// ExperiencePerWorkout is awarded for each completed session regardless of
	// its length or content.
	ExperiencePerWorkout = 50

	// ExperiencePerLevel is the width of every level band.
	ExperiencePerLevel = 100
)

// LevelFor returns the level for a cumulative experience total.
func LevelFor(experience int) int {
	if experience < 0 {
		experience = 0
	}
	return experience/ExperiencePerLevel + 1
}

// Advance folds a completed session into the user's profile.
//
// The streak increments on every completed session without looking at
// calendar days. History is appended without a cap.
func Advance(user models.User, completed models.WorkoutSession) models.User {
	out := user.Clone()

	out.Experience = user.Experience + ExperiencePerWorkout
	out.Level = LevelFor(out.Experience)
	out.WorkoutHistory = append(out.WorkoutHistory, completed.Clone())

	stats := out.Stats
	stats.TotalWorkouts++
	stats.TotalTime += completed.DurationMinutes()
	stats.TotalWeight += Volume(completed)
	stats.CurrentStreak++
	stats.LongestStreak = max(stats.LongestStreak, stats.CurrentStreak)
	if fav := FavoriteExercise(out.WorkoutHistory); fav != "" {
		stats.FavoriteExercise = fav
	}
	out.Stats = stats

	return out
}

// Volume is the weight moved in a session: weight times reps summed over the
// completed sets only.
func Volume(s models.WorkoutSession) float64 {
	var total float64
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				total += set.Volume()
			}
		}
	}
	return total
}

// FavoriteExercise returns the exercise name with the most completed sets
// across history. Ties go to the exercise seen first.
func FavoriteExercise(history []models.WorkoutSession) string {
	counts := make(map[string]int)
	var order []string
	for _, s := range history {
		for _, ex := range s.Exercises {
			name := ex.Exercise.Name
			if _, seen := counts[name]; !seen {
				order = append(order, name)
				counts[name] = 0
			}
			for _, set := range ex.Sets {
				if set.Completed {
					counts[name]++
				}
			}
		}
	}

	best, bestCount := "", 0
	for _, name := range order {
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}

// UnlockAchievement appends a to the user's achievements unconditionally.
func UnlockAchievement(user models.User, a models.Achievement) models.User {
	out := user.Clone()
	out.Achievements = append(out.Achievements, a)
	return out
}

// LevelUp raises the user to the next level by granting exactly the
// experience missing to reach its threshold, so level stays a function of
// experience.
func LevelUp(user models.User) models.User {
	out := user.Clone()
	next := LevelFor(user.Experience) * ExperiencePerLevel
	out.Experience = max(user.Experience, next)
	out.Level = LevelFor(out.Experience)
	return out
}

// Normalize makes a stored user's level agree with its experience without
// taking progress away: a level behind the experience is raised, and a level
// ahead of it is backed by the missing experience. changed reports whether
// either field moved.
func Normalize(user models.User) (out models.User, changed bool) {
	out = user.Clone()
	if out.Level > LevelFor(out.Experience) {
		out.Experience = (out.Level - 1) * ExperiencePerLevel
	}
	out.Level = LevelFor(out.Experience)
	return out, out.Level != user.Level || out.Experience != user.Experience
}

// LevelProgress describes where the user sits inside the current level band.
type LevelProgress struct {
	Level          int     `json:"level"`
	Experience     int     `json:"experience"`
	LevelFloor     int     `json:"levelFloor"`
	NextLevelAt    int     `json:"nextLevelAt"`
	Percentage     float64 `json:"percentage"`
	ExperienceToGo int     `json:"experienceToGo"`
}

// Progress reports the user's position between the current and next level.
func Progress(user models.User) LevelProgress {
	level := LevelFor(user.Experience)
	floor := (level - 1) * ExperiencePerLevel
	next := level * ExperiencePerLevel
	pct := float64(user.Experience-floor) / float64(next-floor) * 100
	return LevelProgress{
		Level:          level,
		Experience:     user.Experience,
		LevelFloor:     floor,
		NextLevelAt:    next,
		Percentage:     math.Round(pct*100) / 100,
		ExperienceToGo: next - user.Experience,
	}
}
