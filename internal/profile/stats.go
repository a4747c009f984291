package profile

import "github.com/claude/cirqulofit/internal/models"

// RemoteStats is the statistics block as the profile API spells it.
type RemoteStats struct {
	TotalWorkouts    int     `json:"total_workouts"`
	TotalTime        int     `json:"total_time"`
	TotalWeight      float64 `json:"total_weight"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	FavoriteExercise string  `json:"favorite_exercise,omitempty"`
}

// UserProfile is the /users/profile response.
type UserProfile struct {
	User  models.Account `json:"user"`
	Stats RemoteStats    `json:"stats"`
}

// Stats converts to the local representation.
func (r RemoteStats) Stats() models.UserStats {
	return models.UserStats{
		TotalWorkouts:    r.TotalWorkouts,
		TotalTime:        r.TotalTime,
		TotalWeight:      r.TotalWeight,
		CurrentStreak:    r.CurrentStreak,
		LongestStreak:    r.LongestStreak,
		FavoriteExercise: r.FavoriteExercise,
	}
}

// FromStats converts local statistics to the remote representation.
func FromStats(s models.UserStats) RemoteStats {
	return RemoteStats{
		TotalWorkouts:    s.TotalWorkouts,
		TotalTime:        s.TotalTime,
		TotalWeight:      s.TotalWeight,
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		FavoriteExercise: s.FavoriteExercise,
	}
}
