package workouts

import (
	"math"
	"strings"
	"time"
)

const (
	DefaultExerciseName    = "Push-ups"
	DefaultRecommendedReps = 10
	// MaxReps bounds assigned and completed reps; the next target (MaxReps+2) still fits the INTEGER columns.
	MaxReps = 10_000
	// MaxID is the largest id a SERIAL column hands out.
	MaxID = math.MaxInt32
)

// validID reports whether id can exist in the store at all.
func validID(id int) bool {
	return id > 0 && id <= MaxID
}

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is a user as it shows up in user listings.
type UserSummary struct {
	User
	TotalWorkouts int `json:"total_workouts"`
}

type UserStats struct {
	TotalWorkouts          int `json:"total_workouts"`
	TotalExercises         int `json:"total_exercises"`
	ActiveSessions         int `json:"active_sessions"`
	CurrentRecommendedReps int `json:"current_recommended_reps"`
}

type UserDetail struct {
	User
	Stats UserStats `json:"stats"`
}

type Exercise struct {
	ID           int    `json:"id"`
	SessionID    int    `json:"session_id"`
	Name         string `json:"exercise_name"`
	AssignedReps int    `json:"assigned_reps"`
	// nil until logged
	CompletedReps *int      `json:"completed_reps"`
	CreatedAt     time.Time `json:"created_at"`
}

func (e Exercise) Logged() bool {
	return e.CompletedReps != nil
}

// Session is a workout session together with its single exercise.
type Session struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`
	Active    bool       `json:"is_active"`
	Exercise  Exercise   `json:"exercise"`
}

func (s *Session) Status() SessionStatus {
	if s.Active {
		return StatusActive
	}
	return StatusCompleted
}

type Recommendation struct {
	UserID              int       `json:"user_id"`
	NextRecommendedReps int       `json:"next_recommended_reps"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type SessionStatus string

const (
	StatusAll       SessionStatus = "all"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// ParseSessionStatus maps a status filter value. Unknown values mean no filtering.
func ParseSessionStatus(status string) SessionStatus {
	switch SessionStatus(strings.ToLower(strings.TrimSpace(status))) {
	case StatusActive:
		return StatusActive
	case StatusCompleted:
		return StatusCompleted
	default:
		return StatusAll
	}
}

type SessionFilter struct {
	UserID int
	Status SessionStatus
}

// EndResult is the outcome of ending a session.
type EndResult struct {
	Session  Session
	NextReps int
}

const (
	TrendNew       = "new"
	TrendImproving = "improving"
	TrendAdjusting = "adjusting"

	ReasonStarting   = "Starting recommendation"
	ReasonCompleted  = "Completed all reps in last session"
	ReasonIncomplete = "Did not complete all reps in last session"
)

type Progression struct {
	Trend         string `json:"trend"`
	TotalIncrease int    `json:"total_increase"`
	SessionsCount int    `json:"sessions_count"`
}

// RecommendationView is the recommendation for a user's next session, with the context it was derived from.
type RecommendationView struct {
	UserID          int         `json:"user_id"`
	RecommendedReps int         `json:"recommended_reps"`
	Reason          string      `json:"recommendation_reason"`
	LastSession     *Session    `json:"last_session"`
	Progression     Progression `json:"progression"`
}
