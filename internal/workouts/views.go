package workouts

import (
	"fmt"
	"time"

	"github.com/2beens/repcoach/pkg"
)

const (
	PerformanceCompleted  = "completed"
	PerformanceIncomplete = "incomplete"
)

type UserResponse struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Email         *string   `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	TotalWorkouts int       `json:"total_workouts"`
}

type UserDetailResponse struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	Stats     UserStats `json:"stats"`
}

type ExerciseData struct {
	ExerciseName         string   `json:"exercise_name"`
	AssignedReps         int      `json:"assigned_reps"`
	CompletedReps        *int     `json:"completed_reps"`
	CompletionPercentage *float64 `json:"completion_percentage"`
}

type SessionResponse struct {
	ID        int          `json:"id"`
	UserID    int          `json:"user_id"`
	StartedAt time.Time    `json:"started_at"`
	EndedAt   *time.Time   `json:"ended_at"`
	Status    string       `json:"status"`
	Exercise  ExerciseData `json:"exercise"`
}

type ExerciseLogResponse struct {
	SessionID int          `json:"session_id"`
	Exercise  ExerciseData `json:"exercise"`
}

type WorkoutSummary struct {
	AssignedReps        int    `json:"assigned_reps"`
	CompletedReps       int    `json:"completed_reps"`
	Performance         string `json:"performance"`
	NextRecommendedReps int    `json:"next_recommended_reps"`
}

type WorkoutEndResponse struct {
	SessionID       int            `json:"session_id"`
	EndedAt         time.Time      `json:"ended_at"`
	DurationMinutes float64        `json:"duration_minutes"`
	Summary         WorkoutSummary `json:"summary"`
}

type LastWorkoutInfo struct {
	SessionID     int       `json:"session_id"`
	AssignedReps  int       `json:"assigned_reps"`
	CompletedReps *int      `json:"completed_reps"`
	Date          time.Time `json:"date"`
}

type RecommendationResponse struct {
	UserID               int              `json:"user_id"`
	RecommendedReps      int              `json:"recommended_reps"`
	RecommendationReason string           `json:"recommendation_reason"`
	LastWorkout          *LastWorkoutInfo `json:"last_workout"`
	Progression          Progression      `json:"progression"`
}

func NewUserResponse(u UserSummary) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		CreatedAt:     u.CreatedAt,
		TotalWorkouts: u.TotalWorkouts,
	}
}

func NewUserDetailResponse(u *UserDetail) UserDetailResponse {
	return UserDetailResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		Stats:     u.Stats,
	}
}

// CompletionPercentage is completed/assigned*100 rounded to 2 decimals, nil until logged.
func CompletionPercentage(e Exercise) *float64 {
	if e.CompletedReps == nil || e.AssignedReps <= 0 {
		return nil
	}
	pct := pkg.RoundTo(float64(*e.CompletedReps)/float64(e.AssignedReps)*100, 2)
	return &pct
}

func NewExerciseData(e Exercise) ExerciseData {
	return ExerciseData{
		ExerciseName:         e.Name,
		AssignedReps:         e.AssignedReps,
		CompletedReps:        e.CompletedReps,
		CompletionPercentage: CompletionPercentage(e),
	}
}

func NewSessionResponse(s *Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		UserID:    s.UserID,
		StartedAt: s.StartedAt,
		EndedAt:   s.EndedAt,
		Status:    string(s.Status()),
		Exercise:  NewExerciseData(s.Exercise),
	}
}

func NewExerciseLogResponse(s *Session) ExerciseLogResponse {
	return ExerciseLogResponse{
		SessionID: s.ID,
		Exercise:  NewExerciseData(s.Exercise),
	}
}

// NewWorkoutEndResponse expects an ended session with a logged exercise.
func NewWorkoutEndResponse(res *EndResult) WorkoutEndResponse {
	s := res.Session
	var endedAt time.Time
	var durationMinutes float64
	if s.EndedAt != nil {
		endedAt = *s.EndedAt
		durationMinutes = pkg.RoundTo(endedAt.Sub(s.StartedAt).Minutes(), 2)
	}

	var completed int
	if s.Exercise.CompletedReps != nil {
		completed = *s.Exercise.CompletedReps
	}
	performance := PerformanceIncomplete
	if completed >= s.Exercise.AssignedReps {
		performance = PerformanceCompleted
	}

	return WorkoutEndResponse{
		SessionID:       s.ID,
		EndedAt:         endedAt,
		DurationMinutes: durationMinutes,
		Summary: WorkoutSummary{
			AssignedReps:        s.Exercise.AssignedReps,
			CompletedReps:       completed,
			Performance:         performance,
			NextRecommendedReps: res.NextReps,
		},
	}
}

func NewRecommendationResponse(v *RecommendationView) RecommendationResponse {
	resp := RecommendationResponse{
		UserID:               v.UserID,
		RecommendedReps:      v.RecommendedReps,
		RecommendationReason: v.Reason,
		Progression:          v.Progression,
	}
	if last := v.LastSession; last != nil {
		date := last.StartedAt
		if last.EndedAt != nil {
			date = *last.EndedAt
		}
		resp.LastWorkout = &LastWorkoutInfo{
			SessionID:     last.ID,
			AssignedReps:  last.Exercise.AssignedReps,
			CompletedReps: last.Exercise.CompletedReps,
			Date:          date,
		}
	}
	return resp
}

// SessionLinks are the follow-up actions of an active session.
func SessionLinks(sessionID int) map[string]string {
	return map[string]string{
		"log": fmt.Sprintf("/api/v1/workouts/%d/log", sessionID),
		"end": fmt.Sprintf("/api/v1/workouts/%d/end", sessionID),
	}
}

func NewPagination[T any](page *Page[T]) pkg.Pagination {
	return pkg.Pagination{
		CurrentPage:  page.CurrentPage(),
		TotalPages:   page.TotalPages(),
		TotalItems:   page.Total,
		ItemsPerPage: page.Limit,
	}
}
