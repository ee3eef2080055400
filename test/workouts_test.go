package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/repcoach/internal/workouts"
	"github.com/2beens/repcoach/pkg"
)

type envelope[T any] struct {
	Success bool              `json:"success"`
	Data    T                 `json:"data"`
	Errors  []pkg.ErrorDetail `json:"errors"`
	Meta    pkg.Meta          `json:"meta"`
	Message string            `json:"message"`
	Links   map[string]string `json:"links"`
}

func doJSON[T any](s *IntegrationTestSuite, method, path string, body any, expectedStatus int) envelope[T] {
	s.T().Helper()

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, serverEndpoint+path, reqBody)
	require.NoError(s.T(), err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	require.Equal(s.T(), expectedStatus, resp.StatusCode, string(respBytes))

	var env envelope[T]
	require.NoError(s.T(), json.Unmarshal(respBytes, &env))
	return env
}

func (s *IntegrationTestSuite) createUser(name string) workouts.UserResponse {
	email := gofakeit.Email()
	env := doJSON[workouts.UserResponse](s, http.MethodPost, "/api/v1/users", workouts.CreateUserRequest{
		Name:  name,
		Email: &email,
	}, http.StatusCreated)
	require.True(s.T(), env.Success)
	return env.Data
}

func (s *IntegrationTestSuite) runWorkout(userID, assigned, completed int) workouts.WorkoutEndResponse {
	started := doJSON[workouts.SessionResponse](s, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/workouts", userID), map[string]any{
		"assigned_reps": assigned,
	}, http.StatusCreated)

	doJSON[workouts.ExerciseLogResponse](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/log", started.Data.ID), map[string]any{
		"completed_reps": completed,
	}, http.StatusOK)

	ended := doJSON[workouts.WorkoutEndResponse](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/end", started.Data.ID), nil, http.StatusOK)
	return ended.Data
}

func (s *IntegrationTestSuite) TestRoot() {
	env := doJSON[map[string]string](s, http.MethodGet, "/", nil, http.StatusOK)
	assert.Equal(s.T(), "running", env.Data["status"])
	assert.NotEmpty(s.T(), env.Meta.RequestID)
}

func (s *IntegrationTestSuite) TestUnknownRoute() {
	env := doJSON[any](s, http.MethodGet, "/api/v1/nope", nil, http.StatusNotFound)
	require.Len(s.T(), env.Errors, 1)
	assert.Equal(s.T(), "NOT_FOUND", env.Errors[0].Code)
}

func (s *IntegrationTestSuite) TestWorkoutFlow() {
	user := s.createUser("Ana")

	rec := doJSON[workouts.RecommendationResponse](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/recommendations", user.ID), nil, http.StatusOK)
	assert.Equal(s.T(), 10, rec.Data.RecommendedReps)
	assert.Nil(s.T(), rec.Data.LastWorkout)

	started := doJSON[workouts.SessionResponse](s, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/workouts", user.ID), map[string]any{
		"assigned_reps": 10,
	}, http.StatusCreated)
	assert.Equal(s.T(), "active", started.Data.Status)
	assert.Equal(s.T(), "Push-ups", started.Data.Exercise.ExerciseName)
	assert.Contains(s.T(), started.Links, "log")

	// only one active session per user
	conflict := doJSON[any](s, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/workouts", user.ID), map[string]any{
		"assigned_reps": 10,
	}, http.StatusConflict)
	require.Len(s.T(), conflict.Errors, 1)
	require.NotNil(s.T(), conflict.Errors[0].ActiveSessionID)
	assert.Equal(s.T(), started.Data.ID, *conflict.Errors[0].ActiveSessionID)

	// ending before logging is rejected
	doJSON[any](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/end", started.Data.ID), nil, http.StatusConflict)

	logged := doJSON[workouts.ExerciseLogResponse](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/log", started.Data.ID), map[string]any{
		"completed_reps": 12,
	}, http.StatusOK)
	require.NotNil(s.T(), logged.Data.Exercise.CompletionPercentage)
	assert.Equal(s.T(), 120.0, *logged.Data.Exercise.CompletionPercentage)

	ended := doJSON[workouts.WorkoutEndResponse](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/end", started.Data.ID), nil, http.StatusOK)
	assert.Equal(s.T(), 12, ended.Data.Summary.NextRecommendedReps)
	assert.Equal(s.T(), workouts.PerformanceCompleted, ended.Data.Summary.Performance)

	// logging after end is rejected
	doJSON[any](s, http.MethodPatch, fmt.Sprintf("/api/v1/workouts/%d/log", started.Data.ID), map[string]any{
		"completed_reps": 3,
	}, http.StatusConflict)

	second := s.runWorkout(user.ID, 12, 9)
	assert.Equal(s.T(), 11, second.Summary.NextRecommendedReps)
	assert.Equal(s.T(), workouts.PerformanceIncomplete, second.Summary.Performance)

	rec = doJSON[workouts.RecommendationResponse](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/recommendations", user.ID), nil, http.StatusOK)
	assert.Equal(s.T(), 11, rec.Data.RecommendedReps)
	require.NotNil(s.T(), rec.Data.LastWorkout)
	assert.Equal(s.T(), 12, rec.Data.LastWorkout.AssignedReps)
	assert.Equal(s.T(), 2, rec.Data.Progression.SessionsCount)

	detail := doJSON[workouts.UserDetailResponse](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", user.ID), nil, http.StatusOK)
	assert.Equal(s.T(), 2, detail.Data.Stats.TotalWorkouts)
	assert.Equal(s.T(), 2, detail.Data.Stats.TotalExercises)

	sessions := doJSON[[]workouts.SessionResponse](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/workouts?status=completed&limit=1", user.ID), nil, http.StatusOK)
	require.Len(s.T(), sessions.Data, 1)
	require.NotNil(s.T(), sessions.Meta.Pagination)
	assert.Equal(s.T(), 2, sessions.Meta.Pagination.TotalItems)
	assert.Equal(s.T(), 2, sessions.Meta.Pagination.TotalPages)
}

func (s *IntegrationTestSuite) TestDeleteUser() {
	user := s.createUser("Bo")
	s.runWorkout(user.ID, 10, 10)

	deleted := doJSON[any](s, http.MethodDelete, fmt.Sprintf("/api/v1/users/%d", user.ID), nil, http.StatusOK)
	assert.Equal(s.T(), fmt.Sprintf("User %d deleted", user.ID), deleted.Message)

	doJSON[any](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d", user.ID), nil, http.StatusNotFound)
	doJSON[any](s, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/recommendations", user.ID), nil, http.StatusNotFound)

	var sessionsLeft int
	require.NoError(s.T(), s.DB.QueryRow("SELECT COUNT(*) FROM workout_session WHERE user_id = $1", user.ID).Scan(&sessionsLeft))
	assert.Zero(s.T(), sessionsLeft)
}

func (s *IntegrationTestSuite) TestListUsers() {
	for i := 0; i < 3; i++ {
		s.createUser(gofakeit.Name())
	}

	env := doJSON[[]workouts.UserResponse](s, http.MethodGet, "/api/v1/users?limit=2&sort_by=id&order=desc", nil, http.StatusOK)
	require.Len(s.T(), env.Data, 2)
	assert.Greater(s.T(), env.Data[0].ID, env.Data[1].ID)
	require.NotNil(s.T(), env.Meta.Pagination)
	assert.Equal(s.T(), 3, env.Meta.Pagination.TotalItems)
}

func (s *IntegrationTestSuite) TestCreateUser_DuplicateEmail() {
	email := gofakeit.Email()
	doJSON[workouts.UserResponse](s, http.MethodPost, "/api/v1/users", workouts.CreateUserRequest{Name: "A", Email: &email}, http.StatusCreated)

	env := doJSON[any](s, http.MethodPost, "/api/v1/users", workouts.CreateUserRequest{Name: "B", Email: &email}, http.StatusUnprocessableEntity)
	require.Len(s.T(), env.Errors, 1)
	assert.Equal(s.T(), "email", env.Errors[0].Field)
}
