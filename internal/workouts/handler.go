package workouts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/repcoach/internal/middleware"
	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
	"github.com/2beens/repcoach/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

type workoutsService interface {
	CreateUser(ctx context.Context, name string, email *string) (*User, error)
	GetUser(ctx context.Context, id int) (*UserDetail, error)
	DeleteUser(ctx context.Context, id int) error
	ListUsers(ctx context.Context, req PageRequest) (*Page[UserSummary], error)
	StartSession(ctx context.Context, userID, assignedReps int, exerciseName string) (*Session, error)
	GetSession(ctx context.Context, sessionID int) (*Session, error)
	LogExercise(ctx context.Context, sessionID, completedReps int) (*Session, error)
	EndSession(ctx context.Context, sessionID int) (*EndResult, error)
	ListUserSessions(ctx context.Context, userID int, status SessionStatus, req PageRequest) (*Page[Session], error)
	GetRecommendation(ctx context.Context, userID int) (*RecommendationView, error)
}

const codeInternal = "INTERNAL_SERVER_ERROR"

type CreateUserRequest struct {
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

type StartSessionRequest struct {
	AssignedReps *int   `json:"assigned_reps"`
	ExerciseName string `json:"exercise_name"`
}

type LogExerciseRequest struct {
	CompletedReps *int `json:"completed_reps"`
}

type Handler struct {
	service workoutsService
}

func NewHandler(service workoutsService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(
	router *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	metricsManager *metrics.Manager,
	startSessionPerMin int,
) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/users", h.HandleCreateUser).Methods("POST", "OPTIONS").Name("create-user")
	api.HandleFunc("/users", h.HandleListUsers).Methods("GET", "OPTIONS").Name("list-users")
	api.HandleFunc("/users/{id:[0-9]+}", h.HandleGetUser).Methods("GET", "OPTIONS").Name("get-user")
	api.HandleFunc("/users/{id:[0-9]+}", h.HandleDeleteUser).Methods("DELETE", "OPTIONS").Name("delete-user")
	api.HandleFunc("/users/{id:[0-9]+}/workouts", h.HandleListUserSessions).Methods("GET", "OPTIONS").Name("list-user-workouts")
	api.HandleFunc("/users/{id:[0-9]+}/recommendations", h.HandleGetRecommendation).Methods("GET", "OPTIONS").Name("get-recommendation")
	api.HandleFunc("/workouts/{id:[0-9]+}", h.HandleGetSession).Methods("GET", "OPTIONS").Name("get-workout")
	api.HandleFunc("/workouts/{id:[0-9]+}/log", h.HandleLogExercise).Methods("PATCH", "OPTIONS").Name("log-exercise")
	api.HandleFunc("/workouts/{id:[0-9]+}/end", h.HandleEndSession).Methods("PATCH", "OPTIONS").Name("end-workout")

	// starting sessions is rate limited per user
	startRateLimit := middleware.RateLimit(rateLimiter, middleware.KeyFromRouteVar("start-workout", "id"), startSessionPerMin, metricsManager)
	api.Handle("/users/{id:[0-9]+}/workouts", startRateLimit(http.HandlerFunc(h.HandleStartSession))).
		Methods("POST", "OPTIONS").Name("start-workout")
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.users.create")
	defer span.End()

	var req CreateUserRequest
	if err := decodeBody(r.Body, &req); err != nil {
		log.Tracef("create user, unmarshal json params: %s", err)
		writeBadBody(w, r, err)
		return
	}

	user, err := h.service.CreateUser(ctx, req.Name, req.Email)
	if err != nil {
		writeError(w, r, "create user", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusCreated, NewUserResponse(UserSummary{User: *user}))
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.users.list")
	defer span.End()

	pageReq, err := parsePageRequest(r)
	if err != nil {
		writeError(w, r, "list users", err)
		return
	}

	page, err := h.service.ListUsers(ctx, pageReq)
	if err != nil {
		writeError(w, r, "list users", err)
		return
	}

	users := make([]UserResponse, 0, len(page.Items))
	for _, u := range page.Items {
		users = append(users, NewUserResponse(u))
	}
	pkg.WriteSuccess(w, r, http.StatusOK, users, pkg.WithPagination(NewPagination(page)))
}

func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.users.get")
	defer span.End()

	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "get user", err)
		return
	}

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		writeError(w, r, "get user", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusOK, NewUserDetailResponse(user))
}

func (h *Handler) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.users.delete")
	defer span.End()

	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "delete user", err)
		return
	}

	if err := h.service.DeleteUser(ctx, userID); err != nil {
		writeError(w, r, "delete user", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusOK, nil, pkg.WithMessage(fmt.Sprintf("User %d deleted", userID)))
}

func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.start")
	defer span.End()

	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "start session", err)
		return
	}

	var req StartSessionRequest
	if err := decodeBody(r.Body, &req); err != nil {
		log.Tracef("start session, unmarshal json params: %s", err)
		writeBadBody(w, r, err)
		return
	}
	if req.AssignedReps == nil {
		writeError(w, r, "start session", NewValidationError("assigned_reps", "Field required"))
		return
	}

	session, err := h.service.StartSession(ctx, userID, *req.AssignedReps, req.ExerciseName)
	if err != nil {
		writeError(w, r, "start session", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusCreated, NewSessionResponse(session), pkg.WithLinks(SessionLinks(session.ID)))
}

func (h *Handler) HandleListUserSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.list")
	defer span.End()

	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "list sessions", err)
		return
	}
	pageReq, err := parsePageRequest(r)
	if err != nil {
		writeError(w, r, "list sessions", err)
		return
	}
	status := ParseSessionStatus(r.URL.Query().Get("status_filter"))

	page, err := h.service.ListUserSessions(ctx, userID, status, pageReq)
	if err != nil {
		writeError(w, r, "list sessions", err)
		return
	}

	sessions := make([]SessionResponse, 0, len(page.Items))
	for i := range page.Items {
		sessions = append(sessions, NewSessionResponse(&page.Items[i]))
	}
	pkg.WriteSuccess(w, r, http.StatusOK, sessions, pkg.WithPagination(NewPagination(page)))
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.get")
	defer span.End()

	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, "get session", err)
		return
	}

	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		writeError(w, r, "get session", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusOK, NewSessionResponse(session))
}

func (h *Handler) HandleLogExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.exercises.log")
	defer span.End()

	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, "log exercise", err)
		return
	}

	var req LogExerciseRequest
	if err := decodeBody(r.Body, &req); err != nil {
		log.Tracef("log exercise, unmarshal json params: %s", err)
		writeBadBody(w, r, err)
		return
	}
	if req.CompletedReps == nil {
		writeError(w, r, "log exercise", NewValidationError("completed_reps", "Field required"))
		return
	}

	session, err := h.service.LogExercise(ctx, sessionID, *req.CompletedReps)
	if err != nil {
		writeError(w, r, "log exercise", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusOK, NewExerciseLogResponse(session), pkg.WithMessage("Exercise logged successfully"))
}

func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.sessions.end")
	defer span.End()

	sessionID, err := pathID(r, "session_id")
	if err != nil {
		writeError(w, r, "end session", err)
		return
	}

	result, err := h.service.EndSession(ctx, sessionID)
	if err != nil {
		writeError(w, r, "end session", err)
		return
	}

	pkg.WriteSuccess(
		w, r, http.StatusOK,
		NewWorkoutEndResponse(result),
		pkg.WithMessage(fmt.Sprintf("Workout completed! Next workout: %d reps", result.NextReps)),
	)
}

func (h *Handler) HandleGetRecommendation(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.recommendations.get")
	defer span.End()

	userID, err := pathID(r, "user_id")
	if err != nil {
		writeError(w, r, "get recommendation", err)
		return
	}

	view, err := h.service.GetRecommendation(ctx, userID)
	if err != nil {
		writeError(w, r, "get recommendation", err)
		return
	}

	pkg.WriteSuccess(w, r, http.StatusOK, NewRecommendationResponse(view))
}

// StatusCode maps domain errors to HTTP status codes. Anything else is a 500.
func StatusCode(err error) int {
	domainErr, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch domainErr.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	domainErr, ok := AsError(err)
	if !ok {
		log.Errorf("%s: %s", op, err)
		pkg.WriteErrors(w, r, http.StatusInternalServerError, pkg.ErrorDetail{
			Code:    codeInternal,
			Message: "An unexpected error occurred",
		})
		return
	}

	log.Tracef("%s: %s", op, err)
	pkg.WriteErrors(w, r, StatusCode(err), pkg.ErrorDetail{
		Code:            domainErr.Code,
		Message:         domainErr.Message,
		Field:           domainErr.Field,
		ActiveSessionID: domainErr.ActiveSessionID,
	})
}

func writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	pkg.WriteErrors(w, r, http.StatusUnprocessableEntity, pkg.ErrorDetail{
		Code:    CodeValidation,
		Message: fmt.Sprintf("Invalid request body: %s", err),
		Field:   "body",
	})
}

func decodeBody(body io.Reader, v any) error {
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return err
	}
	return nil
}

// pathID reads the numeric {id} route var. Ids too large for an int cannot exist,
// they are passed on as MaxID+1 so the lookup reports them as not found.
func pathID(r *http.Request, field string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return MaxID + 1, nil
		}
		return 0, NewValidationError(field, "Invalid id")
	}
	return id, nil
}

func parsePageRequest(r *http.Request) (PageRequest, error) {
	query := r.URL.Query()
	req := PageRequest{
		Page:   1,
		SortBy: query.Get("sort_by"),
		Order:  SortOrder(query.Get("order")),
	}

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			return PageRequest{}, NewValidationError("page", "Page must be an integer")
		}
		if page > 1 {
			req.Page = page
		}
	}
	if limitParam := query.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return PageRequest{}, NewValidationError("limit", "Limit must be an integer")
		}
		req.Limit = limit
	}

	return req, nil
}
