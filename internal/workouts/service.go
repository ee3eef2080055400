package workouts

import (
	"context"
	"time"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
)

type ServiceParams struct {
	Store               Store
	RecommendationCache RecommendationCache
	Metrics             *metrics.Manager
	DefaultPageSize     int
	MaxPageSize         int
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Service is the single entry point used by the HTTP and MCP handlers.
type Service struct {
	users           *Users
	sessions        *SessionManager
	logger          *ExerciseLogger
	recommendations *RecommendationEngine
	query           *QueryService
}

func NewService(params ServiceParams) *Service {
	now := params.Now
	if now == nil {
		now = func() time.Time {
			return time.Now().UTC()
		}
	}
	recCache := params.RecommendationCache
	if recCache == nil {
		recCache = NoopRecommendationCache{}
	}

	users := NewUsers(params.Store, recCache, params.Metrics)
	engine := NewRecommendationEngine(params.Store, users, recCache, params.Metrics)

	return &Service{
		users:           users,
		sessions:        NewSessionManager(params.Store, users, engine, params.Metrics, now),
		logger:          NewExerciseLogger(params.Store, params.Metrics),
		recommendations: engine,
		query:           NewQueryService(params.Store, users, params.DefaultPageSize, params.MaxPageSize),
	}
}

func (s *Service) CreateUser(ctx context.Context, name string, email *string) (*User, error) {
	return s.users.Create(ctx, name, email)
}

func (s *Service) GetUser(ctx context.Context, id int) (*UserDetail, error) {
	return s.users.GetDetail(ctx, id)
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	return s.users.Delete(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context, req PageRequest) (*Page[UserSummary], error) {
	return s.query.ListUsers(ctx, req)
}

func (s *Service) StartSession(ctx context.Context, userID, assignedReps int, exerciseName string) (*Session, error) {
	return s.sessions.Start(ctx, userID, assignedReps, exerciseName)
}

func (s *Service) GetSession(ctx context.Context, sessionID int) (*Session, error) {
	return s.sessions.Get(ctx, sessionID)
}

func (s *Service) LogExercise(ctx context.Context, sessionID, completedReps int) (*Session, error) {
	return s.logger.Log(ctx, sessionID, completedReps)
}

func (s *Service) EndSession(ctx context.Context, sessionID int) (*EndResult, error) {
	return s.sessions.End(ctx, sessionID)
}

func (s *Service) ListUserSessions(ctx context.Context, userID int, status SessionStatus, req PageRequest) (*Page[Session], error) {
	return s.query.ListUserSessions(ctx, userID, status, req)
}

func (s *Service) GetRecommendation(ctx context.Context, userID int) (*RecommendationView, error) {
	return s.recommendations.Get(ctx, userID)
}
