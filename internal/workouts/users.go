package workouts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

const (
	minUserNameLen = 2
	maxUserNameLen = 100
	maxEmailLen    = 255
)

type userGetter interface {
	Get(ctx context.Context, id int) (*User, error)
}

type Users struct {
	store    Store
	recCache RecommendationCache
	metrics  *metrics.Manager
}

func NewUsers(store Store, recCache RecommendationCache, metricsManager *metrics.Manager) *Users {
	return &Users{
		store:    store,
		recCache: recCache,
		metrics:  metricsManager,
	}
}

func (u *Users) Create(ctx context.Context, name string, email *string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.users.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name, email, err = validateUser(name, email)
	if err != nil {
		return nil, err
	}

	user, err := u.store.CreateUser(ctx, name, email)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, NewValidationError("email", fmt.Sprintf("Email %s is already registered", *email))
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	u.metrics.CounterUsersCreated.Inc()
	log.Debugf("user created: %d", user.ID)

	return user, nil
}

// Get returns the user by id. Users are not cached in memory, a user deleted by
// another replica must resolve as not found.
func (u *Users) Get(ctx context.Context, id int) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	if !validID(id) {
		return nil, NewUserNotFoundError(id)
	}

	user, err := u.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NewUserNotFoundError(id)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (u *Users) GetDetail(ctx context.Context, id int) (_ *UserDetail, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.users.getdetail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := u.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	totalWorkouts, err := u.store.CountSessions(ctx, SessionFilter{UserID: id, Status: StatusAll})
	if err != nil {
		return nil, fmt.Errorf("count sessions: %w", err)
	}
	activeSessions, err := u.store.CountSessions(ctx, SessionFilter{UserID: id, Status: StatusActive})
	if err != nil {
		return nil, fmt.Errorf("count active sessions: %w", err)
	}

	currentReps := DefaultRecommendedReps
	rec, err := u.store.GetRecommendation(ctx, id)
	switch {
	case err == nil:
		currentReps = rec.NextRecommendedReps
	case !errors.Is(err, ErrRecordNotFound):
		return nil, fmt.Errorf("get recommendation: %w", err)
	}

	return &UserDetail{
		User: *user,
		Stats: UserStats{
			TotalWorkouts: totalWorkouts,
			// every session owns exactly one exercise
			TotalExercises:         totalWorkouts,
			ActiveSessions:         activeSessions,
			CurrentRecommendedReps: currentReps,
		},
	}, nil
}

// Delete removes the user. Sessions, exercises and the recommendation go with it.
func (u *Users) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.users.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", id))

	if !validID(id) {
		return NewUserNotFoundError(id)
	}

	if err := u.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return NewUserNotFoundError(id)
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if err := u.recCache.Invalidate(ctx, id); err != nil {
		log.Errorf("invalidate recommendation cache for deleted user %d: %s", id, err)
	}
	log.Debugf("user deleted: %d", id)

	return nil
}

func validateUser(name string, email *string) (string, *string, error) {
	name = strings.TrimSpace(name)
	if l := utf8.RuneCountInString(name); l < minUserNameLen || l > maxUserNameLen {
		return "", nil, NewValidationError(
			"name",
			fmt.Sprintf("Name must be between %d and %d characters", minUserNameLen, maxUserNameLen),
		)
	}

	if email == nil {
		return name, nil, nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return name, nil, nil
	}
	if len(trimmed) > maxEmailLen {
		return "", nil, NewValidationError("email", fmt.Sprintf("Email must be at most %d characters", maxEmailLen))
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", nil, NewValidationError("email", "Email address is not valid")
	}

	return name, &trimmed, nil
}
