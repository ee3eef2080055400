package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

const maxExerciseNameLen = 100

// SessionManager owns the session lifecycle. A user has at most one active session.
type SessionManager struct {
	store   Store
	users   userGetter
	engine  *RecommendationEngine
	metrics *metrics.Manager
	now     func() time.Time
}

func NewSessionManager(
	store Store,
	users userGetter,
	engine *RecommendationEngine,
	metricsManager *metrics.Manager,
	now func() time.Time,
) *SessionManager {
	return &SessionManager{
		store:   store,
		users:   users,
		engine:  engine,
		metrics: metricsManager,
		now:     now,
	}
}

// Start creates an active session and its exercise for the user.
func (m *SessionManager) Start(ctx context.Context, userID, assignedReps int, exerciseName string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("user.id", userID),
		attribute.Int("assigned_reps", assignedReps),
	)

	if assignedReps <= 0 || assignedReps > MaxReps {
		return nil, NewValidationError(
			"assigned_reps",
			fmt.Sprintf("Assigned reps must be between 1 and %d", MaxReps),
		)
	}
	exerciseName, err = normalizeExerciseName(exerciseName)
	if err != nil {
		return nil, err
	}

	if _, err := m.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	var session *Session
	err = m.store.InTx(ctx, func(tx Queries) error {
		created, err := tx.CreateSession(ctx, userID, m.now())
		if err != nil {
			return err
		}
		exercise, err := tx.CreateExercise(ctx, created.ID, exerciseName, assignedReps)
		if err != nil {
			return fmt.Errorf("create exercise: %w", err)
		}
		created.Exercise = *exercise
		session = created
		return nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrActiveSessionExists):
		m.metrics.CounterSessionConflicts.WithLabelValues(CodeActiveSessionExists).Inc()
		return nil, m.activeSessionConflict(ctx, userID)
	case errors.Is(err, ErrRecordNotFound):
		// user removed in the meantime
		return nil, NewUserNotFoundError(userID)
	default:
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.metrics.CounterSessionsStarted.Inc()
	log.Debugf("user %d started session %d, assigned reps: %d", userID, session.ID, assignedReps)

	return session, nil
}

// activeSessionConflict builds the conflict error, carrying the active session id if it can still be read.
func (m *SessionManager) activeSessionConflict(ctx context.Context, userID int) error {
	active, err := m.store.GetActiveSession(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			log.Errorf("get active session for user %d: %s", userID, err)
		}
		return NewActiveSessionExistsError(userID, nil)
	}
	return NewActiveSessionExistsError(userID, &active.ID)
}

// End ends an active session with a logged exercise and stores the next recommendation
// for its user, in one transaction.
func (m *SessionManager) End(ctx context.Context, sessionID int) (_ *EndResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.end")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	if !validID(sessionID) {
		return nil, NewSessionNotFoundError(sessionID)
	}

	var result *EndResult
	err = m.store.InTx(ctx, func(tx Queries) error {
		session, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return NewSessionNotFoundError(sessionID)
			}
			return fmt.Errorf("get session: %w", err)
		}
		if !session.Active {
			return NewSessionNotActiveError(sessionID)
		}
		if !session.Exercise.Logged() {
			return NewExerciseNotLoggedError(sessionID)
		}

		endedAt := m.now()
		if err := tx.EndSession(ctx, sessionID, endedAt); err != nil {
			return fmt.Errorf("end session: %w", err)
		}
		session.EndedAt = &endedAt
		session.Active = false

		nextReps := NextReps(session.Exercise.AssignedReps, *session.Exercise.CompletedReps)
		if _, err := m.engine.Upsert(ctx, tx, session.UserID, nextReps, endedAt); err != nil {
			return err
		}

		result = &EndResult{
			Session:  *session,
			NextReps: nextReps,
		}
		return nil
	})
	if err != nil {
		if domainErr, ok := AsError(err); ok && domainErr.Kind == KindConflict {
			m.metrics.CounterSessionConflicts.WithLabelValues(domainErr.Code).Inc()
		}
		return nil, err
	}

	m.engine.Invalidate(ctx, result.Session.UserID)
	m.metrics.CounterSessionsEnded.Inc()
	log.Debugf("session %d ended, next recommended reps: %d", sessionID, result.NextReps)

	return result, nil
}

func (m *SessionManager) Get(ctx context.Context, sessionID int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("session.id", sessionID))

	if !validID(sessionID) {
		return nil, NewSessionNotFoundError(sessionID)
	}

	session, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, NewSessionNotFoundError(sessionID)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func normalizeExerciseName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return DefaultExerciseName, nil
	}
	if utf8.RuneCountInString(name) > maxExerciseNameLen {
		return "", NewValidationError(
			"exercise_name",
			fmt.Sprintf("Exercise name must be at most %d characters", maxExerciseNameLen),
		)
	}
	return name, nil
}
