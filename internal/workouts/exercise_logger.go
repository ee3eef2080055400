package workouts

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

// ExerciseLogger records completed reps against the exercise of an active session.
type ExerciseLogger struct {
	store   Store
	metrics *metrics.Manager
}

func NewExerciseLogger(store Store, metricsManager *metrics.Manager) *ExerciseLogger {
	return &ExerciseLogger{
		store:   store,
		metrics: metricsManager,
	}
}

// Log overwrites the completed reps. Can be called any number of times while the session is active.
func (l *ExerciseLogger) Log(ctx context.Context, sessionID, completedReps int) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.exercises.log")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("session.id", sessionID),
		attribute.Int("completed_reps", completedReps),
	)

	if completedReps < 0 || completedReps > MaxReps {
		return nil, NewValidationError(
			"completed_reps",
			fmt.Sprintf("Completed reps must be between 0 and %d", MaxReps),
		)
	}
	if !validID(sessionID) {
		return nil, NewSessionNotFoundError(sessionID)
	}

	var session *Session
	err = l.store.InTx(ctx, func(tx Queries) error {
		s, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				return NewSessionNotFoundError(sessionID)
			}
			return fmt.Errorf("get session: %w", err)
		}
		if !s.Active {
			return NewSessionNotActiveError(sessionID)
		}
		if err := tx.UpdateCompletedReps(ctx, sessionID, completedReps); err != nil {
			return fmt.Errorf("update completed reps: %w", err)
		}
		s.Exercise.CompletedReps = &completedReps
		session = s
		return nil
	})
	if err != nil {
		if IsCode(err, CodeSessionNotActive) {
			l.metrics.CounterSessionConflicts.WithLabelValues(CodeSessionNotActive).Inc()
		}
		return nil, err
	}

	l.metrics.CounterExercisesLogged.Inc()
	log.Debugf("session %d: logged %d/%d reps", sessionID, completedReps, session.Exercise.AssignedReps)

	return session, nil
}
