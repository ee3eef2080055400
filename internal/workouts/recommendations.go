package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/internal/telemetry/tracing"
)

// NextReps computes the rep target for the next session: two more when the assigned
// reps were completed, one less otherwise. Never below 1. Reps above MaxReps count as MaxReps.
func NextReps(assignedReps, completedReps int) int {
	assignedReps = min(assignedReps, MaxReps)
	completedReps = min(completedReps, MaxReps)

	next := assignedReps - 1
	if completedReps >= assignedReps {
		next = assignedReps + 2
	}
	return max(1, next)
}

type RecommendationEngine struct {
	store   Store
	users   userGetter
	cache   RecommendationCache
	metrics *metrics.Manager
}

func NewRecommendationEngine(
	store Store,
	users userGetter,
	cache RecommendationCache,
	metricsManager *metrics.Manager,
) *RecommendationEngine {
	return &RecommendationEngine{
		store:   store,
		users:   users,
		cache:   cache,
		metrics: metricsManager,
	}
}

// Upsert stores the user's next recommended reps within the given transaction.
func (e *RecommendationEngine) Upsert(ctx context.Context, tx Queries, userID, nextReps int, at time.Time) (*Recommendation, error) {
	rec, err := tx.UpsertRecommendation(ctx, userID, nextReps, at)
	if err != nil {
		return nil, fmt.Errorf("upsert recommendation: %w", err)
	}
	e.metrics.HistogramNextReps.Observe(float64(nextReps))
	return rec, nil
}

// Invalidate drops the cached view of the user's recommendation. Failures are only logged,
// the cached entry expires on its own.
func (e *RecommendationEngine) Invalidate(ctx context.Context, userID int) {
	if err := e.cache.Invalidate(ctx, userID); err != nil {
		log.Errorf("invalidate recommendation cache for user %d: %s", userID, err)
	}
}

func (e *RecommendationEngine) Get(ctx context.Context, userID int) (_ *RecommendationView, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.recommendations.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("user.id", userID))

	if _, err := e.users.Get(ctx, userID); err != nil {
		return nil, err
	}

	cached, found, err := e.cache.Get(ctx, userID)
	switch {
	case err != nil:
		e.metrics.CounterRecommendationCache.WithLabelValues("error").Inc()
		log.Errorf("get recommendation from cache for user %d: %s", userID, err)
	case found:
		e.metrics.CounterRecommendationCache.WithLabelValues("hit").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	default:
		e.metrics.CounterRecommendationCache.WithLabelValues("miss").Inc()
	}

	// read before the store, so a session ended meanwhile keeps this view out of the cache
	generation, genErr := e.cache.Generation(ctx, userID)
	if genErr != nil {
		log.Errorf("get recommendation cache generation for user %d: %s", userID, genErr)
	}

	rec, err := e.store.GetRecommendation(ctx, userID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get recommendation: %w", err)
	}
	last, err := e.store.LastEndedSession(ctx, userID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get last ended session: %w", err)
	}
	first, err := e.store.FirstEndedSession(ctx, userID)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get first ended session: %w", err)
	}
	endedCount, err := e.store.CountSessions(ctx, SessionFilter{UserID: userID, Status: StatusCompleted})
	if err != nil {
		return nil, fmt.Errorf("count ended sessions: %w", err)
	}

	view := BuildRecommendationView(userID, rec, last, first, endedCount)

	if genErr == nil {
		stored, err := e.cache.Set(ctx, view, generation)
		switch {
		case err != nil:
			log.Errorf("set recommendation cache for user %d: %s", userID, err)
		case !stored:
			e.metrics.CounterRecommendationCache.WithLabelValues("stale").Inc()
			log.Debugf("recommendation for user %d changed while building it, not cached", userID)
		}
	}

	return view, nil
}

// BuildRecommendationView derives the recommendation from the stored value (if any),
// the last and first ended sessions (if any) and the number of ended sessions.
func BuildRecommendationView(userID int, rec *Recommendation, last, first *Session, endedCount int) *RecommendationView {
	view := &RecommendationView{
		UserID:          userID,
		RecommendedReps: DefaultRecommendedReps,
		Reason:          ReasonStarting,
		LastSession:     last,
		Progression: Progression{
			Trend:         TrendNew,
			SessionsCount: endedCount,
		},
	}

	lastLogged := last != nil && last.Exercise.Logged()
	switch {
	case rec != nil:
		view.RecommendedReps = rec.NextRecommendedReps
	case lastLogged:
		view.RecommendedReps = NextReps(last.Exercise.AssignedReps, *last.Exercise.CompletedReps)
	}

	if lastLogged {
		if *last.Exercise.CompletedReps >= last.Exercise.AssignedReps {
			view.Reason = ReasonCompleted
			view.Progression.Trend = TrendImproving
		} else {
			view.Reason = ReasonIncomplete
			view.Progression.Trend = TrendAdjusting
		}
	}

	if first != nil {
		view.Progression.TotalIncrease = view.RecommendedReps - first.Exercise.AssignedReps
	}

	return view
}
