package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
)

type testRequestRateLimiter struct {
	// key to number of remaining allowed requests
	Remaining map[string]int
	Keys      []string
	Err       error
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	l.Keys = append(l.Keys, key)
	if l.Err != nil {
		return nil, l.Err
	}

	res := &redis_rate.Result{Limit: limit}
	if l.Remaining[key] > 0 {
		l.Remaining[key]--
		res.Allowed = 1
		res.Remaining = l.Remaining[key]
		return res, nil
	}
	res.RetryAfter = 1500 * time.Millisecond
	return res, nil
}

func TestRateLimit_PerRouteVarKey(t *testing.T) {
	limiter := &testRequestRateLimiter{
		Remaining: map[string]int{
			"start-workout::1": 1,
			"start-workout::2": 1,
		},
	}
	metricsManager := metrics.NewTestManager()

	r := mux.NewRouter()
	r.Handle("/users/{id}/workouts",
		RateLimit(limiter, KeyFromRouteVar("start-workout", "id"), 1, metricsManager)(
			http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusCreated)
			}),
		),
	).Methods("POST")

	doReq := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("POST", path, nil))
		return rr
	}

	assert.Equal(t, http.StatusCreated, doReq("/users/1/workouts").Code)
	limited := doReq("/users/1/workouts")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "2", limited.Header().Get("Retry-After"))
	// other users have their own bucket
	assert.Equal(t, http.StatusCreated, doReq("/users/2/workouts").Code)

	assert.Equal(t, []string{"start-workout::1", "start-workout::1", "start-workout::2"}, limiter.Keys)
	assert.Equal(t, float64(1), testutil.ToFloat64(metricsManager.CounterRateLimitedRequests))
}

func TestRateLimit_LimiterError(t *testing.T) {
	limiter := &testRequestRateLimiter{Err: errors.New("redis down")}

	nextCalled := false
	handler := RateLimit(limiter, StaticKey("all"), 10, nil)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			nextCalled = true
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, nextCalled)
}

func TestRateLimit_OptionsNotLimited(t *testing.T) {
	limiter := &testRequestRateLimiter{}

	nextCalled := false
	handler := RateLimit(limiter, StaticKey("all"), 10, nil)(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			nextCalled = true
		}),
	)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/", nil))

	assert.True(t, nextCalled)
	assert.Empty(t, limiter.Keys)
}

func TestNoopRateLimiter(t *testing.T) {
	res, err := NoopRateLimiter{}.Allow(context.Background(), "any", redis_rate.PerMinute(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
	assert.Equal(t, 1, res.Remaining)
}
