package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/pkg"
)

const codeRateLimited = "RATE_LIMITED"

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// KeyFunc picks the rate limiting bucket for a request.
type KeyFunc func(r *http.Request) string

func StaticKey(key string) KeyFunc {
	return func(*http.Request) string {
		return key
	}
}

// KeyFromRouteVar buckets requests per value of the given mux route variable.
func KeyFromRouteVar(prefix, varName string) KeyFunc {
	return func(r *http.Request) string {
		return fmt.Sprintf("%s::%s", prefix, mux.Vars(r)[varName])
	}
}

func RateLimit(
	rateLimiter RequestRateLimiter,
	keyFunc KeyFunc,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := keyFunc(r)
			res, err := rateLimiter.Allow(
				r.Context(),
				key,
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", key, err)
				pkg.WriteErrors(w, r, http.StatusInternalServerError, pkg.ErrorDetail{
					Code:    "INTERNAL_SERVER_ERROR",
					Message: "rate limit internal error",
				})
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkg.WriteErrors(w, r, http.StatusTooManyRequests, pkg.ErrorDetail{
				Code:    codeRateLimited,
				Message: fmt.Sprintf("retry after %d seconds", retryAfter),
			})
		})
	}
}

// NoopRateLimiter allows every request. Used when no redis is configured.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Allow(_ context.Context, _ string, limit redis_rate.Limit) (*redis_rate.Result, error) {
	return &redis_rate.Result{
		Limit:     limit,
		Allowed:   1,
		Remaining: limit.Burst,
	}, nil
}
