package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/repcoach/internal/telemetry/metrics"
	"github.com/2beens/repcoach/pkg"
)

// PanicRecovery answers a panicking handler with a 500 error envelope carrying the request id.
// http.ErrAbortHandler is re-panicked, net/http uses it to drop the connection silently.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				log.WithFields(log.Fields{
					"request_id": pkg.RequestIDFromContext(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
				}).Errorf("panic serving request: %v\n%s", rec, debug.Stack())

				pkg.WriteErrors(w, r, http.StatusInternalServerError, pkg.ErrorDetail{
					Code:    "INTERNAL_SERVER_ERROR",
					Message: "An unexpected error occurred",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
