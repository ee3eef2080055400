package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/2beens/repcoach/pkg"
)

// RequestID gives every request a fresh uuid, exposed in the request context and the X-Request-ID header.
func RequestID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			w.Header().Set(pkg.RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(pkg.ContextWithRequestID(r.Context(), requestID)))
		})
	}
}
