package middleware

import (
	"net/http"
	"strconv"
	"time"
)

const ProcessTimeHeader = "X-Process-Time"

// Timing sets the X-Process-Time header, in seconds, right before the response headers go out.
func Timing() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timingWriter{ResponseWriter: w, begin: time.Now()}
			next.ServeHTTP(tw, r)
			if !tw.wroteHeader {
				// nothing written by the handler
				tw.WriteHeader(http.StatusOK)
			}
		})
	}
}

type timingWriter struct {
	http.ResponseWriter
	begin       time.Time
	wroteHeader bool
}

func (t *timingWriter) WriteHeader(statusCode int) {
	if !t.wroteHeader {
		t.wroteHeader = true
		elapsed := time.Since(t.begin).Seconds()
		t.ResponseWriter.Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', -1, 64))
	}
	t.ResponseWriter.WriteHeader(statusCode)
}

func (t *timingWriter) Write(b []byte) (int, error) {
	if !t.wroteHeader {
		t.WriteHeader(http.StatusOK)
	}
	return t.ResponseWriter.Write(b)
}

func (t *timingWriter) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
