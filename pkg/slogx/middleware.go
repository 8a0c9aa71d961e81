package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/venkateshmergu-svg/LMS-ORG-01-sub000/pkg/idx"
)

// HTTPMiddleware logs requests and attaches a contextual logger and request
// id into the request context.
func HTTPMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			reqID := r.Header.Get("X-Request-ID")
			if !idx.Valid(reqID) {
				reqID = idx.New().String()
			}
			w.Header().Set("X-Request-ID", reqID)

			logger := base.With(
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := WithRequestID(WithContext(r.Context(), logger), reqID)
			r = r.WithContext(ctx)

			next.ServeHTTP(rw, r)

			FromContext(ctx).Info("http_request",
				"status", rw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter

	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer, which
// the event stream needs for flushing.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
