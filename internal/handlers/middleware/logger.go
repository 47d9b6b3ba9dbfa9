package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type requestRecorder interface {
	RecordHTTPRequest(route string, method string, status int, d time.Duration)
}

// LoggerMiddleware logs every request with its request id (if RequestID middleware is used before)
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			l.Info(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"request_id", chimiddleware.GetReqID(r.Context()),
				"duration", time.Since(start),
				"status", status(ww),
				"size", ww.BytesWritten(),
			)
		})
	}
}

// MetricsMiddleware observes request latency labeled with chi route pattern
// Requests not matched by any route are labeled "unmatched" to keep label cardinality low
func MetricsMiddleware(m requestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}

			m.RecordHTTPRequest(route, r.Method, status(ww), time.Since(start))
		})
	}
}

// Handler that never writes header responds with 200
func status(ww chimiddleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}
