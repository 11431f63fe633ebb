package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestTracker receives one call per served request.
type RequestTracker interface {
	TrackRequest(method, endpoint string, d time.Duration, status int)
}

// TrackRequests reports every request to t, keyed by the chi route pattern
// so that path parameters do not multiply endpoints. Unmatched routes are
// reported as "unmatched".
func TrackRequests(t RequestTracker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(lrw, r)

			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					endpoint = p
				}
			}
			t.TrackRequest(r.Method, endpoint, time.Since(start), lrw.statusCode)
		})
	}
}
