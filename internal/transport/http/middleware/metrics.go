package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrops/internal/platform/metrics"
)

// Metrics records per-route counters and latency. The chi route pattern is
// resolved after the handler runs so parameterized paths collapse into one
// series.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			collector.RecordRequest(r.Method, route, rec.status, time.Since(start))
		})
	}
}
