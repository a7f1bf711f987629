package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bookcourier/book-courier-api/internal/metrics"
)

// Metrics records request counts and latency. The mux's route pattern,
// not the raw path, is used as the path label to keep cardinality
// bounded.
func Metrics(mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			_, path := mux.Handler(r)
			if path == "" {
				path = "unmatched"
			}

			next.ServeHTTP(rec, r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
