package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"atrium/internal/platform/metrics"
	"atrium/pkg/requestcontext"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logger emits one structured line per request and records latency metrics.
func Logger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			ctx := r.Context()
			logger.InfoContext(ctx, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
				"request_id", requestcontext.RequestID(ctx),
			)
			if m != nil {
				m.RequestDuration.WithLabelValues(r.URL.Path, statusClass(rec.status)).Observe(elapsed.Seconds())
			}
		})
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
