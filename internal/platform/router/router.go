// Package router assembles the root HTTP surface: global middleware,
// operational endpoints, and the account API.
package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	accounthandler "atrium/internal/account/handler"
	"atrium/internal/platform/metrics"
	"atrium/internal/platform/middleware"
	"atrium/pkg/platform/httputil"
)

// HealthCheck probes one backing dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// New builds the root router. Operational endpoints sit outside the JSON
// content-type guard so probes and scrapers stay plain HTTP.
func New(logger *slog.Logger, m *metrics.Metrics, accounts *accounthandler.Handler, checks ...HealthCheck) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, m))

	r.Get("/healthz", handleHealth(checks))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		accounts.Register(r)
	})

	return r
}

type healthResponse struct {
	Status  string            `json:"status"`
	Failing map[string]string `json:"failing,omitempty"`
}

func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		failing := make(map[string]string)
		for _, check := range checks {
			if err := check.Check(r.Context()); err != nil {
				failing[check.Name] = err.Error()
			}
		}
		if len(failing) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Failing: failing})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
