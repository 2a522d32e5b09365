package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lineage/internal/platform/health"
	"lineage/internal/platform/middleware"
)

// Handlers collects the per-feature handlers the router mounts.
type Handlers struct {
	Persons       *PersonHandler
	Trees         *TreeHandler
	Notifications *NotificationHandler
	Processed     *ProcessedHandler
	Health        *health.Handler
}

// NewRouter wires all public endpoints with middleware.
func NewRouter(h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	if h.Health != nil {
		h.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		if h.Persons != nil {
			h.Persons.Register(r)
		}
		if h.Trees != nil {
			h.Trees.Register(r)
		}
		if h.Notifications != nil {
			h.Notifications.Register(r)
		}
		if h.Processed != nil {
			h.Processed.Register(r)
		}
	})

	return r
}
