package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-roi/internal/auth"
)

// healthCheckTimeout bounds each dependency probe in /health.
const healthCheckTimeout = 3 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Health and Prometheus scrape (no auth required)
		r.Get("/health", s.handleHealth)
		r.Handle("/metrics", metricsHandler())

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/devices", func(r chi.Router) {
				r.With(requirePermission(auth.PermDeviceRead)).Get("/", s.handleListDevices)
				r.With(requirePermission(auth.PermDeviceManage)).Post("/", s.handleCreateDevice)

				r.Route("/{id}", func(r chi.Router) {
					r.With(requirePermission(auth.PermDeviceRead)).Get("/", s.handleGetDevice)
					r.With(requirePermission(auth.PermDeviceManage)).Patch("/", s.handleUpdateDevice)
					r.With(requirePermission(auth.PermDeviceManage)).Delete("/", s.handleDeleteDevice)

					r.With(requirePermission(auth.PermRuleRead)).Get("/roi", s.handleGetRules)
					r.With(requirePermission(auth.PermRuleWrite)).Put("/roi", s.handleSaveRules)
					r.With(requirePermission(auth.PermRuleRead)).Get("/roi/{roiID}/next-slot", s.handleNextSlot)

					r.With(requirePermission(auth.PermSnapshot)).Get("/snapshot", s.handleSnapshot)
				})
			})

			r.With(requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAuditLogs)
		})
	})

	return r
}

// handleHealth reports the server and each registered dependency. Any
// failing dependency turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(s.health))

	for name, hc := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := hc.HealthCheck(ctx)
		cancel()
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":         overall,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"checks":         checks,
	})
}
