package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/version", s.handleVersion)
		r.Get("/structure", s.handleStructure)
		r.Get("/state", s.handleState)

		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/", s.handleCreateRoom)

			r.Route("/{roomID}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Patch("/", s.handleUpdateRoom)
				r.Delete("/", s.handleDeleteRoom)

				r.Route("/items", func(r chi.Router) {
					r.Post("/", s.handleCreateItem)

					r.Route("/{itemID}", func(r chi.Router) {
						r.Get("/", s.handleGetItem)
						r.Put("/", s.handleUpdateItem)
						r.Delete("/", s.handleDeleteItem)
						r.Post("/commands", s.handleQueueCommand)
					})
				})
			})
		})

		r.Get("/queue", s.handleQueue)

		r.Route("/rules", func(r chi.Router) {
			r.Get("/", s.handleListRules)
			r.Post("/", s.handleCreateRule)

			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", s.handleGetRule)
				r.Put("/", s.handleUpdateRule)
				r.Delete("/", s.handleDeleteRule)

				r.Post("/conditions", s.handleAddCondition)
				r.Put("/conditions/{conditionID}", s.handleUpdateCondition)
				r.Delete("/conditions/{conditionID}", s.handleDeleteCondition)

				r.Post("/actions", s.handleAddAction)
				r.Put("/actions/{actionID}", s.handleUpdateAction)
				r.Delete("/actions/{actionID}", s.handleDeleteAction)
			})
		})

		r.Post("/triggers", s.handleTrigger)
		r.Get("/audit", s.handleListAudit)
	})

	return r
}

// handleHealth reports overall status and each dependency's state.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := map[string]string{}

	if s.db != nil {
		components["database"] = "ok"
		if err := s.db.HealthCheck(r.Context()); err != nil {
			components["database"] = err.Error()
			status = "degraded"
		}
	}
	if s.mqtt != nil {
		components["mqtt"] = "connected"
		if !s.mqtt.IsConnected() {
			components["mqtt"] = "disconnected"
			status = "degraded"
		}
	}
	if !s.house.QueueStats().Running {
		components["queue"] = "stopped"
		status = "degraded"
	} else {
		components["queue"] = "running"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}
