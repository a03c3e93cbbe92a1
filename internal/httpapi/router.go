// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

// Package httpapi exposes the platform over a JSON HTTP API.
package httpapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/community"
	"github.com/civicore/civicore/internal/observability"
)

// Handler carries the dependencies behind the HTTP surface.
type Handler struct {
	svc      *auth.Service
	events   community.EventRepository
	messages community.MessageRepository
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewHandler creates a Handler. metrics may be nil, which disables
// counter updates (useful in tests). logger may be nil to use the
// default logger.
func NewHandler(svc *auth.Service, events community.EventRepository, messages community.MessageRepository, metrics *observability.Metrics, logger *slog.Logger) (*Handler, error) {
	if svc == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("auth service is required")
	}
	if events == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("event repository is required")
	}
	if messages == nil {
		return nil, oops.Code("INVALID_DEPENDENCY").Errorf("message repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:      svc,
		events:   events,
		messages: messages,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Router assembles the route tree. Registration and login are open;
// everything else requires a bearer token.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.countRequests)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.handleMe)
			r.Get("/events", h.handleListEvents)
			r.Post("/events", h.handleCreateEvent)
			r.Get("/events/{id}", h.handleGetEvent)
			r.Post("/events/{id}/join", h.handleJoinEvent)
			r.Get("/events/{id}/messages", h.handleListMessages)
			r.Post("/events/{id}/messages", h.handlePostMessage)
		})
	})

	return r
}
