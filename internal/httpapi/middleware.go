// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/observability"
)

type contextKey string

const userContextKey contextKey = "civicore.user"

// authenticate resolves the Authorization header to a user and attaches it
// to the request context. Requests without a valid bearer token get 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.svc.Authenticate(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			h.recordTokenValidation(observability.OutcomeRejected)
			h.respondError(w, err)
			return
		}
		h.recordTokenValidation(observability.OutcomeSuccess)

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userFrom returns the authenticated user attached by the middleware.
// Handlers behind the authenticate middleware can rely on it being set.
func userFrom(ctx context.Context) *auth.User {
	user, _ := ctx.Value(userContextKey).(*auth.User)
	return user
}

// countRequests records one HTTPRequestsTotal sample per request, labelled
// with the matched chi route pattern rather than the raw path so IDs don't
// explode label cardinality.
func (h *Handler) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if h.metrics == nil {
			return
		}
		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		h.metrics.HTTPRequestsTotal.
			WithLabelValues(route, strconv.Itoa(ww.Status())).
			Inc()
	})
}

func (h *Handler) recordTokenValidation(outcome string) {
	if h.metrics != nil {
		h.metrics.TokenValidationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) recordLogin(outcome string) {
	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (h *Handler) recordRegistration(outcome string) {
	if h.metrics != nil {
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}
