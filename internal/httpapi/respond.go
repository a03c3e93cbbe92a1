// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/community"
	"github.com/civicore/civicore/pkg/errutil"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// respondError maps domain errors to HTTP statuses. The error text sent to
// the client is the sentinel's message only; wrapped internals stay in the
// server log.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrValidation):
		h.respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrDuplicateEmail):
		h.respondJSON(w, http.StatusConflict, errorResponse{Error: auth.ErrDuplicateEmail.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: auth.ErrInvalidCredentials.Error()})
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrUserNotFound):
		h.respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	case errors.Is(err, auth.ErrForbidden):
		h.respondJSON(w, http.StatusForbidden, errorResponse{Error: auth.ErrForbidden.Error()})
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, community.ErrNotFound):
		h.respondJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		errutil.LogError(h.logger, "request failed", err)
		h.respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Join(auth.ErrValidation, err)
	}
	return nil
}
