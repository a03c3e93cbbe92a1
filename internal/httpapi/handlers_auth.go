// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/observability"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Name:      u.Name,
		Role:      string(u.Role),
		Points:    u.Points,
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	user, token, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     auth.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation), errors.Is(err, auth.ErrDuplicateEmail):
			h.recordRegistration(observability.OutcomeRejected)
		default:
			h.recordRegistration(observability.OutcomeError)
		}
		h.respondError(w, err)
		return
	}

	h.recordRegistration(observability.OutcomeSuccess)
	h.logger.InfoContext(r.Context(), "user registered",
		"user_id", user.ID.String(), "role", string(user.Role))
	h.respondJSON(w, http.StatusCreated, sessionResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	user, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.recordLogin(observability.OutcomeRejected)
		} else {
			h.recordLogin(observability.OutcomeError)
		}
		h.respondError(w, err)
		return
	}

	h.recordLogin(observability.OutcomeSuccess)
	h.logger.InfoContext(r.Context(), "user logged in", "user_id", user.ID.String())
	h.respondJSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	h.respondJSON(w, http.StatusOK, toUserResponse(user))
}
