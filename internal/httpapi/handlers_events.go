// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/civicore/civicore/internal/auth"
	"github.com/civicore/civicore/internal/community"
)

type createEventRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity,omitempty"`
}

type eventResponse struct {
	ID          string    `json:"id"`
	HostID      string    `json:"host_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	Capacity    int       `json:"capacity"`
	CreatedAt   time.Time `json:"created_at"`
}

type postMessageRequest struct {
	Body string `json:"body"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	EventID   string    `json:"event_id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func toEventResponse(e *community.Event) eventResponse {
	return eventResponse{
		ID:          e.ID.String(),
		HostID:      e.HostID.String(),
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		Capacity:    e.Capacity,
		CreatedAt:   e.CreatedAt,
	}
}

func toMessageResponse(m *community.Message) messageResponse {
	return messageResponse{
		ID:        m.ID.String(),
		EventID:   m.EventID.String(),
		AuthorID:  m.AuthorID.String(),
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// eventID parses the {id} route parameter. A malformed ID behaves like a
// missing record rather than leaking ID format details.
func eventID(r *http.Request) (ulid.ULID, error) {
	id, err := ulid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return ulid.ULID{}, oops.With("param", "id").Wrap(community.ErrNotFound)
	}
	return id, nil
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	if user.Role != auth.RoleNGO {
		h.respondError(w, auth.ErrForbidden)
		return
	}

	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.respondError(w, oops.Wrapf(auth.ErrValidation, "title cannot be empty"))
		return
	}
	if req.StartsAt.IsZero() {
		h.respondError(w, oops.Wrapf(auth.ErrValidation, "starts_at is required"))
		return
	}

	event := &community.Event{
		ID:          ulid.Make(),
		HostID:      user.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    req.StartsAt,
		Capacity:    req.Capacity,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.events.Create(r.Context(), event); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "event created",
		"event_id", event.ID.String(), "host_id", user.ID.String())
	h.respondJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	event, err := h.events.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) handleJoinEvent(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	// Existence check keeps a join against an unknown event a 404 instead
	// of a dangling participant row.
	if _, err := h.events.Get(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	user := userFrom(r.Context())
	if err := h.events.Join(r.Context(), id, user.ID); err != nil {
		h.respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "event joined",
		"event_id", id.String(), "user_id", user.ID.String())
	h.respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if _, err := h.events.Get(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	messages, err := h.messages.ListByEvent(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}

	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	h.respondJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id, err := eventID(r)
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req postMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		h.respondError(w, oops.Wrapf(auth.ErrValidation, "body cannot be empty"))
		return
	}

	if _, err := h.events.Get(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}

	user := userFrom(r.Context())
	message := &community.Message{
		ID:        ulid.Make(),
		EventID:   id,
		AuthorID:  user.ID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.messages.Create(r.Context(), message); err != nil {
		h.respondError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, toMessageResponse(message))
}
