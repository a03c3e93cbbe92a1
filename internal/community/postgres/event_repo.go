// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

// Package postgres implements community repositories backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/civicore/civicore/internal/community"
)

// pool is the subset of pgxpool.Pool the repositories use. Declared as an
// interface so tests can substitute pgxmock.
type pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository implements community.EventRepository using PostgreSQL.
type EventRepository struct {
	pool pool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create stores a new event.
func (r *EventRepository) Create(ctx context.Context, event *community.Event) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, host_id, title, description, location, starts_at, capacity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		event.ID.String(),
		event.HostID.String(),
		event.Title,
		event.Description,
		event.Location,
		event.StartsAt,
		event.Capacity,
		event.CreatedAt,
	)
	if err != nil {
		return oops.Code("EVENT_CREATE_FAILED").
			With("operation", "insert event").
			With("title", event.Title).
			Wrap(err)
	}
	return nil
}

// Get retrieves an event by ID.
func (r *EventRepository) Get(ctx context.Context, id ulid.ULID) (*community.Event, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, host_id, title, description, location, starts_at, capacity, created_at
		FROM events
		WHERE id = $1
	`, id.String())

	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("EVENT_NOT_FOUND").
			With("id", id.String()).
			Wrap(community.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("EVENT_GET_FAILED").
			With("operation", "get event").
			With("id", id.String()).
			Wrap(err)
	}
	return event, nil
}

// List returns events ordered by start time, soonest first.
func (r *EventRepository) List(ctx context.Context) ([]*community.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, host_id, title, description, location, starts_at, capacity, created_at
		FROM events
		ORDER BY starts_at
	`)
	if err != nil {
		return nil, oops.Code("EVENT_LIST_FAILED").
			With("operation", "list events").
			Wrap(err)
	}
	defer rows.Close()

	var events []*community.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, oops.Code("EVENT_LIST_FAILED").
				With("operation", "scan event row").
				Wrap(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENT_LIST_FAILED").
			With("operation", "iterate events").
			Wrap(err)
	}
	return events, nil
}

// Join records a user as participant. The primary key on
// (event_id, user_id) makes a repeat join a no-op.
func (r *EventRepository) Join(ctx context.Context, eventID, userID ulid.ULID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_participants (event_id, user_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (event_id, user_id) DO NOTHING
	`, eventID.String(), userID.String(), time.Now().UTC())
	if err != nil {
		return oops.Code("EVENT_JOIN_FAILED").
			With("operation", "insert participant").
			With("event_id", eventID.String()).
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// Participants returns the user IDs joined to an event.
func (r *EventRepository) Participants(ctx context.Context, eventID ulid.ULID) ([]ulid.ULID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id FROM event_participants
		WHERE event_id = $1
		ORDER BY joined_at
	`, eventID.String())
	if err != nil {
		return nil, oops.Code("EVENT_PARTICIPANTS_FAILED").
			With("operation", "list participants").
			With("event_id", eventID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var ids []ulid.ULID
	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, oops.Code("EVENT_PARTICIPANTS_FAILED").
				With("operation", "scan participant row").
				Wrap(err)
		}
		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("EVENT_PARTICIPANTS_FAILED").
				With("operation", "parse participant id").
				With("user_id", idStr).
				Wrap(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("EVENT_PARTICIPANTS_FAILED").
			With("operation", "iterate participants").
			Wrap(err)
	}
	return ids, nil
}

func scanEvent(row pgx.Row) (*community.Event, error) {
	var (
		idStr     string
		hostStr   string
		title     string
		desc      string
		location  string
		startsAt  time.Time
		capacity  int
		createdAt time.Time
	)

	err := row.Scan(&idStr, &hostStr, &title, &desc, &location, &startsAt, &capacity, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("EVENT_SCAN_FAILED").Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("EVENT_INVALID_ID").With("id", idStr).Wrap(err)
	}
	hostID, err := ulid.Parse(hostStr)
	if err != nil {
		return nil, oops.Code("EVENT_INVALID_HOST_ID").With("host_id", hostStr).Wrap(err)
	}

	return &community.Event{
		ID:          id,
		HostID:      hostID,
		Title:       title,
		Description: desc,
		Location:    location,
		StartsAt:    startsAt,
		Capacity:    capacity,
		CreatedAt:   createdAt,
	}, nil
}

// Compile-time interface check.
var _ community.EventRepository = (*EventRepository)(nil)
