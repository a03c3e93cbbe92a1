// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

// Package community holds the event participation and messaging entities.
// These are plain reads and inserts with no invariant beyond existence;
// the interesting state machine lives in internal/auth.
package community

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Event is a volunteering event hosted by an NGO account.
type Event struct {
	ID          ulid.ULID
	HostID      ulid.ULID
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	Capacity    int
	CreatedAt   time.Time
}

// Message is an event-scoped chat message.
type Message struct {
	ID        ulid.ULID
	EventID   ulid.ULID
	AuthorID  ulid.ULID
	Body      string
	CreatedAt time.Time
}

// EventRepository manages event and participant persistence.
type EventRepository interface {
	// Create stores a new event.
	Create(ctx context.Context, event *Event) error

	// Get retrieves an event by ID.
	Get(ctx context.Context, id ulid.ULID) (*Event, error)

	// List returns events ordered by start time, soonest first.
	List(ctx context.Context) ([]*Event, error)

	// Join records a user as participant. Joining twice is a no-op.
	Join(ctx context.Context, eventID, userID ulid.ULID) error

	// Participants returns the user IDs joined to an event.
	Participants(ctx context.Context, eventID ulid.ULID) ([]ulid.ULID, error)
}

// MessageRepository manages event message persistence.
type MessageRepository interface {
	// Create stores a new message.
	Create(ctx context.Context, message *Message) error

	// ListByEvent returns an event's messages, oldest first.
	ListByEvent(ctx context.Context, eventID ulid.ULID) ([]*Message, error)
}
