// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Civicore Contributors

package postgres

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/civicore/civicore/internal/community"
)

// MessageRepository implements community.MessageRepository using PostgreSQL.
type MessageRepository struct {
	pool pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create stores a new message.
func (r *MessageRepository) Create(ctx context.Context, message *community.Message) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO messages (id, event_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		message.ID.String(),
		message.EventID.String(),
		message.AuthorID.String(),
		message.Body,
		message.CreatedAt,
	)
	if err != nil {
		return oops.Code("MESSAGE_CREATE_FAILED").
			With("operation", "insert message").
			With("event_id", message.EventID.String()).
			Wrap(err)
	}
	return nil
}

// ListByEvent returns an event's messages, oldest first.
func (r *MessageRepository) ListByEvent(ctx context.Context, eventID ulid.ULID) ([]*community.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, event_id, author_id, body, created_at
		FROM messages
		WHERE event_id = $1
		ORDER BY id
	`, eventID.String())
	if err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").
			With("operation", "list messages").
			With("event_id", eventID.String()).
			Wrap(err)
	}
	defer rows.Close()

	var messages []*community.Message
	for rows.Next() {
		var (
			idStr     string
			eventStr  string
			authorStr string
			body      string
			createdAt time.Time
		)
		if err := rows.Scan(&idStr, &eventStr, &authorStr, &body, &createdAt); err != nil {
			return nil, oops.Code("MESSAGE_LIST_FAILED").
				With("operation", "scan message row").
				Wrap(err)
		}

		id, err := ulid.Parse(idStr)
		if err != nil {
			return nil, oops.Code("MESSAGE_INVALID_ID").With("id", idStr).Wrap(err)
		}
		evID, err := ulid.Parse(eventStr)
		if err != nil {
			return nil, oops.Code("MESSAGE_INVALID_EVENT_ID").With("event_id", eventStr).Wrap(err)
		}
		authorID, err := ulid.Parse(authorStr)
		if err != nil {
			return nil, oops.Code("MESSAGE_INVALID_AUTHOR_ID").With("author_id", authorStr).Wrap(err)
		}

		messages = append(messages, &community.Message{
			ID:        id,
			EventID:   evID,
			AuthorID:  authorID,
			Body:      body,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("MESSAGE_LIST_FAILED").
			With("operation", "iterate messages").
			Wrap(err)
	}
	return messages, nil
}

// Compile-time interface check.
var _ community.MessageRepository = (*MessageRepository)(nil)
