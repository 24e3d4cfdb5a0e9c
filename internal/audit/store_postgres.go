package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	id "atrium/pkg/domain"
	txcontext "atrium/pkg/platform/tx"
)

// PostgresStore persists audit events.
//
// Expected schema:
//
//	CREATE TABLE audit_events (
//	    id         UUID PRIMARY KEY,
//	    timestamp  TIMESTAMPTZ NOT NULL,
//	    actor_id   UUID NOT NULL,
//	    target_id  UUID NOT NULL,
//	    action     TEXT NOT NULL,
//	    details    JSONB NOT NULL DEFAULT '{}',
//	    request_id TEXT NOT NULL DEFAULT ''
//	);
//
// There is deliberately no UPDATE or DELETE statement in this file.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, timestamp, actor_id, target_id, action, details, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(event.ID),
		event.Timestamp,
		uuid.UUID(event.ActorID),
		uuid.UUID(event.TargetID),
		string(event.Action),
		details,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByActor(ctx context.Context, actorID id.UserID, limit int) ([]Event, error) {
	query := `
		SELECT id, timestamp, actor_id, target_id, action, details, request_id
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, timestamp, actor_id, target_id, action, details, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			event      Event
			eventID    uuid.UUID
			actorID    uuid.UUID
			targetID   uuid.UUID
			action     string
			rawDetails []byte
		)
		err := rows.Scan(&eventID, &event.Timestamp, &actorID, &targetID,
			&action, &rawDetails, &event.RequestID)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(rawDetails) > 0 {
			if err := json.Unmarshal(rawDetails, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		event.ID = id.EventID(eventID)
		event.ActorID = id.UserID(actorID)
		event.TargetID = id.UserID(targetID)
		event.Action = Action(action)
		events = append(events, event)
	}
	return events, rows.Err()
}
