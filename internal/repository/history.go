package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playverse/tictactoe-engine/internal/entity"
)

// HistoryRepository - read side of the audit trail. Events are appended
// inside the game repository's transactions and never rewritten.
type HistoryRepository interface {
	ListByGame(ctx context.Context, gameID string) ([]*entity.HistoryEvent, error)
}

type dbHistory struct {
	conn *sql.DB
}

func NewHistoryRepository(conn *sql.DB) HistoryRepository {
	return &dbHistory{
		conn: conn,
	}
}

func (that *dbHistory) ListByGame(ctx context.Context, gameID string) ([]*entity.HistoryEvent, error) {
	query := `SELECT id, game_id, kind, actor_id, payload, created_at FROM history_events WHERE game_id = ? ORDER BY id`

	rows, err := that.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history events: %w", err)
	}
	defer rows.Close()

	var events []*entity.HistoryEvent
	for rows.Next() {
		var (
			event   entity.HistoryEvent
			actorID sql.NullString
			payload string
		)
		if err = rows.Scan(&event.ID, &event.GameID, &event.Kind, &actorID, &payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history event: %w", err)
		}
		event.ActorID = actorID.String
		event.Payload = []byte(payload)
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history events: %w", err)
	}

	return events, nil
}

// insertEvents - appends events within the caller's transaction so the
// audit trail commits with the transition it records.
func insertEvents(ctx context.Context, tx *sql.Tx, events []*entity.HistoryEvent) error {
	query := `INSERT INTO history_events (game_id, kind, actor_id, payload, created_at) VALUES (?, ?, ?, ?, ?)`

	for _, event := range events {
		_, err := tx.ExecContext(ctx, query,
			event.GameID, event.Kind, nullString(event.ActorID), string(event.Payload), event.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert history event: %w", mapConstraintErr(err))
		}
	}

	return nil
}
