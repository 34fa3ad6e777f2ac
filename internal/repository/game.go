package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
)

// Change - the delta of one state transition. The game row update, the
// optional new rows and the history events commit together or not at all.
type Change struct {
	NewParticipant *entity.Participant
	NewMove        *entity.Move
	Events         []*entity.HistoryEvent
}

type GameRepository interface {
	Create(ctx context.Context, game *entity.Game, events []*entity.HistoryEvent) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Apply(ctx context.Context, game *entity.Game, change Change) error
}

type dbGame struct {
	conn *sql.DB
}

func NewGameRepository(conn *sql.DB) GameRepository {
	return &dbGame{
		conn: conn,
	}
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game, events []*entity.HistoryEvent) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	query := `INSERT INTO games (id, creator_id, status, board_state, next_turn, winner_id, created_at, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		game.ID, game.CreatorID, game.Status, game.BoardState,
		nullString(game.NextTurn), nullString(game.WinnerID),
		game.CreatedAt, nullTime(game.StartedAt), nullTime(game.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", mapConstraintErr(err))
	}

	for _, participant := range game.Participants {
		if err = insertParticipant(ctx, tx, participant); err != nil {
			return err
		}
	}

	if err = insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapConstraintErr(err))
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	query := `SELECT id, creator_id, status, board_state, next_turn, winner_id, created_at, started_at, finished_at
		FROM games WHERE id = ?`

	var (
		game               entity.Game
		nextTurn, winnerID sql.NullString
		startedAt, finAt   sql.NullTime
	)

	err := that.conn.QueryRowContext(ctx, query, id).Scan(
		&game.ID, &game.CreatorID, &game.Status, &game.BoardState,
		&nextTurn, &winnerID, &game.CreatedAt, &startedAt, &finAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	game.NextTurn = nextTurn.String
	game.WinnerID = winnerID.String
	if startedAt.Valid {
		game.StartedAt = &startedAt.Time
	}
	if finAt.Valid {
		game.FinishedAt = &finAt.Time
	}

	if game.Participants, err = that.participantsOf(ctx, id); err != nil {
		return nil, err
	}

	if game.Moves, err = that.movesOf(ctx, id); err != nil {
		return nil, err
	}

	return &game, nil
}

// Apply - persists one transition atomically. Constraint violations
// surface as ErrConflict so the coordinator can retry against fresh state.
func (that *dbGame) Apply(ctx context.Context, game *entity.Game, change Change) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	query := `UPDATE games SET status = ?, board_state = ?, next_turn = ?, winner_id = ?, started_at = ?, finished_at = ?
		WHERE id = ?`

	result, err := tx.ExecContext(ctx, query,
		game.Status, game.BoardState,
		nullString(game.NextTurn), nullString(game.WinnerID),
		nullTime(game.StartedAt), nullTime(game.FinishedAt),
		game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", mapConstraintErr(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return apperror.ErrGameNotFound
	}

	if change.NewParticipant != nil {
		if err = insertParticipant(ctx, tx, change.NewParticipant); err != nil {
			return err
		}
	}

	if change.NewMove != nil {
		if err = insertMove(ctx, tx, change.NewMove); err != nil {
			return err
		}
	}

	if err = insertEvents(ctx, tx, change.Events); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", mapConstraintErr(err))
	}

	return nil
}

func (that *dbGame) participantsOf(ctx context.Context, gameID string) ([]*entity.Participant, error) {
	query := `SELECT game_id, user_id, mark, joined_at FROM participants WHERE game_id = ? ORDER BY joined_at, mark`

	rows, err := that.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*entity.Participant
	for rows.Next() {
		var participant entity.Participant
		if err = rows.Scan(&participant.GameID, &participant.UserID, &participant.Mark, &participant.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &participant)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read participants: %w", err)
	}

	return participants, nil
}

func (that *dbGame) movesOf(ctx context.Context, gameID string) ([]*entity.Move, error) {
	query := `SELECT game_id, user_id, cell, mark, move_number, played_at FROM moves WHERE game_id = ? ORDER BY move_number`

	rows, err := that.conn.QueryContext(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}
	defer rows.Close()

	var moves []*entity.Move
	for rows.Next() {
		var move entity.Move
		if err = rows.Scan(&move.GameID, &move.UserID, &move.Cell, &move.Mark, &move.Number, &move.PlayedAt); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}
		moves = append(moves, &move)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read moves: %w", err)
	}

	return moves, nil
}

func insertParticipant(ctx context.Context, tx *sql.Tx, participant *entity.Participant) error {
	query := `INSERT INTO participants (game_id, user_id, mark, joined_at) VALUES (?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query, participant.GameID, participant.UserID, participant.Mark, participant.JoinedAt)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", mapConstraintErr(err))
	}

	return nil
}

func insertMove(ctx context.Context, tx *sql.Tx, move *entity.Move) error {
	query := `INSERT INTO moves (game_id, user_id, cell, mark, move_number, played_at) VALUES (?, ?, ?, ?, ?, ?)`

	_, err := tx.ExecContext(ctx, query, move.GameID, move.UserID, move.Cell, move.Mark, move.Number, move.PlayedAt)
	if err != nil {
		return fmt.Errorf("failed to insert move: %w", mapConstraintErr(err))
	}

	return nil
}

// mapConstraintErr - a fired uniqueness or check constraint means the
// submission lost a race, not that the storage is broken.
func mapConstraintErr(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return apperror.ErrConflict
	}
	return err
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func nullTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
