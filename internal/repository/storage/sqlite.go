package storage

import (
	"context"
	"database/sql"
	"fmt"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStorage struct {
	Connection *sql.DB
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = conn.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &SQLiteStorage{Connection: conn}, nil
}

// Init - creates the schema. The uniqueness and check constraints are a
// backstop: the state machine enforces the same invariants before any
// write reaches here.
func (that *SQLiteStorage) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id          TEXT PRIMARY KEY,
			creator_id  TEXT NOT NULL,
			status      TEXT NOT NULL CHECK (status IN ('waiting', 'in_progress', 'draw', 'x_won', 'o_won', 'cancelled')),
			board_state TEXT NOT NULL CHECK (length(board_state) = 9),
			next_turn   TEXT,
			winner_id   TEXT,
			created_at  TIMESTAMP NOT NULL,
			started_at  TIMESTAMP,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS participants (
			game_id   TEXT NOT NULL REFERENCES games (id),
			user_id   TEXT NOT NULL,
			mark      TEXT NOT NULL CHECK (mark IN ('X', 'O')),
			joined_at TIMESTAMP NOT NULL,
			UNIQUE (game_id, user_id),
			UNIQUE (game_id, mark)
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			game_id     TEXT NOT NULL REFERENCES games (id),
			user_id     TEXT NOT NULL,
			cell        INTEGER NOT NULL CHECK (cell BETWEEN 0 AND 8),
			mark        TEXT NOT NULL CHECK (mark IN ('X', 'O')),
			move_number INTEGER NOT NULL CHECK (move_number >= 1),
			played_at   TIMESTAMP NOT NULL,
			UNIQUE (game_id, cell),
			UNIQUE (game_id, move_number)
		)`,
		`CREATE TABLE IF NOT EXISTS history_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			game_id    TEXT NOT NULL,
			kind       TEXT NOT NULL,
			actor_id   TEXT,
			payload    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := that.Connection.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

func (that *SQLiteStorage) Close() error {
	if err := that.Connection.Close(); err != nil {
		return fmt.Errorf("can't close database: %w", err)
	}

	return nil
}
