package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds form a closed set; every kind has its own payload type so
// the audit trail cannot drift from the transitions it records.
const (
	EventGameCreated   = "game_created"
	EventPlayerJoined  = "player_joined"
	EventMovePlayed    = "move_played"
	EventGameFinished  = "game_finished"
	EventGameResigned  = "game_resigned"
	EventGameCancelled = "game_cancelled"
)

// HistoryEvent - one append-only audit record. Immutable once written.
type HistoryEvent struct {
	ID        int64           `json:"id,omitempty"`
	GameID    string          `json:"game_id"`
	Kind      string          `json:"kind"`
	ActorID   string          `json:"actor_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type GameCreatedPayload struct {
	CreatorID  string `json:"creator_id"`
	AutoJoined bool   `json:"auto_joined"`
}

type PlayerJoinedPayload struct {
	UserID string `json:"user_id"`
	Mark   string `json:"mark"`
}

type MovePlayedPayload struct {
	UserID string `json:"user_id"`
	Cell   int    `json:"cell"`
	Mark   string `json:"mark"`
	Number int    `json:"number"`
}

type GameFinishedPayload struct {
	Status   string `json:"status"`
	WinnerID string `json:"winner_id,omitempty"`
}

type GameResignedPayload struct {
	UserID   string `json:"user_id"`
	WinnerID string `json:"winner_id"`
}

type GameCancelledPayload struct {
	ActorID string `json:"actor_id"`
}

// NewHistoryEvent - builds an event with its typed payload marshalled.
func NewHistoryEvent(gameID, kind, actorID string, payload any, now time.Time) (*HistoryEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	return &HistoryEvent{
		GameID:    gameID,
		Kind:      kind,
		ActorID:   actorID,
		Payload:   raw,
		CreatedAt: now,
	}, nil
}
