package entity

import "time"

// Participant - the binding of a user to a mark within one game.
type Participant struct {
	GameID   string    `json:"game_id,omitempty"`
	UserID   string    `json:"user_id"`
	Mark     string    `json:"mark"`
	JoinedAt time.Time `json:"joined_at"`
}
