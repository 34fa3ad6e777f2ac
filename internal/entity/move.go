package entity

import "time"

// Move - one placed mark. Number is 1-based and gap-free per game;
// no two moves of a game share a cell or a number.
type Move struct {
	GameID   string    `json:"game_id,omitempty"`
	UserID   string    `json:"user_id"`
	Cell     int       `json:"cell"`
	Mark     string    `json:"mark"`
	Number   int       `json:"number"`
	PlayedAt time.Time `json:"played_at"`
}
