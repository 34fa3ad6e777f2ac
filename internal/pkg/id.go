package pkg

import "github.com/google/uuid"

// GenerateGameID - returns an opaque unique id for a new game.
func GenerateGameID() string {
	return uuid.NewString()
}
