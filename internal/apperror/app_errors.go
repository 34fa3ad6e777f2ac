package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound        = errors.New("game not found")
	ErrGameFull            = errors.New("game already has two players")
	ErrAlreadyJoined       = errors.New("user already joined this game")
	ErrNotAParticipant     = errors.New("user is not a participant of this game")
	ErrGameNotActive       = errors.New("game is not in progress")
	ErrGameAlreadyStarted  = errors.New("game has already started")
	ErrGameAlreadyFinished = errors.New("game is already finished")
	ErrNotYourTurn         = errors.New("it's not your turn")
	ErrCellOccupied        = errors.New("cell is already occupied")
	ErrIndexOutOfRange     = errors.New("cell index is out of range")

	ErrConflict           = errors.New("submission conflicts with a concurrent update")
	ErrStorageUnavailable = errors.New("storage is unavailable")
)

// GameError - attaches the game id (and the offending cell, if any) to an error
// so callers can tell which submission failed.
type GameError struct {
	GameID string
	Cell   int // -1 when the action has no cell
	Err    error
}

func NewGameError(gameID string, err error) *GameError {
	return &GameError{GameID: gameID, Cell: -1, Err: err}
}

func NewMoveError(gameID string, cell int, err error) *GameError {
	return &GameError{GameID: gameID, Cell: cell, Err: err}
}

func (that *GameError) Error() string {
	if that.Cell >= 0 {
		return fmt.Sprintf("game %s, cell %d: %v", that.GameID, that.Cell, that.Err)
	}
	return fmt.Sprintf("game %s: %v", that.GameID, that.Err)
}

func (that *GameError) Unwrap() error {
	return that.Err
}

// IsValidation - reports whether err is a rule violation that must be surfaced
// to the caller as-is and never retried.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrGameFull,
		ErrAlreadyJoined,
		ErrNotAParticipant,
		ErrGameNotActive,
		ErrGameAlreadyStarted,
		ErrGameAlreadyFinished,
		ErrNotYourTurn,
		ErrCellOccupied,
		ErrIndexOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
