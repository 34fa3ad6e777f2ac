package tictactoe

import (
	"fmt"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
)

// ValidateMove - checks a proposed move against the game snapshot: seat,
// lifecycle, turn, then board rules. On success it returns the mark the
// participant plays and the number the move takes.
func ValidateMove(game *entity.Game, userID string, cell int) (string, int, error) {
	participant, ok := game.ParticipantOf(userID)
	if !ok {
		return "", 0, apperror.ErrNotAParticipant
	}

	if game.IsFinished() {
		return "", 0, apperror.ErrGameAlreadyFinished
	}

	if !game.IsInProgress() {
		return "", 0, apperror.ErrGameNotActive
	}

	if game.NextTurn != userID {
		return "", 0, apperror.ErrNotYourTurn
	}

	board, err := ParseBoard(game.BoardState)
	if err != nil {
		return "", 0, fmt.Errorf("failed to parse board state: %w", err)
	}

	if _, err = board.Apply(cell, participant.Mark); err != nil {
		return "", 0, err
	}

	return participant.Mark, len(game.Moves) + 1, nil
}
