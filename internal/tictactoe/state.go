package tictactoe

import (
	"fmt"
	"time"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
)

// The lifecycle is monotonic: waiting -> in_progress -> terminal.
// Every transition here rejects terminal games before touching state,
// so a terminal game can never move again.

// Create - builds a new game in waiting. When autoJoin is set the
// creator takes the X seat immediately.
func Create(id, creatorID string, autoJoin bool, now time.Time) *entity.Game {
	game := &entity.Game{
		ID:         id,
		CreatorID:  creatorID,
		Status:     entity.StatusWaiting,
		BoardState: EmptySnapshot,
		CreatedAt:  now,
	}

	if autoJoin {
		game.Participants = []*entity.Participant{{
			GameID:   id,
			UserID:   creatorID,
			Mark:     entity.PlayerX,
			JoinedAt: now,
		}}
	}

	return game
}

// Join - seats a user. X goes to the first free seat's holder; the
// second join starts the game with X to move.
func Join(game *entity.Game, userID string, now time.Time) (*entity.Participant, error) {
	if _, ok := game.ParticipantOf(userID); ok {
		return nil, apperror.ErrAlreadyJoined
	}

	if game.IsFinished() {
		return nil, apperror.ErrGameAlreadyFinished
	}

	if !game.IsWaiting() || len(game.Participants) >= 2 {
		return nil, apperror.ErrGameFull
	}

	mark := entity.PlayerX
	if _, taken := game.ParticipantByMark(entity.PlayerX); taken {
		mark = entity.PlayerO
	}

	participant := &entity.Participant{
		GameID:   game.ID,
		UserID:   userID,
		Mark:     mark,
		JoinedAt: now,
	}
	game.Participants = append(game.Participants, participant)

	if len(game.Participants) == 2 {
		xSeat, ok := game.ParticipantByMark(entity.PlayerX)
		if !ok {
			return nil, fmt.Errorf("no X seat after second join: game %s", game.ID)
		}

		startedAt := now
		game.Status = entity.StatusInProgress
		game.StartedAt = &startedAt
		game.NextTurn = xSeat.UserID // X always moves first
	}

	return participant, nil
}

// ApplyMove - validates and applies one move, then derives the new
// status from the board.
func ApplyMove(game *entity.Game, userID string, cell int, now time.Time) (*entity.Move, error) {
	mark, number, err := ValidateMove(game, userID, cell)
	if err != nil {
		return nil, err
	}

	board, err := ParseBoard(game.BoardState)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board state: %w", err)
	}

	board, err = board.Apply(cell, mark)
	if err != nil {
		return nil, err
	}

	move := &entity.Move{
		GameID:   game.ID,
		UserID:   userID,
		Cell:     cell,
		Mark:     mark,
		Number:   number,
		PlayedAt: now,
	}
	game.Moves = append(game.Moves, move)
	game.BoardState = board.String()

	switch board.Evaluate() {
	case OutcomeXWins:
		finish(game, entity.StatusXWon, entity.PlayerX, now)
	case OutcomeOWins:
		finish(game, entity.StatusOWon, entity.PlayerO, now)
	case OutcomeDraw:
		finish(game, entity.StatusDraw, "", now)
	case OutcomeInProgress:
		opponent, ok := game.Opponent(userID)
		if !ok {
			return nil, fmt.Errorf("no opponent seated: game %s", game.ID)
		}
		game.NextTurn = opponent.UserID
	}

	return move, nil
}

// Resign - ends an in-progress game in the other seat's favor.
func Resign(game *entity.Game, userID string, now time.Time) error {
	if _, ok := game.ParticipantOf(userID); !ok {
		return apperror.ErrNotAParticipant
	}

	if game.IsFinished() {
		return apperror.ErrGameAlreadyFinished
	}

	if !game.IsInProgress() {
		return apperror.ErrGameNotActive
	}

	opponent, ok := game.Opponent(userID)
	if !ok {
		return fmt.Errorf("no opponent seated: game %s", game.ID)
	}

	status := entity.StatusXWon
	if opponent.Mark == entity.PlayerO {
		status = entity.StatusOWon
	}
	finish(game, status, opponent.Mark, now)

	return nil
}

// Cancel - abandons a game that never started. Only the creator or a
// seated participant may cancel.
func Cancel(game *entity.Game, actorID string, now time.Time) error {
	if _, ok := game.ParticipantOf(actorID); !ok && actorID != game.CreatorID {
		return apperror.ErrNotAParticipant
	}

	if game.IsFinished() {
		return apperror.ErrGameAlreadyFinished
	}

	if !game.IsWaiting() {
		return apperror.ErrGameAlreadyStarted
	}

	finish(game, entity.StatusCancelled, "", now)

	return nil
}

// finish - moves the game into a terminal state. winnerMark is empty
// for draw and cancelled.
func finish(game *entity.Game, status, winnerMark string, now time.Time) {
	finishedAt := now
	game.Status = status
	game.FinishedAt = &finishedAt
	game.NextTurn = ""

	if winnerMark != "" {
		if winner, ok := game.ParticipantByMark(winnerMark); ok {
			game.WinnerID = winner.UserID
		}
	}
}
