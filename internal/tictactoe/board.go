package tictactoe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
)

// Outcome - the result of evaluating a board position.
type Outcome int

const (
	OutcomeInProgress Outcome = iota
	OutcomeXWins
	OutcomeOWins
	OutcomeDraw
)

const (
	// EmptySnapshot - the 9-char row-major encoding of an empty board.
	EmptySnapshot = "---------"

	emptySnapshotCell = "-"
	boardSize         = 9
)

var (
	ErrMalformedSnapshot = errors.New("malformed board snapshot")

	WinCombos = [][3]int{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{0, 3, 6},
		{1, 4, 7},
		{2, 5, 8},
		{0, 4, 8},
		{2, 4, 6},
	}
)

// Board - a pure value; Apply returns a new board and never mutates the
// receiver.
type Board [boardSize]string

func NewBoard() Board {
	return Board{}
}

// ParseBoard - decodes a 9-char row-major snapshot, "-" for empty.
func ParseBoard(snapshot string) (Board, error) {
	if len(snapshot) != boardSize {
		return Board{}, fmt.Errorf("%w: %q", ErrMalformedSnapshot, snapshot)
	}

	var board Board
	for i, cell := range strings.Split(snapshot, "") {
		switch cell {
		case emptySnapshotCell:
			board[i] = entity.EmptyCell
		case entity.PlayerX, entity.PlayerO:
			board[i] = cell
		default:
			return Board{}, fmt.Errorf("%w: %q", ErrMalformedSnapshot, snapshot)
		}
	}

	return board, nil
}

// Apply - places mark on cell and returns the resulting board.
func (that Board) Apply(cell int, mark string) (Board, error) {
	if cell < 0 || cell >= boardSize {
		return that, apperror.ErrIndexOutOfRange
	}

	if that[cell] != entity.EmptyCell {
		return that, apperror.ErrCellOccupied
	}

	that[cell] = mark

	return that, nil
}

// Evaluate - checks the 8 win lines first, then draw.
func (that Board) Evaluate() Outcome {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			if a == entity.PlayerX {
				return OutcomeXWins
			}
			return OutcomeOWins
		}
	}

	for _, cell := range that {
		if cell == entity.EmptyCell {
			return OutcomeInProgress
		}
	}

	return OutcomeDraw
}

// String - encodes the board as a 9-char row-major snapshot.
func (that Board) String() string {
	var builder strings.Builder
	builder.Grow(boardSize)

	for _, cell := range that {
		if cell == entity.EmptyCell {
			builder.WriteString(emptySnapshotCell)
			continue
		}
		builder.WriteString(cell)
	}

	return builder.String()
}
