package entity

import "time"

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusDraw       = "draw"
	StatusXWon       = "x_won"
	StatusOWon       = "o_won"
	StatusCancelled  = "cancelled"

	PlayerX = "X"
	PlayerO = "O"

	EmptyCell = ""
)

// Game - the aggregate the engine owns: seats, moves and the derived
// board snapshot, turn and status. Mutated only by the state machine
// under the session coordinator's per-game lock.
type Game struct {
	ID           string         `json:"id"`
	CreatorID    string         `json:"creator_id"`
	Status       string         `json:"status"`
	BoardState   string         `json:"board_state"`
	NextTurn     string         `json:"next_turn,omitempty"`
	WinnerID     string         `json:"winner_id,omitempty"`
	Participants []*Participant `json:"participants,omitempty"`
	Moves        []*Move        `json:"moves,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	StartedAt    *time.Time     `json:"started_at,omitempty"`
	FinishedAt   *time.Time     `json:"finished_at,omitempty"`
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

// IsFinished - reports whether the game is in a terminal state.
func (that *Game) IsFinished() bool {
	switch that.Status {
	case StatusDraw, StatusXWon, StatusOWon, StatusCancelled:
		return true
	default:
		return false
	}
}

func (that *Game) ParticipantOf(userID string) (*Participant, bool) {
	for _, participant := range that.Participants {
		if participant.UserID == userID {
			return participant, true
		}
	}
	return nil, false
}

func (that *Game) ParticipantByMark(mark string) (*Participant, bool) {
	for _, participant := range that.Participants {
		if participant.Mark == mark {
			return participant, true
		}
	}
	return nil, false
}

// Opponent - returns the other seated participant, if there is one.
func (that *Game) Opponent(userID string) (*Participant, bool) {
	for _, participant := range that.Participants {
		if participant.UserID != userID {
			return participant, true
		}
	}
	return nil, false
}

// Clone - deep-copies the aggregate so callers can hold a snapshot
// without racing the coordinator.
func (that *Game) Clone() *Game {
	clone := *that

	if that.StartedAt != nil {
		startedAt := *that.StartedAt
		clone.StartedAt = &startedAt
	}
	if that.FinishedAt != nil {
		finishedAt := *that.FinishedAt
		clone.FinishedAt = &finishedAt
	}

	clone.Participants = make([]*Participant, 0, len(that.Participants))
	for _, participant := range that.Participants {
		participantCopy := *participant
		clone.Participants = append(clone.Participants, &participantCopy)
	}

	clone.Moves = make([]*Move, 0, len(that.Moves))
	for _, move := range that.Moves {
		moveCopy := *move
		clone.Moves = append(clone.Moves, &moveCopy)
	}

	return &clone
}
