package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
	"github.com/playverse/tictactoe-engine/internal/repository"
)

// fakeGameStore - in-memory stand-in for the SQL store. It hands out
// clones (fresh state on every read) and enforces the same uniqueness
// backstop the schema does.
type fakeGameStore struct {
	mu        sync.Mutex
	games     map[string]*entity.Game
	events    map[string][]*entity.HistoryEvent
	applyErrs []error // injected failures, consumed one per Apply
}

func newFakeGameStore() *fakeGameStore {
	return &fakeGameStore{
		games:  make(map[string]*entity.Game),
		events: make(map[string][]*entity.HistoryEvent),
	}
}

func (that *fakeGameStore) Create(_ context.Context, game *entity.Game, events []*entity.HistoryEvent) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()
	that.events[game.ID] = append(that.events[game.ID], events...)
	return nil
}

func (that *fakeGameStore) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, apperror.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (that *fakeGameStore) Apply(_ context.Context, game *entity.Game, change repository.Change) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.applyErrs) > 0 {
		err := that.applyErrs[0]
		that.applyErrs = that.applyErrs[1:]
		if err != nil {
			return err
		}
	}

	stored, ok := that.games[game.ID]
	if !ok {
		return apperror.ErrGameNotFound
	}

	if change.NewMove != nil {
		for _, move := range stored.Moves {
			if move.Cell == change.NewMove.Cell || move.Number == change.NewMove.Number {
				return apperror.ErrConflict
			}
		}
	}

	that.games[game.ID] = game.Clone()
	that.events[game.ID] = append(that.events[game.ID], change.Events...)
	return nil
}

func (that *fakeGameStore) ListByGame(_ context.Context, gameID string) ([]*entity.HistoryEvent, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.events[gameID], nil
}

func newTestManager(t *testing.T, store *fakeGameStore) *GameManager {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := NewGameManager(logger, store, store, nil, true)
	manager.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return manager
}

func startedGame(t *testing.T, manager *GameManager) *entity.Game {
	t.Helper()

	ctx := context.Background()
	game, err := manager.CreateGame(ctx, "alice")
	require.NoError(t, err)
	game, err = manager.JoinGame(ctx, game.ID, "bob")
	require.NoError(t, err)
	return game
}

func TestGameManager_CreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates a waiting game with the creator seated and audited", func(t *testing.T) {
		// Given: a manager with creator auto-join enabled
		store := newFakeGameStore()
		manager := newTestManager(t, store)

		// When: alice creates a game
		game, err := manager.CreateGame(ctx, "alice")

		// Then: the game waits for an opponent and both events are recorded
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, game.Status)
		require.Len(t, game.Participants, 1)

		events, err := manager.GetHistory(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, entity.EventGameCreated, events[0].Kind)
		assert.Equal(t, entity.EventPlayerJoined, events[1].Kind)
	})

	t.Run("Without auto-join the creator stays unseated", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		manager.autoJoin = false

		game, err := manager.CreateGame(ctx, "alice")

		require.NoError(t, err)
		assert.Empty(t, game.Participants)

		events, err := manager.GetHistory(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, entity.EventGameCreated, events[0].Kind)
	})
}

func TestGameManager_JoinGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Second join starts the game with X to move", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)

		game := startedGame(t, manager)

		assert.Equal(t, entity.StatusInProgress, game.Status)
		assert.Equal(t, "alice", game.NextTurn)

		stored, err := store.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, stored.Status)
	})

	t.Run("Fails with ErrGameNotFound for an unknown game", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)

		_, err := manager.JoinGame(ctx, "missing", "bob")

		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}

func TestGameManager_MakeTurn(t *testing.T) {
	ctx := context.Background()

	t.Run("Plays the full X-wins scenario", func(t *testing.T) {
		// Given: alice (X) vs bob (O)
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		// When: the scripted moves play out
		steps := []struct {
			user string
			cell int
		}{
			{"alice", 4}, {"bob", 0}, {"alice", 1}, {"bob", 3}, {"alice", 7},
		}
		var err error
		for _, step := range steps {
			game, err = manager.MakeTurn(ctx, game.ID, step.user, step.cell)
			require.NoError(t, err)
		}

		// Then: X won and the audit trail holds every move plus the finish
		assert.Equal(t, entity.StatusXWon, game.Status)
		assert.Equal(t, "alice", game.WinnerID)
		require.NotNil(t, game.FinishedAt)

		events, err := manager.GetHistory(ctx, game.ID)
		require.NoError(t, err)

		var kinds []string
		for _, event := range events {
			kinds = append(kinds, event.Kind)
		}
		assert.Equal(t, []string{
			entity.EventGameCreated, entity.EventPlayerJoined, entity.EventPlayerJoined,
			entity.EventMovePlayed, entity.EventMovePlayed, entity.EventMovePlayed,
			entity.EventMovePlayed, entity.EventMovePlayed, entity.EventGameFinished,
		}, kinds)
	})

	t.Run("Replayed move fails validation against fresh state", func(t *testing.T) {
		// Given: alice played cell 4, bob played cell 0, alice's turn again
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		_, err := manager.MakeTurn(ctx, game.ID, "alice", 4)
		require.NoError(t, err)
		_, err = manager.MakeTurn(ctx, game.ID, "bob", 0)
		require.NoError(t, err)

		// When: alice's client retries the already-applied move
		_, err = manager.MakeTurn(ctx, game.ID, "alice", 4)

		// Then: it fails like any fresh illegal move, it does not silently succeed
		assert.ErrorIs(t, err, apperror.ErrCellOccupied)
	})

	t.Run("Concurrent submissions commit at most one move", func(t *testing.T) {
		// Given: a started game where it is alice's turn
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		// When: many goroutines race alice's move on different cells
		const submissions = 16
		errCh := make(chan error, submissions)

		var wg sync.WaitGroup
		for i := 0; i < submissions; i++ {
			cell := i % 4
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := manager.MakeTurn(ctx, game.ID, "alice", cell)
				errCh <- err
			}()
		}
		wg.Wait()
		close(errCh)

		// Then: exactly one submission won the turn
		var succeeded int
		for err := range errCh {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t,
				errors.Is(err, apperror.ErrNotYourTurn) ||
					errors.Is(err, apperror.ErrCellOccupied) ||
					errors.Is(err, apperror.ErrConflict),
				"unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)

		stored, err := store.GetByID(ctx, game.ID)
		require.NoError(t, err)
		require.Len(t, stored.Moves, 1)
		assert.Equal(t, "bob", stored.NextTurn)
	})

	t.Run("Retries once after a commit-time conflict", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		store.applyErrs = []error{apperror.ErrConflict}

		updated, err := manager.MakeTurn(ctx, game.ID, "alice", 4)

		require.NoError(t, err)
		assert.Equal(t, "bob", updated.NextTurn)
	})

	t.Run("Surfaces the conflict when the retry also loses", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		store.applyErrs = []error{apperror.ErrConflict, apperror.ErrConflict}

		_, err := manager.MakeTurn(ctx, game.ID, "alice", 4)

		assert.ErrorIs(t, err, apperror.ErrConflict)
	})

	t.Run("Carries the game id and cell on failures", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		_, err := manager.MakeTurn(ctx, game.ID, "mallory", 3)

		require.ErrorIs(t, err, apperror.ErrNotAParticipant)

		var gameErr *apperror.GameError
		require.ErrorAs(t, err, &gameErr)
		assert.Equal(t, game.ID, gameErr.GameID)
		assert.Equal(t, 3, gameErr.Cell)
	})
}

func TestGameManager_Resign(t *testing.T) {
	ctx := context.Background()

	t.Run("Resignation ends the game in the opponent's favor", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		updated, err := manager.Resign(ctx, game.ID, "bob")

		require.NoError(t, err)
		assert.Equal(t, entity.StatusXWon, updated.Status)
		assert.Equal(t, "alice", updated.WinnerID)

		// and no further moves are accepted
		_, err = manager.MakeTurn(ctx, game.ID, "alice", 0)
		assert.ErrorIs(t, err, apperror.ErrGameAlreadyFinished)

		events, err := manager.GetHistory(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.EventGameResigned, events[len(events)-1].Kind)
	})
}

func TestGameManager_CancelGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancels only while waiting", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)

		game, err := manager.CreateGame(ctx, "alice")
		require.NoError(t, err)

		cancelled, err := manager.CancelGame(ctx, game.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, cancelled.Status)
	})

	t.Run("Fails once the game started", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		_, err := manager.CancelGame(ctx, game.ID, "alice")

		assert.ErrorIs(t, err, apperror.ErrGameAlreadyStarted)
	})
}

func TestGameManager_GetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("Returns an independent snapshot", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)
		game := startedGame(t, manager)

		snapshot, err := manager.GetGame(ctx, game.ID)
		require.NoError(t, err)

		// mutating the snapshot must not leak into the store
		snapshot.Status = entity.StatusCancelled
		stored, err := store.GetByID(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, stored.Status)
	})

	t.Run("Fails with ErrGameNotFound for an unknown id", func(t *testing.T) {
		store := newFakeGameStore()
		manager := newTestManager(t, store)

		_, err := manager.GetGame(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrGameNotFound)
	})
}
