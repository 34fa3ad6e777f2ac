package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playverse/tictactoe-engine/internal/apperror"
	"github.com/playverse/tictactoe-engine/internal/entity"
	"github.com/playverse/tictactoe-engine/internal/pkg"
	"github.com/playverse/tictactoe-engine/internal/repository"
	"github.com/playverse/tictactoe-engine/internal/tictactoe"
)

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game, events []*entity.HistoryEvent) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	Apply(ctx context.Context, game *entity.Game, change repository.Change) error
}

type historyRepo interface {
	ListByGame(ctx context.Context, gameID string) ([]*entity.HistoryEvent, error)
}

type snapshotCache interface {
	CreateOrUpdate(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	DeleteByID(ctx context.Context, id string) error
}

// GameManager - the session coordinator. It serializes submissions per
// game, delegates to the state machine, and commits each transition
// atomically with its audit events.
type GameManager struct {
	logger *slog.Logger

	games   gameRepo
	history historyRepo
	cache   snapshotCache // nil when the cache is disabled

	autoJoin bool
	locks    *gameLocks
	now      func() time.Time
}

func NewGameManager(logger *slog.Logger, games gameRepo, history historyRepo, cache snapshotCache, autoJoin bool) *GameManager {
	return &GameManager{
		logger: logger,

		games:   games,
		history: history,
		cache:   cache,

		autoJoin: autoJoin,
		locks:    newGameLocks(),
		now:      time.Now,
	}
}

func (that *GameManager) CreateGame(ctx context.Context, creatorID string) (*entity.Game, error) {
	now := that.now()
	game := tictactoe.Create(pkg.GenerateGameID(), creatorID, that.autoJoin, now)

	events := make([]*entity.HistoryEvent, 0, 2)

	created, err := entity.NewHistoryEvent(game.ID, entity.EventGameCreated, creatorID,
		entity.GameCreatedPayload{CreatorID: creatorID, AutoJoined: that.autoJoin}, now)
	if err != nil {
		return nil, err
	}
	events = append(events, created)

	if that.autoJoin {
		joined, err := entity.NewHistoryEvent(game.ID, entity.EventPlayerJoined, creatorID,
			entity.PlayerJoinedPayload{UserID: creatorID, Mark: entity.PlayerX}, now)
		if err != nil {
			return nil, err
		}
		events = append(events, joined)
	}

	if err = that.games.Create(ctx, game, events); err != nil {
		return nil, apperror.NewGameError(game.ID, fmt.Errorf("failed to create game: %w", err))
	}

	that.cacheSnapshot(ctx, game)

	return game.Clone(), nil
}

func (that *GameManager) JoinGame(ctx context.Context, gameID, userID string) (*entity.Game, error) {
	game, err := that.submit(ctx, gameID, func(game *entity.Game) (repository.Change, error) {
		now := that.now()

		participant, err := tictactoe.Join(game, userID, now)
		if err != nil {
			return repository.Change{}, err
		}

		joined, err := entity.NewHistoryEvent(gameID, entity.EventPlayerJoined, userID,
			entity.PlayerJoinedPayload{UserID: userID, Mark: participant.Mark}, now)
		if err != nil {
			return repository.Change{}, err
		}

		return repository.Change{
			NewParticipant: participant,
			Events:         []*entity.HistoryEvent{joined},
		}, nil
	})
	if err != nil {
		return nil, apperror.NewGameError(gameID, err)
	}

	return game, nil
}

func (that *GameManager) MakeTurn(ctx context.Context, gameID, userID string, cell int) (*entity.Game, error) {
	game, err := that.submit(ctx, gameID, func(game *entity.Game) (repository.Change, error) {
		now := that.now()

		move, err := tictactoe.ApplyMove(game, userID, cell, now)
		if err != nil {
			return repository.Change{}, err
		}

		played, err := entity.NewHistoryEvent(gameID, entity.EventMovePlayed, userID,
			entity.MovePlayedPayload{UserID: userID, Cell: move.Cell, Mark: move.Mark, Number: move.Number}, now)
		if err != nil {
			return repository.Change{}, err
		}
		events := []*entity.HistoryEvent{played}

		if game.IsFinished() {
			finished, err := entity.NewHistoryEvent(gameID, entity.EventGameFinished, "",
				entity.GameFinishedPayload{Status: game.Status, WinnerID: game.WinnerID}, now)
			if err != nil {
				return repository.Change{}, err
			}
			events = append(events, finished)
		}

		return repository.Change{
			NewMove: move,
			Events:  events,
		}, nil
	})
	if err != nil {
		return nil, apperror.NewMoveError(gameID, cell, err)
	}

	return game, nil
}

func (that *GameManager) Resign(ctx context.Context, gameID, userID string) (*entity.Game, error) {
	game, err := that.submit(ctx, gameID, func(game *entity.Game) (repository.Change, error) {
		now := that.now()

		if err := tictactoe.Resign(game, userID, now); err != nil {
			return repository.Change{}, err
		}

		resigned, err := entity.NewHistoryEvent(gameID, entity.EventGameResigned, userID,
			entity.GameResignedPayload{UserID: userID, WinnerID: game.WinnerID}, now)
		if err != nil {
			return repository.Change{}, err
		}

		return repository.Change{Events: []*entity.HistoryEvent{resigned}}, nil
	})
	if err != nil {
		return nil, apperror.NewGameError(gameID, err)
	}

	return game, nil
}

func (that *GameManager) CancelGame(ctx context.Context, gameID, actorID string) (*entity.Game, error) {
	game, err := that.submit(ctx, gameID, func(game *entity.Game) (repository.Change, error) {
		now := that.now()

		if err := tictactoe.Cancel(game, actorID, now); err != nil {
			return repository.Change{}, err
		}

		cancelled, err := entity.NewHistoryEvent(gameID, entity.EventGameCancelled, actorID,
			entity.GameCancelledPayload{ActorID: actorID}, now)
		if err != nil {
			return repository.Change{}, err
		}

		return repository.Change{Events: []*entity.HistoryEvent{cancelled}}, nil
	})
	if err != nil {
		return nil, apperror.NewGameError(gameID, err)
	}

	return game, nil
}

func (that *GameManager) GetGame(ctx context.Context, gameID string) (*entity.Game, error) {
	if that.cache != nil {
		if game, err := that.cache.GetByID(ctx, gameID); err == nil {
			return game, nil
		}
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, apperror.NewGameError(gameID, err)
	}

	that.cacheSnapshot(ctx, game)

	return game.Clone(), nil
}

func (that *GameManager) GetHistory(ctx context.Context, gameID string) ([]*entity.HistoryEvent, error) {
	if _, err := that.games.GetByID(ctx, gameID); err != nil {
		return nil, apperror.NewGameError(gameID, err)
	}

	events, err := that.history.ListByGame(ctx, gameID)
	if err != nil {
		return nil, apperror.NewGameError(gameID, fmt.Errorf("failed to list history: %w", err))
	}

	return events, nil
}

// submit - runs one transition under the game's lock: load fresh state,
// delegate to the state machine, persist atomically. A commit-time
// conflict is retried once against fresh state; validation errors are
// final and never retried.
func (that *GameManager) submit(ctx context.Context, gameID string, transition func(game *entity.Game) (repository.Change, error)) (*entity.Game, error) {
	unlock := that.locks.lock(gameID)
	defer unlock()

	game, err := that.applyOnce(ctx, gameID, transition)
	if errors.Is(err, apperror.ErrConflict) {
		that.logger.Info("submission conflicted, retrying against fresh state", "gameID", gameID)
		game, err = that.applyOnce(ctx, gameID, transition)
	}
	if err != nil {
		return nil, err
	}

	that.cacheSnapshot(ctx, game)

	return game.Clone(), nil
}

func (that *GameManager) applyOnce(ctx context.Context, gameID string, transition func(game *entity.Game) (repository.Change, error)) (*entity.Game, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	change, err := transition(game)
	if err != nil {
		return nil, err
	}

	if err = that.games.Apply(ctx, game, change); err != nil {
		return nil, fmt.Errorf("failed to persist transition: %w", err)
	}

	return game, nil
}

func (that *GameManager) cacheSnapshot(ctx context.Context, game *entity.Game) {
	if that.cache == nil {
		return
	}

	if err := that.cache.CreateOrUpdate(ctx, game.Clone()); err != nil {
		that.logger.Error("failed to cache game snapshot", "gameID", game.ID, "error", err)
	}
}
