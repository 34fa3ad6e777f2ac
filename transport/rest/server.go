package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playverse/tictactoe-engine/internal/entity"
)

type gameUseCase interface {
	CreateGame(ctx context.Context, creatorID string) (*entity.Game, error)
	JoinGame(ctx context.Context, gameID, userID string) (*entity.Game, error)
	MakeTurn(ctx context.Context, gameID, userID string, cell int) (*entity.Game, error)
	Resign(ctx context.Context, gameID, userID string) (*entity.Game, error)
	CancelGame(ctx context.Context, gameID, actorID string) (*entity.Game, error)
	GetGame(ctx context.Context, gameID string) (*entity.Game, error)
	GetHistory(ctx context.Context, gameID string) ([]*entity.HistoryEvent, error)
}

type Server struct {
	logger  *slog.Logger
	useCase gameUseCase
}

func New(logger *slog.Logger, useCase gameUseCase) *Server {
	return &Server{
		logger:  logger,
		useCase: useCase,
	}
}

func (that *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", that.handlePing)
	mux.HandleFunc("POST /games", that.handleCreate)
	mux.HandleFunc("GET /games/{id}", that.handleGet)
	mux.HandleFunc("GET /games/{id}/history", that.handleHistory)
	mux.HandleFunc("POST /games/{id}/join", that.handleJoin)
	mux.HandleFunc("POST /games/{id}/moves", that.handleMove)
	mux.HandleFunc("POST /games/{id}/resign", that.handleResign)
	mux.HandleFunc("POST /games/{id}/cancel", that.handleCancel)
	return mux
}

// Start - serves until ctx is cancelled, then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}
