package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/playverse/tictactoe-engine/internal/apperror"
)

type createGameRequest struct {
	CreatorID string `json:"creator_id"`
}

type joinGameRequest struct {
	UserID string `json:"user_id"`
}

type makeMoveRequest struct {
	UserID string `json:"user_id"`
	Cell   int    `json:"cell"`
}

type resignRequest struct {
	UserID string `json:"user_id"`
}

type cancelRequest struct {
	ActorID string `json:"actor_id"`
}

type errorResponse struct {
	Error  string `json:"error"`
	GameID string `json:"game_id,omitempty"`
	Cell   *int   `json:"cell,omitempty"`
}

func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !that.decode(w, r, &req) {
		return
	}

	if req.CreatorID == "" {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "creator_id is required"})
		return
	}

	game, err := that.useCase.CreateGame(r.Context(), req.CreatorID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusCreated, game)
}

func (that *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	game, err := that.useCase.GetGame(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	events, err := that.useCase.GetHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, events)
}

func (that *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinGameRequest
	if !that.decode(w, r, &req) {
		return
	}

	game, err := that.useCase.JoinGame(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req makeMoveRequest
	if !that.decode(w, r, &req) {
		return
	}

	game, err := that.useCase.MakeTurn(r.Context(), r.PathValue("id"), req.UserID, req.Cell)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	var req resignRequest
	if !that.decode(w, r, &req) {
		return
	}

	game, err := that.useCase.Resign(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if !that.decode(w, r, &req) {
		return
	}

	game, err := that.useCase.CancelGame(r.Context(), r.PathValue("id"), req.ActorID)
	if err != nil {
		that.writeError(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, game)
}

func (that *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// writeError - maps the error taxonomy to HTTP statuses: not found 404,
// rule violations 422, lost races 409, storage failures 503.
func (that *Server) writeError(w http.ResponseWriter, err error) {
	response := errorResponse{Error: err.Error()}

	var gameErr *apperror.GameError
	if errors.As(err, &gameErr) {
		response.Error = gameErr.Err.Error()
		response.GameID = gameErr.GameID
		if gameErr.Cell >= 0 {
			cell := gameErr.Cell
			response.Cell = &cell
		}
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		status = http.StatusNotFound
	case apperror.IsValidation(err):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}

	that.writeJSON(w, status, response)
}

func (that *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}
