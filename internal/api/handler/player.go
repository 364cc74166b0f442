package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pong-realtime/internal/api/middleware"
	"github.com/mcoot/pong-realtime/internal/api/request"
	"github.com/mcoot/pong-realtime/internal/api/response"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// MatchHistory reads the local match mirror
type MatchHistory interface {
	ListMatches(ctx context.Context, playerID model.PlayerID, limit int) ([]model.MatchRecord, error)
}

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	history MatchHistory
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(history MatchHistory) *PlayerHandler {
	return &PlayerHandler{
		history: history,
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())

	response.JSON(w, http.StatusOK, response.Player{
		ID:   int64(identity.ID),
		Name: identity.Name(),
	})
}

// MyMatches handles GET /api/v1/players/me/matches
func (h *PlayerHandler) MyMatches(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	h.writeMatches(w, r, identity.ID)
}

// Matches handles GET /api/v1/players/{player_id}/matches
func (h *PlayerHandler) Matches(w http.ResponseWriter, r *http.Request) {
	playerID, err := model.ParsePlayerID(mux.Vars(r)["player_id"])
	if err != nil {
		WriteError(w, err)
		return
	}
	h.writeMatches(w, r, playerID)
}

func (h *PlayerHandler) writeMatches(w http.ResponseWriter, r *http.Request, playerID model.PlayerID) {
	limit, err := request.Limit(r, storage.DefaultHistoryLimit)
	if err != nil {
		WriteError(w, NewInvalidRequestError(err.Error()))
		return
	}

	records, err := h.history.ListMatches(r.Context(), playerID, limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.MatchListFromModel(playerID, records))
}
