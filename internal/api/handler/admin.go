package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pong-realtime/internal/api/response"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/services/game"
)

// Rooms is the room manager as operators see it
type Rooms interface {
	Rooms() []game.RoomInfo
	Sweep() int
}

// AdminHandler handles operator endpoints
type AdminHandler struct {
	rooms  Rooms
	logger *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(rooms Rooms, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		rooms:  rooms,
		logger: logger.With(slog.String("component", "admin")),
	}
}

// ListRooms handles GET /api/v1/admin/rooms
func (h *AdminHandler) ListRooms(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.RoomListFromModel(h.rooms.Rooms()))
}

// GetRoom handles GET /api/v1/admin/rooms/{room_id}
func (h *AdminHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["room_id"])
	for _, info := range h.rooms.Rooms() {
		if info.ID == id {
			response.JSON(w, http.StatusOK, response.RoomFromModel(info))
			return
		}
	}
	WriteError(w, model.ErrRoomNotFound)
}

// Sweep handles POST /api/v1/admin/rooms/sweep
func (h *AdminHandler) Sweep(w http.ResponseWriter, _ *http.Request) {
	removed := h.rooms.Sweep()
	h.logger.Info("admin sweep", slog.Int("removed", removed))
	response.JSON(w, http.StatusOK, response.SweepResult{Removed: removed})
}
