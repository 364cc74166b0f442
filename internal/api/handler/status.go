package handler

import (
	"net/http"

	"github.com/mcoot/pong-realtime/internal/api/response"
)

// Presence counts connected players
type Presence interface {
	OnlineCount() int
	LobbyCount() int
}

// Queue reports how many players are waiting for a match
type Queue interface {
	QueueLength() int
}

// RoomCounter reports how many rooms are open
type RoomCounter interface {
	RoomCount() int
}

// StatusHandler reports live server load
type StatusHandler struct {
	presence Presence
	queue    Queue
	rooms    RoomCounter
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(presence Presence, queue Queue, rooms RoomCounter) *StatusHandler {
	return &StatusHandler{
		presence: presence,
		queue:    queue,
		rooms:    rooms,
	}
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}

// Status handles GET /api/v1/status
func (h *StatusHandler) Status(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Status{
		Online: h.presence.OnlineCount(),
		Lobby:  h.presence.LobbyCount(),
		Queue:  h.queue.QueueLength(),
		Rooms:  h.rooms.RoomCount(),
	})
}
