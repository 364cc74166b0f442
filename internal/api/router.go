package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/pong-realtime/internal/api/apierr"
	"github.com/mcoot/pong-realtime/internal/api/handler"
	"github.com/mcoot/pong-realtime/internal/api/middleware"
	sharedmw "github.com/mcoot/pong-realtime/internal/middleware"
	"github.com/mcoot/pong-realtime/internal/services/game"
	"github.com/mcoot/pong-realtime/internal/services/matchmaking"
	"github.com/mcoot/pong-realtime/internal/services/registry"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       middleware.Verifier
	Registry       *registry.Registry
	Matchmaking    *matchmaking.Coordinator
	GameController *game.Controller
	Storage        storage.Storage
	AdminKeyHash   string

	// WebSocket serves /ws. Left nil, the route is not mounted.
	WebSocket http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(sharedmw.RequestID)

	// Create handlers
	statusHandler := handler.NewStatusHandler(cfg.Registry, cfg.Matchmaking, cfg.GameController)
	playerHandler := handler.NewPlayerHandler(cfg.Storage)
	adminHandler := handler.NewAdminHandler(cfg.GameController, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.Verifier)
	adminMiddleware := middleware.Admin(cfg.AdminKeyHash)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Public routes
	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/status", statusHandler.Status).Methods(http.MethodGet)

	// Player routes (bearer token required)
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	players.HandleFunc("/me/matches", playerHandler.MyMatches).Methods(http.MethodGet)
	players.HandleFunc("/{player_id}/matches", playerHandler.Matches).Methods(http.MethodGet)

	// Operator routes (admin key required)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(adminMiddleware)
	admin.HandleFunc("/rooms", adminHandler.ListRooms).Methods(http.MethodGet)
	admin.HandleFunc("/rooms/sweep", adminHandler.Sweep).Methods(http.MethodPost)
	admin.HandleFunc("/rooms/{room_id}", adminHandler.GetRoom).Methods(http.MethodGet)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})

	// Realtime endpoint. Recovery stays off this route: the socket outlives
	// the request once upgraded.
	if cfg.WebSocket != nil {
		r.Handle("/ws", loggingMiddleware(cfg.WebSocket)).Methods(http.MethodGet)
	}

	return r
}
