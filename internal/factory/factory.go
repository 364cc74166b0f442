package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/pong-realtime/internal/api"
	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/dependencies/random"
	"github.com/mcoot/pong-realtime/internal/dependencies/scheduler"
	"github.com/mcoot/pong-realtime/internal/profile"
	"github.com/mcoot/pong-realtime/internal/services/auth"
	"github.com/mcoot/pong-realtime/internal/services/game"
	"github.com/mcoot/pong-realtime/internal/services/matchmaking"
	"github.com/mcoot/pong-realtime/internal/services/registry"
	"github.com/mcoot/pong-realtime/internal/services/result"
	"github.com/mcoot/pong-realtime/internal/storage"
	"github.com/mcoot/pong-realtime/internal/storage/memory"
	redisstorage "github.com/mcoot/pong-realtime/internal/storage/redis"
	sqlitestorage "github.com/mcoot/pong-realtime/internal/storage/sqlite"
	"github.com/mcoot/pong-realtime/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock     clock.Clock
	Random    random.Random
	Scheduler scheduler.Scheduler
	Profile   profile.Service

	// Services
	AuthService    *auth.Service
	NameResolver   *profile.NameResolver
	Registry       *registry.Registry
	Matchmaking    *matchmaking.Coordinator
	Reporter       *result.Reporter
	GameController *game.Controller

	// Transport
	Dispatcher *ws.Dispatcher
	WebSocket  *ws.Handler

	logger       *slog.Logger
	adminKeyHash string
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds token settings. Secret is required.
	AuthConfig auth.Config
	// AdminKeyHash is the bcrypt hash guarding admin routes (optional)
	AdminKeyHash string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// ProfileConfig points at the profile service
	ProfileConfig profile.Config
	// GameConfig and ResultConfig fall back to package defaults when zero
	GameConfig   game.Config
	ResultConfig result.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()
	sched := scheduler.New()
	profileCfg := cfg.ProfileConfig
	if profileCfg.BaseURL == "" {
		profileCfg = profile.DefaultConfig()
	}
	profileService := profile.NewClient(profileCfg)

	app, err := newWithDependencies(store, clk, rnd, sched, profileService, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return app, nil
}

func newStorage(cfg Config) (storage.Storage, error) {
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		return memory.New(), nil
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		return redisStore, nil
	case StorageTypeSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		sqliteStore, err := sqlitestorage.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStore, nil
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'memory', 'redis' or 'sqlite'", storageType)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	sched scheduler.Scheduler,
	profileService profile.Service,
	cfg Config,
	logger *slog.Logger,
) (*App, error) {
	authService, err := auth.New(clk, cfg.AuthConfig)
	if err != nil {
		return nil, err
	}

	names := profile.NewNameResolver(profileService, store, logger)
	reg := registry.New(profileService, names, logger, registry.DefaultConfig())
	reporter := result.New(profileService, store, clk, logger, cfg.ResultConfig)
	gameController := game.NewController(sched, clk, rnd, reporter, logger, cfg.GameConfig)
	coordinator := matchmaking.NewCoordinator(reg, gameController, logger)
	dispatcher := ws.NewDispatcher(reg, coordinator, gameController, logger)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Scheduler:      sched,
		Profile:        profileService,
		AuthService:    authService,
		NameResolver:   names,
		Registry:       reg,
		Matchmaking:    coordinator,
		Reporter:       reporter,
		GameController: gameController,
		Dispatcher:     dispatcher,
		WebSocket:      ws.NewHandler(authService, dispatcher, logger),
		logger:         logger,
		adminKeyHash:   cfg.AdminKeyHash,
	}, nil
}

// RouterConfig returns the API router settings for this app
func (a *App) RouterConfig() api.RouterConfig {
	return api.RouterConfig{
		Logger:         a.logger,
		Verifier:       a.AuthService,
		Registry:       a.Registry,
		Matchmaking:    a.Matchmaking,
		GameController: a.GameController,
		Storage:        a.Storage,
		AdminKeyHash:   a.adminKeyHash,
		WebSocket:      a.WebSocket,
	}
}

// Wait blocks until background presence updates and match reports finish
func (a *App) Wait() {
	a.Registry.Wait()
	a.Reporter.Wait()
}

// Close releases the storage backend
func (a *App) Close() error {
	return a.Storage.Close()
}
