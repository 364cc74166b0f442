package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mcoot/pong-realtime/internal/api"
	"github.com/mcoot/pong-realtime/internal/config"
	"github.com/mcoot/pong-realtime/internal/factory"
	"github.com/mcoot/pong-realtime/internal/profile"
	"github.com/mcoot/pong-realtime/internal/services/auth"
	"github.com/mcoot/pong-realtime/internal/services/game"
	"github.com/mcoot/pong-realtime/internal/services/result"
	redisstorage "github.com/mcoot/pong-realtime/internal/storage/redis"
)

func main() {
	configPath := pflag.String("config", "", "Path to a YAML config file")
	envFile := pflag.String("env-file", ".env", "Dotenv file loaded before reading the environment")
	pflag.Parse()

	// A missing .env is fine; the environment may already be set
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to load env file", slog.String("path", *envFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		slog.Error("invalid environment", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Resolve(); err != nil {
		slog.Error("invalid config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factoryConfig(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// Create server
	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = cfg.Server.Host
	serverConfig.Port = cfg.Server.Port
	serverConfig.ShutdownTimeout = cfg.Server.ShutdownTimeout
	server := api.NewServer(api.NewRouter(app.RouterConfig()), serverConfig, logger)
	server.OnShutdown(app.WebSocket.Shutdown)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go app.GameController.RunJanitor(ctx, cfg.Game.JanitorInterval)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage.Type),
		slog.String("profile_service", cfg.Profile.BaseURL))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	// Let in-flight match reports and presence updates finish
	app.Wait()
	logger.Info("server stopped")
}

// factoryConfig maps the loaded configuration onto the application factory
func factoryConfig(cfg *config.Config, logger *slog.Logger) factory.Config {
	fc := factory.Config{
		AuthConfig: auth.Config{
			Secret:   cfg.Auth.JWTSecret,
			TokenTTL: cfg.Auth.TokenTTL,
		},
		AdminKeyHash: cfg.Auth.AdminKeyHash,
		Logger:       logger,
		StorageType:  cfg.Storage.Type,
		SQLitePath:   cfg.Storage.SQLitePath,
		ProfileConfig: profile.Config{
			BaseURL: cfg.Profile.BaseURL,
			Timeout: cfg.Profile.Timeout,
		},
		GameConfig:   game.DefaultConfig(),
		ResultConfig: result.DefaultConfig(),
	}

	fc.GameConfig.Duration = cfg.Game.Duration
	fc.GameConfig.StartDelay = cfg.Game.StartDelay
	fc.GameConfig.IdleRoomTTL = cfg.Game.IdleRoomTTL
	fc.ResultConfig.ClaimTTL = cfg.Storage.ClaimTTL

	if cfg.Storage.Type == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
