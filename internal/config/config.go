package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Errors
var (
	ErrMissingSecret  = errors.New("jwt secret is not configured")
	ErrInvalidStorage = errors.New("storage type must be memory, redis or sqlite")
)

// Config holds the server configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	Storage StorageConfig `yaml:"storage"`
	Profile ProfileConfig `yaml:"profile"`
	Game    GameConfig    `yaml:"game"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig holds token and operator key settings
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTSecretFile string        `yaml:"jwt_secret_file"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	// AdminKeyHash is a bcrypt hash; empty disables the admin routes
	AdminKeyHash string `yaml:"admin_key_hash"`
}

// StorageConfig selects and configures the storage backend
type StorageConfig struct {
	Type       string        `yaml:"type"`
	RedisURL   string        `yaml:"redis_url"`
	SQLitePath string        `yaml:"sqlite_path"`
	ClaimTTL   time.Duration `yaml:"claim_ttl"`
}

// ProfileConfig points at the user profile service
type ProfileConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// GameConfig holds game timing settings
type GameConfig struct {
	Duration        time.Duration `yaml:"duration"`
	StartDelay      time.Duration `yaml:"start_delay"`
	IdleRoomTTL     time.Duration `yaml:"idle_room_ttl"`
	JanitorInterval time.Duration `yaml:"janitor_interval"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 4000
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}

	if c.Storage.Type == "" {
		c.Storage.Type = StorageMemory
	}
	if c.Storage.RedisURL == "" {
		c.Storage.RedisURL = "redis://localhost:6379"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "pong.db"
	}
	if c.Storage.ClaimTTL == 0 {
		c.Storage.ClaimTTL = 24 * time.Hour
	}

	if c.Profile.BaseURL == "" {
		c.Profile.BaseURL = "http://localhost:3000"
	}
	if c.Profile.Timeout == 0 {
		c.Profile.Timeout = 10 * time.Second
	}

	if c.Game.Duration == 0 {
		c.Game.Duration = 30 * time.Second
	}
	if c.Game.StartDelay == 0 {
		c.Game.StartDelay = time.Second
	}
	if c.Game.IdleRoomTTL == 0 {
		c.Game.IdleRoomTTL = 10 * time.Minute
	}
	if c.Game.JanitorInterval == 0 {
		c.Game.JanitorInterval = time.Minute
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ApplyEnv overrides file settings with environment variables.
// GAME_DURATION accepts a Go duration or a whole number of seconds.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := firstSet(getenv, "PORT", "WS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 {
			return fmt.Errorf("invalid PORT %q", v)
		}
		c.Server.Port = port
	}
	if v := getenv("STORAGE_TYPE"); v != "" {
		c.Storage.Type = strings.ToLower(v)
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := getenv("USER_SERVICE_URL"); v != "" {
		c.Profile.BaseURL = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("JWT_SECRET_FILE"); v != "" {
		c.Auth.JWTSecretFile = v
	}
	if v := getenv("ADMIN_KEY_HASH"); v != "" {
		c.Auth.AdminKeyHash = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("GAME_DURATION"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GAME_DURATION %q: %w", v, err)
		}
		c.Game.Duration = d
	}
	return nil
}

// Resolve reads file-backed secrets and checks the settings the server
// cannot start without
func (c *Config) Resolve() error {
	if c.Auth.JWTSecret == "" && c.Auth.JWTSecretFile != "" {
		data, err := os.ReadFile(c.Auth.JWTSecretFile)
		if err != nil {
			return fmt.Errorf("reading jwt secret file: %w", err)
		}
		c.Auth.JWTSecret = strings.TrimSpace(string(data))
	}
	if c.Auth.JWTSecret == "" {
		return ErrMissingSecret
	}

	switch c.Storage.Type {
	case StorageMemory, StorageRedis, StorageSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStorage, c.Storage.Type)
	}
	return nil
}

func firstSet(getenv func(string) string, keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, errors.New("must be positive")
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("must be positive")
	}
	return d, nil
}
