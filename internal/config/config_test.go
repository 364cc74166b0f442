package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func envOf(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Equal(t, 30*time.Second, cfg.Game.Duration)
	assert.Equal(t, time.Second, cfg.Game.StartDelay)
	assert.Equal(t, 10*time.Minute, cfg.Game.IdleRoomTTL)
	assert.Equal(t, 24*time.Hour, cfg.Storage.ClaimTTL)
	assert.Equal(t, "http://localhost:3000", cfg.Profile.BaseURL)
}

func TestLoadFileKeepsValuesAndFillsGaps(t *testing.T) {
	path := writeFile(t, "pong.yaml", `
server:
  port: 9000
storage:
  type: sqlite
  sqlite_path: /tmp/pong-test.db
game:
  duration: 45s
auth:
  jwt_secret: from-file
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, StorageSQLite, cfg.Storage.Type)
	assert.Equal(t, "/tmp/pong-test.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 45*time.Second, cfg.Game.Duration)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Second, cfg.Game.StartDelay)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "bad.yaml", "server: [not, a, map"))
	assert.Error(t, err)
}

func TestApplyEnvOverridesFile(t *testing.T) {
	cfg := Default()

	err := cfg.ApplyEnv(envOf(map[string]string{
		"PORT":             "5000",
		"STORAGE_TYPE":     "Redis",
		"REDIS_URL":        "redis://cache:6379/1",
		"USER_SERVICE_URL": "http://users:3002",
		"JWT_SECRET":       "s3cret",
		"GAME_DURATION":    "60",
		"ADMIN_KEY_HASH":   "$2a$10$hash",
	}))
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, StorageRedis, cfg.Storage.Type)
	assert.Equal(t, "redis://cache:6379/1", cfg.Storage.RedisURL)
	assert.Equal(t, "http://users:3002", cfg.Profile.BaseURL)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Minute, cfg.Game.Duration)
	assert.Equal(t, "$2a$10$hash", cfg.Auth.AdminKeyHash)
}

func TestApplyEnvFallbackPort(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envOf(map[string]string{"WS_PORT": "4100"})))
	assert.Equal(t, 4100, cfg.Server.Port)
}

func TestApplyEnvDurationForms(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
		ok   bool
	}{
		{"30", 30 * time.Second, true},
		{"1m30s", 90 * time.Second, true},
		{"0", 0, false},
		{"-5s", 0, false},
		{"soon", 0, false},
	}

	for _, tc := range cases {
		cfg := Default()
		err := cfg.ApplyEnv(envOf(map[string]string{"GAME_DURATION": tc.raw}))
		if !tc.ok {
			assert.Error(t, err, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, tc.want, cfg.Game.Duration, tc.raw)
	}
}

func TestApplyEnvRejectsBadPort(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.ApplyEnv(envOf(map[string]string{"PORT": "http"})))
}

func TestResolveRequiresSecret(t *testing.T) {
	cfg := Default()
	assert.ErrorIs(t, cfg.Resolve(), ErrMissingSecret)
}

func TestResolveReadsSecretFile(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecretFile = writeFile(t, "secret", "  from-vault\n")

	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "from-vault", cfg.Auth.JWTSecret)
}

func TestResolveInlineSecretWins(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "inline"
	cfg.Auth.JWTSecretFile = filepath.Join(t.TempDir(), "missing")

	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "inline", cfg.Auth.JWTSecret)
}

func TestResolveRejectsUnknownStorage(t *testing.T) {
	cfg := Default()
	cfg.Auth.JWTSecret = "x"
	cfg.Storage.Type = "dynamo"

	assert.ErrorIs(t, cfg.Resolve(), ErrInvalidStorage)
}
