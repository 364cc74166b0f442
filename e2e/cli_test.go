package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pong-realtime/internal/api"
	"github.com/mcoot/pong-realtime/internal/factory"
	"github.com/mcoot/pong-realtime/internal/profile"
	"github.com/mcoot/pong-realtime/internal/services/auth"
)

const (
	testSecret   = "e2e-secret"
	testAdminKey = "e2e-admin-key"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "pongctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/pongctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) command(extra []string, args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, extra...)
	fullArgs = append(fullArgs, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	// Keep the caller's environment from leaking tokens or keys into the run
	cmd.Env = []string{"HOME=" + filepath.Dir(r.tokenFile)}
	return cmd
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command([]string{"--token-file", r.tokenFile}, args...).CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	output, err := r.command([]string{"--token", token}, args...).CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runAdmin(key string, args ...string) (string, error) {
	output, err := r.command([]string{"--admin-key", key}, args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// The profile service knows nobody: friend lookups and match writes fail softly
	profileService := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(profileService.Close)

	adminKeyHash, err := auth.HashAdminKey(testAdminKey)
	require.NoError(t, err)

	app, err := factory.New(factory.Config{
		AuthConfig:    auth.Config{Secret: testSecret},
		AdminKeyHash:  adminKeyHash,
		Logger:        logger,
		ProfileConfig: profile.Config{BaseURL: profileService.URL, Timeout: time.Second},
	})
	require.NoError(t, err)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := api.NewServer(api.NewRouter(app.RouterConfig()), api.DefaultServerConfig(), logger)
	server.OnShutdown(app.WebSocket.Shutdown)

	// Start server
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.Wait()
			_ = app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	Online int `json:"online"`
	Lobby  int `json:"lobby"`
	Queue  int `json:"queue"`
	Rooms  int `json:"rooms"`
}

type tokenResponse struct {
	PlayerID int64  `json:"player_id"`
	Token    string `json:"token"`
}

type playerResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type matchListResponse struct {
	PlayerID int64             `json:"player_id"`
	Matches  []json.RawMessage `json:"matches"`
}

type roomListResponse struct {
	Rooms []struct {
		ID      string `json:"id"`
		State   string `json:"state"`
		Players []struct {
			ID int64 `json:"id"`
		} `json:"players"`
	} `json:"rooms"`
}

type watchEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

func issueToken(t *testing.T, cli *cliRunner, id, name string) string {
	t.Helper()

	output, err := cli.run("token", "issue", "--id", id, "--name", name, "--secret", testSecret)
	require.NoError(t, err, "output: %s", output)

	var resp tokenResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// parseEvents reads the JSON lines printed by watch --json
func parseEvents(t *testing.T, output string) []watchEvent {
	t.Helper()

	var events []watchEvent
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var evt watchEvent
		require.NoError(t, json.Unmarshal([]byte(line), &evt), "line: %s", line)
		events = append(events, evt)
	}
	return events
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)

	output, err = cli.run("status")
	require.NoError(t, err, "output: %s", output)

	var status statusResponse
	require.NoError(t, json.Unmarshal([]byte(output), &status))
	assert.Equal(t, statusResponse{}, status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	token := issueToken(t, cli, "5", "Alice")

	output, err := cli.runWithToken(token, "player", "me")
	require.NoError(t, err, "output: %s", output)

	var player playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, playerResponse{ID: 5, Name: "Alice"}, player)

	output, err = cli.runWithToken(token, "player", "matches", "--limit", "5")
	require.NoError(t, err, "output: %s", output)

	var matches matchListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &matches))
	assert.Equal(t, int64(5), matches.PlayerID)
	assert.Empty(t, matches.Matches)
}

func TestCLI_SavedToken(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("token", "issue", "--id", "12", "--name", "Bob", "--secret", testSecret, "--save")
	require.NoError(t, err, "output: %s", output)

	// The saved token is picked up from the token file
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)

	var player playerResponse
	require.NoError(t, json.Unmarshal([]byte(output), &player))
	assert.Equal(t, int64(12), player.ID)
}

func TestCLI_QueuePairsTwoPlayers(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)
	tokens := map[string]string{
		"alice": issueToken(t, cli, "5", "Alice"),
		"bob":   issueToken(t, cli, "12", "Bob"),
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		outputs = map[string]string{}
		errs    = map[string]error{}
	)
	for name, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			output, err := cli.runWithToken(token, "watch", "--queue", "--json",
				"--until", "room:start", "--timeout", "10s")
			mu.Lock()
			outputs[name], errs[name] = output, err
			mu.Unlock()
		}()
	}
	wg.Wait()

	for name := range tokens {
		require.NoError(t, errs[name], "%s output: %s", name, outputs[name])

		events := parseEvents(t, outputs[name])
		require.NotEmpty(t, events)
		assert.Equal(t, "welcome", events[0].Type)

		last := events[len(events)-1]
		assert.Equal(t, "room:start", last.Type)
		assert.Contains(t, last.Data, `"players":[`)
	}

	// The room outlives the sockets until it is swept or left
	output, err := cli.runAdmin(testAdminKey, "admin", "rooms")
	require.NoError(t, err, "output: %s", output)

	var rooms roomListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &rooms))
	require.Len(t, rooms.Rooms, 1)
	assert.True(t, strings.HasPrefix(rooms.Rooms[0].ID, "room-5-12-"))
	assert.Equal(t, "idle", rooms.Rooms[0].State)
}

func TestCLI_AdminCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.runAdmin(testAdminKey, "admin", "rooms")
	require.NoError(t, err, "output: %s", output)

	var rooms roomListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &rooms))
	assert.Empty(t, rooms.Rooms)

	output, err = cli.runAdmin(testAdminKey, "admin", "sweep")
	require.NoError(t, err, "output: %s", output)
	var swept struct {
		Removed int `json:"removed"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &swept))
	assert.Equal(t, 0, swept.Removed)

	// The hash printed by hash-key verifies against its key
	output, err = cli.run("admin", "hash-key", "another-key")
	require.NoError(t, err, "output: %s", output)

	var hashed struct {
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &hashed))
	assert.NoError(t, auth.CheckAdminKey(hashed.Hash, "another-key"))
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// No token at all
	output, err := cli.run("player", "me")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	// Token signed with another secret
	output, err = cli.run("token", "issue", "--id", "5", "--secret", "wrong-secret")
	require.NoError(t, err, "output: %s", output)
	var forged tokenResponse
	require.NoError(t, json.Unmarshal([]byte(output), &forged))

	output, err = cli.runWithToken(forged.Token, "player", "me")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.runWithToken(forged.Token, "watch", "--timeout", "5s")
	assert.Error(t, err)
	assert.Contains(t, output, "rejected")

	// Admin routes without the key
	output, err = cli.run("admin", "rooms")
	assert.Error(t, err)
	assert.Contains(t, output, "FORBIDDEN")

	// Bad player id is caught before the request
	_, err = cli.runWithToken(issueToken(t, cli, "5", "Alice"), "player", "matches", "abc")
	assert.Error(t, err)
}
