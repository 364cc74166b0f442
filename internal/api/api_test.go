package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pong-realtime/internal/api"
	"github.com/mcoot/pong-realtime/internal/api/apierr"
	"github.com/mcoot/pong-realtime/internal/api/middleware"
	"github.com/mcoot/pong-realtime/internal/api/response"
	"github.com/mcoot/pong-realtime/internal/factory"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/testutil"
)

// testServer wraps the router built from a test app
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	t.Cleanup(func() {
		app.Wait()
		_ = app.Close()
	})

	return &testServer{
		handler: api.NewRouter(app.RouterConfig()),
		app:     app,
	}
}

func (ts *testServer) request(method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) get(path, token string) *httptest.ResponseRecorder {
	headers := map[string]string{}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return ts.request(http.MethodGet, path, headers)
}

func (ts *testServer) admin(method, path, key string) *httptest.ResponseRecorder {
	return ts.request(method, path, map[string]string{middleware.AdminKeyHeader: key})
}

func (ts *testServer) saveMatch(t *testing.T, roomID string, p1, p2 model.PlayerID, s1, s2 int, at time.Time) {
	t.Helper()
	rec := model.NewMatchRecord(model.RoomID(roomID), model.MatchTypeOneVsOne, at, p1, p2, s1, s2)
	require.NoError(t, ts.app.Storage.SaveMatch(t.Context(), &rec))
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[response.Health](t, rr).Status)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestStatusCounts(t *testing.T) {
	ts := newTestServer(t)

	alice := testutil.NewFakeConn(5, "Alice")
	bob := testutil.NewFakeConn(12, "Bob")
	carol := testutil.NewFakeConn(20, "Carol")
	for _, c := range []*testutil.FakeConn{alice, bob, carol} {
		ts.app.Dispatcher.Connect(c)
	}
	ts.app.Registry.JoinLobby(alice)
	ts.app.Matchmaking.JoinQueue(bob)

	rr := ts.get("/api/v1/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, response.Status{Online: 3, Lobby: 1, Queue: 1, Rooms: 0}, decode[response.Status](t, rr))

	ts.app.Matchmaking.JoinQueue(carol)

	status := decode[response.Status](t, ts.get("/api/v1/status", ""))
	assert.Equal(t, 0, status.Queue)
	assert.Equal(t, 1, status.Rooms)
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/players/me", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeUnauthorized, errorCode(t, rr))

	rr = ts.get("/api/v1/players/me/matches", "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Only bearer tokens are accepted
	rr = ts.request(http.MethodGet, "/api/v1/players/me", map[string]string{
		"Authorization": "Basic " + ts.app.Token(5, "Alice"),
	})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMe(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/players/me", ts.app.Token(5, "Alice"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, response.Player{ID: 5, Name: "Alice"}, decode[response.Player](t, rr))

	// A token without a name falls back to the generated one
	rr = ts.get("/api/v1/players/me", ts.app.Token(7, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Player 7", decode[response.Player](t, rr).Name)
}

func TestMyMatches(t *testing.T) {
	ts := newTestServer(t)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	ts.saveMatch(t, "room-5-12-a", 12, 5, 3, 1, base)
	ts.saveMatch(t, "room-5-20-b", 20, 5, 2, 4, base.Add(time.Minute))
	ts.saveMatch(t, "room-5-9-c", 9, 5, 2, 2, base.Add(2*time.Minute))
	ts.saveMatch(t, "room-12-20-d", 20, 12, 1, 0, base.Add(3*time.Minute))

	rr := ts.get("/api/v1/players/me/matches", ts.app.Token(5, "Alice"))
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.MatchList](t, rr)
	assert.Equal(t, int64(5), list.PlayerID)
	require.Len(t, list.Matches, 3)

	// Newest first, results from the caller's side
	assert.Equal(t, "room-5-9-c", list.Matches[0].RoomID)
	assert.Equal(t, response.ResultDraw, list.Matches[0].Result)
	assert.Nil(t, list.Matches[0].WinnerID)
	assert.Equal(t, response.ResultWin, list.Matches[1].Result)
	assert.Equal(t, response.ResultLoss, list.Matches[2].Result)
	require.NotNil(t, list.Matches[2].WinnerID)
	assert.Equal(t, int64(12), *list.Matches[2].WinnerID)

	rr = ts.get("/api/v1/players/me/matches?limit=1", ts.app.Token(5, "Alice"))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.MatchList](t, rr).Matches, 1)
}

func TestPlayerMatches(t *testing.T) {
	ts := newTestServer(t)
	token := ts.app.Token(5, "Alice")
	ts.saveMatch(t, "room-12-20-a", 20, 12, 1, 0, time.Now())

	rr := ts.get("/api/v1/players/12/matches", token)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[response.MatchList](t, rr)
	assert.Equal(t, int64(12), list.PlayerID)
	require.Len(t, list.Matches, 1)
	assert.Equal(t, response.ResultLoss, list.Matches[0].Result)

	rr = ts.get("/api/v1/players/99/matches", token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.MatchList](t, rr).Matches)
}

func TestInvalidRequests(t *testing.T) {
	ts := newTestServer(t)
	token := ts.app.Token(5, "Alice")

	tests := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"non numeric player", "/api/v1/players/abc/matches", apierr.CodeInvalidPlayerID},
		{"zero player", "/api/v1/players/0/matches", apierr.CodeInvalidPlayerID},
		{"negative player", "/api/v1/players/-4/matches", apierr.CodeInvalidPlayerID},
		{"non numeric limit", "/api/v1/players/me/matches?limit=ten", apierr.CodeInvalidRequest},
		{"zero limit", "/api/v1/players/me/matches?limit=0", apierr.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.get(tt.path, token)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, tt.wantCode, errorCode(t, rr))
		})
	}
}

func TestAdminRequiresKey(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.admin(http.MethodGet, "/api/v1/admin/rooms", "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeForbidden, errorCode(t, rr))

	rr = ts.admin(http.MethodGet, "/api/v1/admin/rooms", "wrong-key")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// A player token is not an admin key
	rr = ts.get("/api/v1/admin/rooms", ts.app.Token(5, "Alice"))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRooms(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.admin(http.MethodGet, "/api/v1/admin/rooms", factory.TestAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.RoomList](t, rr).Rooms)

	roomID, err := ts.app.GameController.CreateRoom(5, 12)
	require.NoError(t, err)
	require.NoError(t, ts.app.GameController.Join(testutil.NewFakeConn(5, "Alice"), roomID))

	rr = ts.admin(http.MethodGet, "/api/v1/admin/rooms", factory.TestAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	rooms := decode[response.RoomList](t, rr).Rooms
	require.Len(t, rooms, 1)
	assert.Equal(t, string(roomID), rooms[0].ID)
	assert.Equal(t, "idle", rooms[0].State)
	assert.False(t, rooms[0].Active)
	assert.Equal(t, []response.Player{{ID: 5, Name: "Alice"}}, rooms[0].Players)

	rr = ts.admin(http.MethodGet, "/api/v1/admin/rooms/"+string(roomID), factory.TestAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, string(roomID), decode[response.Room](t, rr).ID)

	rr = ts.admin(http.MethodGet, "/api/v1/admin/rooms/room-1-2-x-y", factory.TestAdminKey)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeRoomNotFound, errorCode(t, rr))
}

func TestAdminSweep(t *testing.T) {
	ts := newTestServer(t)

	_, err := ts.app.GameController.CreateRoom(5, 12)
	require.NoError(t, err)

	rr := ts.admin(http.MethodPost, "/api/v1/admin/rooms/sweep", factory.TestAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[response.SweepResult](t, rr).Removed)

	ts.app.MockClock.Advance(time.Hour)

	rr = ts.admin(http.MethodPost, "/api/v1/admin/rooms/sweep", factory.TestAdminKey)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, decode[response.SweepResult](t, rr).Removed)
	assert.Equal(t, 0, ts.app.GameController.RoomCount())
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.get("/api/v1/lobbies", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, apierr.CodeNotFound, errorCode(t, rr))
}
