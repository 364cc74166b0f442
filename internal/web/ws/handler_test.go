package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/dependencies/mocks"
	"github.com/mcoot/pong-realtime/internal/dependencies/random"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/auth"
	"github.com/mcoot/pong-realtime/internal/services/game"
	"github.com/mcoot/pong-realtime/internal/services/matchmaking"
	"github.com/mcoot/pong-realtime/internal/services/registry"
	"github.com/mcoot/pong-realtime/internal/testutil"
)

type nopReporter struct{}

func (nopReporter) Report(model.RoomID, model.Participant, model.Participant) {}

type HandlerSuite struct {
	suite.Suite
	auth     *auth.Service
	registry *registry.Registry
	handler  *Handler
	server   *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := testutil.NopLogger()
	clk := clock.New()

	var err error
	s.auth, err = auth.New(clk, auth.Config{Secret: "test-secret"})
	s.Require().NoError(err)

	s.registry = registry.New(nil, nil, logger, registry.DefaultConfig())
	games := game.NewController(mocks.NewManualScheduler(), clk, random.New(), nopReporter{}, logger, game.DefaultConfig())
	coordinator := matchmaking.NewCoordinator(s.registry, games, logger)

	s.handler = NewHandler(s.auth, NewDispatcher(s.registry, coordinator, games, logger), logger)
	s.server = httptest.NewServer(s.handler)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) url(token string) string {
	u := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	if token != "" {
		u += "?token=" + token
	}
	return u
}

func (s *HandlerSuite) token(id model.PlayerID, name string) string {
	tok, err := s.auth.Issue(model.Identity{ID: id, DisplayName: name}, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *HandlerSuite) dial(id model.PlayerID, name string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(s.url(s.token(id, name)), nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	return conn
}

// await reads frames until one of the wanted type arrives
func (s *HandlerSuite) await(conn *websocket.Conn, want protocol.Type) map[string]any {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		s.Require().NoError(err, "waiting for %s", want)

		var msg map[string]any
		s.Require().NoError(json.Unmarshal(data, &msg))
		if msg["type"] == string(want) {
			return msg
		}
	}
}

func (s *HandlerSuite) send(conn *websocket.Conn, raw string) {
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

// awaitClose reads until the server closes and returns the close frame
func (s *HandlerSuite) awaitClose(conn *websocket.Conn) *websocket.CloseError {
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		closeErr, ok := err.(*websocket.CloseError)
		s.Require().True(ok, "expected close frame, got %v", err)
		return closeErr
	}
}

// Authentication tests

func (s *HandlerSuite) TestMissingTokenClosesNormally() {
	conn, _, err := websocket.DefaultDialer.Dial(s.url(""), nil)
	s.Require().NoError(err)
	defer conn.Close()

	closeErr := s.awaitClose(conn)
	s.Equal(websocket.CloseNormalClosure, closeErr.Code)
	s.Equal(0, s.registry.OnlineCount())
}

func (s *HandlerSuite) TestInvalidTokenIsPolicyViolation() {
	conn, _, err := websocket.DefaultDialer.Dial(s.url("not-a-jwt"), nil)
	s.Require().NoError(err)
	defer conn.Close()

	closeErr := s.awaitClose(conn)
	s.Equal(websocket.ClosePolicyViolation, closeErr.Code)
	s.Equal(protocol.CloseReasonUnauthorized, closeErr.Text)
	s.Equal(0, s.registry.OnlineCount())
}

func (s *HandlerSuite) TestWrongSecretIsPolicyViolation() {
	other, err := auth.New(clock.New(), auth.Config{Secret: "other-secret"})
	s.Require().NoError(err)
	tok, err := other.Issue(model.Identity{ID: 5}, time.Hour)
	s.Require().NoError(err)

	conn, _, err := websocket.DefaultDialer.Dial(s.url(tok), nil)
	s.Require().NoError(err)
	defer conn.Close()

	s.Equal(websocket.ClosePolicyViolation, s.awaitClose(conn).Code)
}

// Session tests

func (s *HandlerSuite) TestWelcomeCarriesIdentity() {
	conn := s.dial(5, "alice")

	msg := s.await(conn, protocol.TypeWelcome)
	user := msg["user"].(map[string]any)
	s.EqualValues(5, user["id"])
	s.Equal("alice", user["name"])
}

func (s *HandlerSuite) TestQueuePairsTwoSockets() {
	alice := s.dial(5, "alice")
	bob := s.dial(12, "bob")
	s.await(alice, protocol.TypeWelcome)
	s.await(bob, protocol.TypeWelcome)

	s.send(alice, `{"type":"matchmaking:join"}`)
	s.await(alice, protocol.TypeMatchmakingSearching)
	s.send(bob, `{"type":"matchmaking:join"}`)

	start := s.await(alice, protocol.TypeRoomStart)
	s.Equal([]any{float64(5), float64(12)}, start["players"])
	s.Equal(start["roomId"], s.await(bob, protocol.TypeRoomStart)["roomId"])

	roomID := start["roomId"].(string)
	s.True(strings.HasPrefix(roomID, "room-5-12-"))

	s.send(alice, `{"type":"game:join","roomId":"`+roomID+`"}`)
	s.send(bob, `{"type":"game:join","roomId":"`+roomID+`"}`)
	ready := s.await(alice, protocol.TypeGameReady)
	s.Equal(roomID, ready["roomId"])
	players := s.await(bob, protocol.TypeRoomPlayers)
	s.EqualValues(1, players["youIndex"])
}

func (s *HandlerSuite) TestBadFrameKeepsConnection() {
	conn := s.dial(5, "alice")
	s.await(conn, protocol.TypeWelcome)

	s.send(conn, `this is not json`)
	s.send(conn, `{"type":"unknown:thing"}`)
	s.send(conn, `{"type":"matchmaking:join"}`)

	s.await(conn, protocol.TypeMatchmakingSearching)
}

func (s *HandlerSuite) TestSecondConnectionReplacesFirst() {
	first := s.dial(5, "alice")
	s.await(first, protocol.TypeWelcome)

	second := s.dial(5, "alice")
	s.await(second, protocol.TypeWelcome)

	closeErr := s.awaitClose(first)
	s.Equal(websocket.CloseNormalClosure, closeErr.Code)
	s.Equal(protocol.CloseReasonReplaced, closeErr.Text)

	// the stale close must not unregister the new socket
	s.send(second, `{"type":"lobby:join"}`)
	s.await(second, protocol.TypeUserList)
	s.Equal(1, s.registry.OnlineCount())
}

func (s *HandlerSuite) TestCloseUnregisters() {
	conn := s.dial(5, "alice")
	s.await(conn, protocol.TypeWelcome)
	s.Equal(1, s.registry.OnlineCount())

	s.Require().NoError(conn.Close())

	s.Eventually(func() bool {
		return s.registry.OnlineCount() == 0 && s.handler.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *HandlerSuite) TestShutdownClosesSockets() {
	conn := s.dial(5, "alice")
	s.await(conn, protocol.TypeWelcome)

	s.Require().NoError(s.handler.Shutdown(s.T().Context()))

	s.Equal(websocket.CloseGoingAway, s.awaitClose(conn).Code)
	s.Equal(0, s.handler.ClientCount())
}
