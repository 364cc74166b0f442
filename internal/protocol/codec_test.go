package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/pong-realtime/internal/model"
)

func TestDecodeVariants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Inbound
	}{
		{"lobby join", `{"type":"lobby:join"}`, LobbyJoin{}},
		{"lobby leave", `{"type":"lobby:leave"}`, LobbyLeave{}},
		{"user list request", `{"type":"user:list:request"}`, UserListRequest{}},
		{"invite with string target", `{"type":"invite:send","to":"12"}`, InviteSend{To: "12"}},
		{"invite with numeric target", `{"type":"invite:send","to":12}`, InviteSend{To: "12"}},
		{"legacy invite alias", `{"type":"invite","toUserId":7}`, InviteSend{To: "7"}},
		{"invite without target", `{"type":"invite:send"}`, InviteSend{To: ""}},
		{"invite accepted", `{"type":"invite:accepted","from":5}`, InviteAccepted{From: "5"}},
		{"invite declined", `{"type":"invite:declined","from":"5"}`, InviteDeclined{From: "5"}},
		{"matchmaking join", `{"type":"matchmaking:join"}`, MatchmakingJoin{}},
		{"matchmaking leave", `{"type":"matchmaking:leave"}`, MatchmakingLeave{}},
		{"game join", `{"type":"game:join","roomId":"room-1-2-x-y"}`, GameJoin{RoomID: "room-1-2-x-y"}},
		{
			"game move",
			`{"type":"game:move","roomId":"r","direction":"ArrowUp","action":"down"}`,
			GameMove{RoomID: "r", Direction: KeyArrowUp, Action: ActionDown},
		},
		{"game begin", `{"type":"game:begin","roomId":"r"}`, GameBegin{RoomID: "r"}},
		{"game leave", `{"type":"game:leave","roomId":"r"}`, GameLeave{RoomID: "r"}},
		{"friends status request", `{"type":"friends:status:request"}`, FriendsStatusRequest{}},
		{"extra fields ignored", `{"type":"lobby:join","junk":[1,2,3]}`, LobbyJoin{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected error
	}{
		{"not json", `hello`, ErrMalformed},
		{"truncated", `{"type":"lobby:join"`, ErrMalformed},
		{"array", `[1,2]`, ErrMalformed},
		{"numeric type", `{"type":5}`, ErrMalformed},
		{"object target", `{"type":"invite:send","to":{"id":1}}`, ErrMalformed},
		{"missing type", `{"roomId":"r"}`, ErrMissingType},
		{"empty type", `{"type":""}`, ErrMissingType},
		{"null", `null`, ErrMissingType},
		{"unknown type", `{"type":"chat:send"}`, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			assert.Nil(t, msg)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestEncodeGameUpdateOmitsBallWhenInactive(t *testing.T) {
	data, err := Encode(NewGameUpdate(Snapshot{P1Y: 37.5, P2Y: 40, S1: 1, S2: 2}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"game:update","state":{"p1Y":37.5,"p2Y":40,"s1":1,"s2":2}}`, string(data))
}

func TestEncodeGameUpdateIncludesBallWhenActive(t *testing.T) {
	x, y := 48.35, 47.5
	data, err := Encode(NewGameUpdate(Snapshot{P1Y: 0, P2Y: 75, BallX: &x, BallY: &y}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"game:update","state":{"p1Y":0,"p2Y":75,"s1":0,"s2":0,"ballX":48.35,"ballY":47.5}}`, string(data))
}

func TestEncodeTrimsFloatPrecision(t *testing.T) {
	x, y := 1.0/3.0, 2.0/3.0
	data, err := Encode(NewGameUpdate(Snapshot{BallX: &x, BallY: &y}))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"ballX":0.333333`)
	assert.NotContains(t, string(data), "0.3333333")
}

func TestEncodeTimeup(t *testing.T) {
	data, err := Encode(NewGameTimeup(model.SideDraw, 2, 2))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"game:timeup","winner":"draw","scores":{"s1":2,"s2":2}}`, string(data))
}

func TestEncodeUserInfoNullName(t *testing.T) {
	data, err := Encode(NewUserList([]UserInfo{
		NewUserInfo(model.Identity{ID: 3}),
		NewUserInfo(model.Identity{ID: 4, DisplayName: "Bea"}),
	}))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"user:list","users":[{"id":3,"name":null},{"id":4,"name":"Bea"}]}`, string(data))
}

func TestEncodeEmptyUserListIsArray(t *testing.T) {
	data, err := Encode(NewUserList(nil))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"user:list","users":[]}`, string(data))
}

func TestEncodeInviteError(t *testing.T) {
	data, err := Encode(NewError(model.ErrSelfInvite))
	require.NoError(t, err)

	assert.JSONEq(t, `{"type":"error","code":"SELF_INVITE","message":"You cannot invite yourself."}`, string(data))
}

func TestOutboundTypesMatchPayload(t *testing.T) {
	msgs := []Outbound{
		NewWelcome(model.Identity{ID: 1}),
		NewRoomStart("r", 1, 2),
		NewMatchmakingSearching(),
		NewMatchmakingCancelled(),
		NewGameReady("r"),
		NewGameTimer(3),
		NewGameEnd(model.SideP1),
		NewFriendsStatusUpdate(1, true),
		NewInviteDeclined(9),
		NewInviteError(InviteErrorOffline),
	}
	for _, msg := range msgs {
		data, err := Encode(msg)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"type":"`+string(msg.OutboundType())+`"`)
	}
}
