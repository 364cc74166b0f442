package protocol

// Type is the discriminant carried in every message's "type" field
type Type string

// Inbound message types
const (
	TypeLobbyJoin            Type = "lobby:join"
	TypeLobbyLeave           Type = "lobby:leave"
	TypeUserListRequest      Type = "user:list:request"
	TypeInvite               Type = "invite" // legacy alias of invite:send
	TypeInviteSend           Type = "invite:send"
	TypeInviteAccepted       Type = "invite:accepted"
	TypeInviteDeclined       Type = "invite:declined"
	TypeMatchmakingJoin      Type = "matchmaking:join"
	TypeMatchmakingLeave     Type = "matchmaking:leave"
	TypeGameJoin             Type = "game:join"
	TypeGameMove             Type = "game:move"
	TypeGameBegin            Type = "game:begin"
	TypeGameLeave            Type = "game:leave"
	TypeFriendsStatusRequest Type = "friends:status:request"
)

// Outbound message types
const (
	TypeWelcome               Type = "welcome"
	TypeUserList              Type = "user:list"
	TypeInviteReceived        Type = "invite:received"
	TypeInviteError           Type = "invite:error"
	TypeRoomStart             Type = "room:start"
	TypeRoomPlayers           Type = "room:players"
	TypeMatchmakingSearching  Type = "matchmaking:searching"
	TypeMatchmakingCancelled  Type = "matchmaking:cancelled"
	TypeGameReady             Type = "game:ready"
	TypeGameStart             Type = "game:start"
	TypeGameUpdate            Type = "game:update"
	TypeGameTimer             Type = "game:timer"
	TypeGameTimeup            Type = "game:timeup"
	TypeGameEnd               Type = "game:end"
	TypeFriendsStatusResponse Type = "friends:status:response"
	TypeFriendsStatusUpdate   Type = "friends:status:update"
	TypeError                 Type = "error"
)

// Key names accepted in game:move
const (
	KeyW         = "w"
	KeyS         = "s"
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
)

// Key transitions accepted in game:move
const (
	ActionDown = "down"
	ActionUp   = "up"
)

// Websocket close codes used by the server
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
)

// Close reasons
const (
	CloseReasonReplaced     = "replaced"
	CloseReasonUnauthorized = "unauthorized"
)
