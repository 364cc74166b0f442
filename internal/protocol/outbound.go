package protocol

import "github.com/mcoot/pong-realtime/internal/model"

// Outbound is any message the server sends
type Outbound interface {
	OutboundType() Type
}

// UserInfo identifies a player in rosters and invites
// Name is null when no display name is known yet.
type UserInfo struct {
	ID   model.PlayerID `json:"id"`
	Name *string        `json:"name"`
}

// NewUserInfo builds a UserInfo from an identity
func NewUserInfo(identity model.Identity) UserInfo {
	info := UserInfo{ID: identity.ID}
	if identity.DisplayName != "" {
		name := identity.DisplayName
		info.Name = &name
	}
	return info
}

// PlayerSummary is a room member as shown on the game screen
type PlayerSummary struct {
	ID   model.PlayerID `json:"id"`
	Name string         `json:"name"`
}

// NewPlayerSummary builds a summary using the fallback name when needed
func NewPlayerSummary(identity model.Identity) PlayerSummary {
	return PlayerSummary{ID: identity.ID, Name: identity.Name()}
}

// Welcome greets a freshly registered connection with its identity
type Welcome struct {
	Type Type     `json:"type"`
	User UserInfo `json:"user"`
}

// NewWelcome builds the welcome for identity
func NewWelcome(identity model.Identity) Welcome {
	return Welcome{Type: TypeWelcome, User: NewUserInfo(identity)}
}

// UserList is the lobby roster as seen by one member
type UserList struct {
	Type  Type       `json:"type"`
	Users []UserInfo `json:"users"`
}

// NewUserList builds a roster message; a nil roster encodes as []
func NewUserList(users []UserInfo) UserList {
	if users == nil {
		users = []UserInfo{}
	}
	return UserList{Type: TypeUserList, Users: users}
}

// InviteReceived delivers an invite to its target
type InviteReceived struct {
	Type Type     `json:"type"`
	From UserInfo `json:"from"`
}

// NewInviteReceived builds an invite from the sender identity
func NewInviteReceived(from model.Identity) InviteReceived {
	return InviteReceived{Type: TypeInviteReceived, From: NewUserInfo(from)}
}

// InviteDeclinedNotice tells the inviter who declined
type InviteDeclinedNotice struct {
	Type Type           `json:"type"`
	From model.PlayerID `json:"from"`
}

// NewInviteDeclined builds the notice naming the decliner
func NewInviteDeclined(from model.PlayerID) InviteDeclinedNotice {
	return InviteDeclinedNotice{Type: TypeInviteDeclined, From: from}
}

// InviteError tells the inviter the invite could not be delivered
type InviteError struct {
	Type   Type   `json:"type"`
	Reason string `json:"reason"`
}

// InviteErrorOffline is the reason sent when the target vanished
const InviteErrorOffline = "offline"

// NewInviteError builds an invite:error with the given reason
func NewInviteError(reason string) InviteError {
	return InviteError{Type: TypeInviteError, Reason: reason}
}

// RoomStart announces a new room. Players is the seat order.
type RoomStart struct {
	Type    Type             `json:"type"`
	RoomID  model.RoomID     `json:"roomId"`
	Players []model.PlayerID `json:"players"`
}

// NewRoomStart builds room:start with a in seat 0 and b in seat 1
func NewRoomStart(roomID model.RoomID, a, b model.PlayerID) RoomStart {
	return RoomStart{Type: TypeRoomStart, RoomID: roomID, Players: []model.PlayerID{a, b}}
}

// RoomPlayers tells each member the seating and their own index
type RoomPlayers struct {
	Type     Type            `json:"type"`
	RoomID   model.RoomID    `json:"roomId"`
	YouIndex int             `json:"youIndex"`
	Players  []PlayerSummary `json:"players"`
}

// NewRoomPlayers builds room:players for the member at youIndex
func NewRoomPlayers(roomID model.RoomID, youIndex int, players []PlayerSummary) RoomPlayers {
	return RoomPlayers{Type: TypeRoomPlayers, RoomID: roomID, YouIndex: youIndex, Players: players}
}

// Status is a message that carries nothing but its type
type Status struct {
	Type Type `json:"type"`
}

// NewMatchmakingSearching confirms a player joined the queue
func NewMatchmakingSearching() Status { return Status{Type: TypeMatchmakingSearching} }
// NewMatchmakingCancelled confirms a player left the queue
func NewMatchmakingCancelled() Status { return Status{Type: TypeMatchmakingCancelled} }

// GameReady is sent once both seats are filled
type GameReady struct {
	Type   Type         `json:"type"`
	RoomID model.RoomID `json:"roomId"`
}

// NewGameReady builds game:ready for the room
func NewGameReady(roomID model.RoomID) GameReady {
	return GameReady{Type: TypeGameReady, RoomID: roomID}
}

// GameStart tells a player the game began and which paddle they control
type GameStart struct {
	Type        Type            `json:"type"`
	RoomID      model.RoomID    `json:"roomId"`
	Duration    int             `json:"duration"`
	PlayerIndex int             `json:"playerIndex"`
	Players     []PlayerSummary `json:"players"`
}

// NewGameStart builds game:start for the player at playerIndex
func NewGameStart(roomID model.RoomID, durationSeconds, playerIndex int, players []PlayerSummary) GameStart {
	return GameStart{
		Type:        TypeGameStart,
		RoomID:      roomID,
		Duration:    durationSeconds,
		PlayerIndex: playerIndex,
		Players:     players,
	}
}

// Snapshot is the per-tick game state. Ball fields are omitted while inactive.
type Snapshot struct {
	P1Y   float64  `json:"p1Y"`
	P2Y   float64  `json:"p2Y"`
	S1    int      `json:"s1"`
	S2    int      `json:"s2"`
	BallX *float64 `json:"ballX,omitempty"`
	BallY *float64 `json:"ballY,omitempty"`
}

// GameUpdate carries one tick's snapshot
type GameUpdate struct {
	Type  Type     `json:"type"`
	State Snapshot `json:"state"`
}

// NewGameUpdate wraps a snapshot
func NewGameUpdate(state Snapshot) GameUpdate {
	return GameUpdate{Type: TypeGameUpdate, State: state}
}

// GameTimer is the once-a-second countdown
type GameTimer struct {
	Type      Type `json:"type"`
	Remaining int  `json:"remaining"`
}

// NewGameTimer builds game:timer with the seconds left
func NewGameTimer(remaining int) GameTimer {
	return GameTimer{Type: TypeGameTimer, Remaining: remaining}
}

// Scores is the final score pair
type Scores struct {
	S1 int `json:"s1"`
	S2 int `json:"s2"`
}

// GameTimeup ends a game that ran out of time
type GameTimeup struct {
	Type   Type       `json:"type"`
	Winner model.Side `json:"winner"`
	Scores Scores     `json:"scores"`
}

// NewGameTimeup builds game:timeup with the winner and final scores
func NewGameTimeup(winner model.Side, s1, s2 int) GameTimeup {
	return GameTimeup{Type: TypeGameTimeup, Winner: winner, Scores: Scores{S1: s1, S2: s2}}
}

// GameEnd ends a game by forfeit
type GameEnd struct {
	Type   Type       `json:"type"`
	Winner model.Side `json:"winner"`
}

// NewGameEnd builds game:end naming the remaining side
func NewGameEnd(winner model.Side) GameEnd {
	return GameEnd{Type: TypeGameEnd, Winner: winner}
}

// FriendStatus is one friend's online flag
type FriendStatus struct {
	UserID   model.PlayerID `json:"userId"`
	IsOnline bool           `json:"isOnline"`
}

// FriendsStatusResponse answers friends:status with every friend's flag
type FriendsStatusResponse struct {
	Type    Type           `json:"type"`
	Friends []FriendStatus `json:"friends"`
}

// NewFriendsStatusResponse builds the response; a nil list encodes as []
func NewFriendsStatusResponse(friends []FriendStatus) FriendsStatusResponse {
	if friends == nil {
		friends = []FriendStatus{}
	}
	return FriendsStatusResponse{Type: TypeFriendsStatusResponse, Friends: friends}
}

// FriendsStatusUpdate pushes a single friend's presence change
type FriendsStatusUpdate struct {
	Type     Type           `json:"type"`
	UserID   model.PlayerID `json:"userId"`
	IsOnline bool           `json:"isOnline"`
}

// NewFriendsStatusUpdate builds the presence change for userID
func NewFriendsStatusUpdate(userID model.PlayerID, online bool) FriendsStatusUpdate {
	return FriendsStatusUpdate{Type: TypeFriendsStatusUpdate, UserID: userID, IsOnline: online}
}

// Error answers a validation failure to the sender
type Error struct {
	Type    Type            `json:"type"`
	Code    model.ErrorCode `json:"code"`
	Message string          `json:"message"`
}

// NewError converts a validation failure into an error message
func NewError(err *model.InviteError) Error {
	return Error{Type: TypeError, Code: err.Code, Message: err.Message}
}

// OutboundType reports the message type for each outbound message
func (m Welcome) OutboundType() Type               { return m.Type }
func (m UserList) OutboundType() Type              { return m.Type }
func (m InviteReceived) OutboundType() Type        { return m.Type }
func (m InviteDeclinedNotice) OutboundType() Type  { return m.Type }
func (m InviteError) OutboundType() Type           { return m.Type }
func (m RoomStart) OutboundType() Type             { return m.Type }
func (m RoomPlayers) OutboundType() Type           { return m.Type }
func (m Status) OutboundType() Type                { return m.Type }
func (m GameReady) OutboundType() Type             { return m.Type }
func (m GameStart) OutboundType() Type             { return m.Type }
func (m GameUpdate) OutboundType() Type            { return m.Type }
func (m GameTimer) OutboundType() Type             { return m.Type }
func (m GameTimeup) OutboundType() Type            { return m.Type }
func (m GameEnd) OutboundType() Type               { return m.Type }
func (m FriendsStatusResponse) OutboundType() Type { return m.Type }
func (m FriendsStatusUpdate) OutboundType() Type   { return m.Type }
func (m Error) OutboundType() Type                 { return m.Type }
