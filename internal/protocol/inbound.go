package protocol

import "github.com/mcoot/pong-realtime/internal/model"

// Inbound is the closed set of messages a client may send
type Inbound interface {
	InboundType() Type
}

type (
	// LobbyJoin opts the sender into the lobby roster
	LobbyJoin struct{}
	// LobbyLeave removes the sender from the lobby roster
	LobbyLeave struct{}
	// UserListRequest asks for the current lobby roster
	UserListRequest struct{}

	// InviteSend invites the player named by To (unparsed)
	InviteSend struct {
		To string
	}
	// InviteAccepted accepts an invite from the player named by From
	InviteAccepted struct {
		From string
	}
	// InviteDeclined declines an invite from the player named by From
	InviteDeclined struct {
		From string
	}

	MatchmakingJoin  struct{}
	MatchmakingLeave struct{}

	GameJoin struct {
		RoomID model.RoomID
	}
	GameMove struct {
		RoomID    model.RoomID
		Direction string
		Action    string
	}
	GameBegin struct {
		RoomID model.RoomID
	}
	GameLeave struct {
		RoomID model.RoomID
	}

	FriendsStatusRequest struct{}
)

func (LobbyJoin) InboundType() Type            { return TypeLobbyJoin }
func (LobbyLeave) InboundType() Type           { return TypeLobbyLeave }
func (UserListRequest) InboundType() Type      { return TypeUserListRequest }
func (InviteSend) InboundType() Type           { return TypeInviteSend }
func (InviteAccepted) InboundType() Type       { return TypeInviteAccepted }
func (InviteDeclined) InboundType() Type       { return TypeInviteDeclined }
func (MatchmakingJoin) InboundType() Type      { return TypeMatchmakingJoin }
func (MatchmakingLeave) InboundType() Type     { return TypeMatchmakingLeave }
func (GameJoin) InboundType() Type             { return TypeGameJoin }
func (GameMove) InboundType() Type             { return TypeGameMove }
func (GameBegin) InboundType() Type            { return TypeGameBegin }
func (GameLeave) InboundType() Type            { return TypeGameLeave }
func (FriendsStatusRequest) InboundType() Type { return TypeFriendsStatusRequest }
