package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/registry"
)

// Presence is the connection registry as the transport uses it
type Presence interface {
	Register(conn registry.Conn)
	Unregister(conn registry.Conn) bool
	Hydrate(conn registry.Conn)
	JoinLobby(conn registry.Conn)
	LeaveLobby(id model.PlayerID) bool
	SendRoster(conn registry.Conn)
	FriendStatuses(ctx context.Context, conn registry.Conn)
}

// Matchmaker handles invites and the queue
type Matchmaker interface {
	Invite(sender registry.Conn, rawTarget string) error
	AcceptInvite(acceptor registry.Conn, rawFrom string) error
	DeclineInvite(decliner registry.Conn, rawFrom string) error
	JoinQueue(conn registry.Conn)
	LeaveQueue(conn registry.Conn) bool
	Forget(conn registry.Conn)
}

// Games handles room and session messages
type Games interface {
	Join(conn registry.Conn, roomID model.RoomID) error
	Begin(conn registry.Conn, roomID model.RoomID) error
	Move(conn registry.Conn, roomID model.RoomID, direction, action string) error
	Leave(conn registry.Conn, roomID model.RoomID) error
	Disconnect(conn registry.Conn)
}

// Dispatcher routes decoded inbound messages to the services
type Dispatcher struct {
	presence   Presence
	matchmaker Matchmaker
	games      Games
	logger     *slog.Logger
}

// NewDispatcher creates a Dispatcher
func NewDispatcher(presence Presence, matchmaker Matchmaker, games Games, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		presence:   presence,
		matchmaker: matchmaker,
		games:      games,
		logger:     logger.With(slog.String("component", "dispatcher")),
	}
}

// Connect registers a freshly authenticated connection
func (d *Dispatcher) Connect(conn registry.Conn) {
	d.presence.Register(conn)
	if conn.Identity().DisplayName == "" {
		d.presence.Hydrate(conn)
	}
}

// Disconnect releases everything held by a closed connection
func (d *Dispatcher) Disconnect(conn registry.Conn) {
	d.presence.Unregister(conn)
	d.matchmaker.Forget(conn)
	d.games.Disconnect(conn)
}

// Dispatch handles one inbound frame. Bad frames and handler failures are
// logged and dropped; a panic in a handler never takes the connection down.
func (d *Dispatcher) Dispatch(ctx context.Context, conn registry.Conn, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.Int64("user_id", int64(conn.Identity().ID)))
		}
	}()

	msg, err := protocol.Decode(raw)
	if err != nil {
		d.logger.Warn("dropping inbound message",
			slog.String("error_type", string(model.ErrorTypeValidation)),
			slog.Int64("user_id", int64(conn.Identity().ID)),
			slog.Any("error", err))
		return
	}

	if err := d.handle(ctx, conn, msg); err != nil {
		d.logFailure(conn, msg, err)
	}
}

func (d *Dispatcher) handle(ctx context.Context, conn registry.Conn, msg protocol.Inbound) error {
	switch m := msg.(type) {
	case protocol.LobbyJoin:
		d.presence.JoinLobby(conn)
	case protocol.LobbyLeave:
		d.presence.LeaveLobby(conn.Identity().ID)
	case protocol.UserListRequest:
		d.presence.SendRoster(conn)

	case protocol.InviteSend:
		return d.matchmaker.Invite(conn, m.To)
	case protocol.InviteAccepted:
		return d.matchmaker.AcceptInvite(conn, m.From)
	case protocol.InviteDeclined:
		return d.matchmaker.DeclineInvite(conn, m.From)

	case protocol.MatchmakingJoin:
		d.matchmaker.JoinQueue(conn)
	case protocol.MatchmakingLeave:
		d.matchmaker.LeaveQueue(conn)

	case protocol.GameJoin:
		return d.games.Join(conn, m.RoomID)
	case protocol.GameBegin:
		return d.games.Begin(conn, m.RoomID)
	case protocol.GameMove:
		return d.games.Move(conn, m.RoomID, m.Direction, m.Action)
	case protocol.GameLeave:
		return d.games.Leave(conn, m.RoomID)

	case protocol.FriendsStatusRequest:
		d.presence.FriendStatuses(ctx, conn)

	default:
		return fmt.Errorf("%w: %q", protocol.ErrUnknownType, msg.InboundType())
	}
	return nil
}

func (d *Dispatcher) logFailure(conn registry.Conn, msg protocol.Inbound, err error) {
	errorType := model.ErrorTypeRoom
	var inviteErr *model.InviteError
	if errors.As(err, &inviteErr) {
		errorType = model.ErrorTypeValidation
	}

	d.logger.Debug("message rejected",
		slog.String("type", string(msg.InboundType())),
		slog.Int64("user_id", int64(conn.Identity().ID)),
		slog.String("error_type", string(errorType)),
		slog.Any("error", err))
}
