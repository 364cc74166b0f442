package matchmaking

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/registry"
)

// Presence is the part of the registry the coordinator reads
type Presence interface {
	Lookup(id model.PlayerID) (registry.Conn, bool)
	LobbyMember(id model.PlayerID) (registry.Conn, bool)
	LeaveLobby(id model.PlayerID) bool
}

// RoomCreator opens rooms for matched pairs
type RoomCreator interface {
	CreateRoom(a, b model.PlayerID) (model.RoomID, error)
	FindByPair(a, b model.PlayerID) (model.RoomID, [2]model.PlayerID, bool)
}

// Coordinator pairs players, either by direct invite or through a FIFO queue
type Coordinator struct {
	presence Presence
	rooms    RoomCreator
	logger   *slog.Logger

	mu    sync.Mutex
	queue []registry.Conn
}

// NewCoordinator creates a new matchmaking Coordinator
func NewCoordinator(presence Presence, rooms RoomCreator, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		presence: presence,
		rooms:    rooms,
		logger:   logger.With(slog.String("component", "matchmaking")),
	}
}

// Invites

// Invite validates the target and forwards the invite. Validation failures are
// answered to the sender with an error message and returned.
func (c *Coordinator) Invite(sender registry.Conn, rawTarget string) error {
	from := sender.Identity()

	if err := c.validateInvite(from.ID, rawTarget); err != nil {
		var inviteErr *model.InviteError
		if errors.As(err, &inviteErr) {
			sender.Send(protocol.NewError(inviteErr))
		}
		c.logger.Debug("invite rejected",
			slog.Int64("from", int64(from.ID)),
			slog.String("to", rawTarget),
			slog.String("error", err.Error()))
		return err
	}

	targetID, _ := model.ParsePlayerID(strings.TrimSpace(rawTarget))
	target, ok := c.presence.Lookup(targetID)
	if !ok || !target.IsOpen() {
		sender.Send(protocol.NewInviteError(protocol.InviteErrorOffline))
		c.logger.Warn("invite target offline",
			slog.Int64("from", int64(from.ID)),
			slog.Int64("to", int64(targetID)),
			slog.String("error_type", string(model.ErrorTypeRoom)))
		return model.ErrPlayerOffline
	}

	target.Send(protocol.NewInviteReceived(from))
	c.logger.Info("invite sent", slog.Int64("from", int64(from.ID)), slog.Int64("to", int64(targetID)))
	return nil
}

// validateInvite checks, in order: the target parses, is not the sender, and
// is in the lobby with an open connection
func (c *Coordinator) validateInvite(from model.PlayerID, rawTarget string) error {
	targetID, err := model.ParsePlayerID(strings.TrimSpace(rawTarget))
	if err != nil {
		return model.ErrBadInvite
	}
	if targetID == from {
		return model.ErrSelfInvite
	}
	member, ok := c.presence.LobbyMember(targetID)
	if !ok || !member.IsOpen() {
		return model.ErrUserNotInLobby
	}
	return nil
}

// AcceptInvite opens a room for the inviter and the acceptor. A second accept
// for a pair that already has a room is ignored.
func (c *Coordinator) AcceptInvite(acceptor registry.Conn, rawFrom string) error {
	inviterID, err := model.ParsePlayerID(strings.TrimSpace(rawFrom))
	if err != nil {
		return err
	}
	inviter, ok := c.presence.Lookup(inviterID)
	if !ok || !inviter.IsOpen() {
		return model.ErrPlayerOffline
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openRoom(inviter, acceptor, false)
}

// DeclineInvite tells the inviter, if still online, who declined
func (c *Coordinator) DeclineInvite(decliner registry.Conn, rawFrom string) error {
	inviterID, err := model.ParsePlayerID(strings.TrimSpace(rawFrom))
	if err != nil {
		return err
	}
	inviter, ok := c.presence.Lookup(inviterID)
	if !ok || !inviter.IsOpen() {
		return model.ErrPlayerOffline
	}

	inviter.Send(protocol.NewInviteDeclined(decliner.Identity().ID))
	return nil
}

// Queue

// JoinQueue takes the player out of the lobby and queues them. Joining twice
// is a no-op. Once two players wait, the two at the front are paired.
func (c *Coordinator) JoinQueue(conn registry.Conn) {
	id := conn.Identity().ID
	c.presence.LeaveLobby(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	// A reconnected player keeps their place under the new connection
	if i := c.indexOf(id); i >= 0 {
		c.queue[i] = conn
		return
	}
	c.queue = append(c.queue, conn)
	conn.Send(protocol.NewMatchmakingSearching())
	c.logger.Info("player queued", slog.Int64("user_id", int64(id)), slog.Int("queue_length", len(c.queue)))

	for len(c.queue) >= 2 {
		a, b := c.queue[0], c.queue[1]
		c.queue = c.queue[2:]
		if err := c.openRoom(a, b, true); err != nil {
			c.logger.Warn("queue pairing failed",
				slog.Int64("player_a", int64(a.Identity().ID)),
				slog.Int64("player_b", int64(b.Identity().ID)),
				slog.String("error", err.Error()))
		}
	}
}

// LeaveQueue removes the player and confirms with matchmaking:cancelled.
// Players who are not queued get no reply.
func (c *Coordinator) LeaveQueue(conn registry.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.remove(conn.Identity().ID) {
		return false
	}
	conn.Send(protocol.NewMatchmakingCancelled())
	return true
}

// Forget drops a closed connection from the queue without replying. An entry
// already taken over by a newer connection for the same player is kept.
func (c *Coordinator) Forget(conn registry.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(conn.Identity().ID)
	if i >= 0 && c.queue[i].ConnID() == conn.ConnID() {
		c.queue = append(c.queue[:i], c.queue[i+1:]...)
	}
}

// QueueLength returns the number of waiting players
func (c *Coordinator) QueueLength() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// The helpers below require c.mu

func (c *Coordinator) indexOf(id model.PlayerID) int {
	for i, q := range c.queue {
		if q.Identity().ID == id {
			return i
		}
	}
	return -1
}

func (c *Coordinator) remove(id model.PlayerID) bool {
	i := c.indexOf(id)
	if i < 0 {
		return false
	}
	c.queue = append(c.queue[:i], c.queue[i+1:]...)
	return true
}

// openRoom creates the room and sends room:start to both players. When the
// pair already shares an unfinished room, resume resends room:start for that
// room instead; otherwise the request is ignored.
func (c *Coordinator) openRoom(a, b registry.Conn, resume bool) error {
	aID, bID := a.Identity().ID, b.Identity().ID

	roomID, err := c.rooms.CreateRoom(aID, bID)
	if errors.Is(err, model.ErrRoomExists) {
		if !resume {
			c.logger.Warn("duplicate room request ignored",
				slog.Int64("player_a", int64(aID)),
				slog.Int64("player_b", int64(bID)))
			return nil
		}
		existing, pair, ok := c.rooms.FindByPair(aID, bID)
		if !ok {
			return err
		}
		c.logger.Info("pair already shares a room",
			slog.String("room_id", string(existing)),
			slog.Int64("player_a", int64(aID)),
			slog.Int64("player_b", int64(bID)))
		msg := protocol.NewRoomStart(existing, pair[0], pair[1])
		a.Send(msg)
		b.Send(msg)
		return nil
	}
	if err != nil {
		return err
	}

	msg := protocol.NewRoomStart(roomID, aID, bID)
	a.Send(msg)
	b.Send(msg)
	return nil
}
