package game

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/dependencies/random"
	"github.com/mcoot/pong-realtime/internal/dependencies/scheduler"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/registry"
)

// Reporter persists the outcome of a finished game. Report must not block.
type Reporter interface {
	Report(roomID model.RoomID, a, b model.Participant)
}

// Config holds game timing settings
type Config struct {
	Duration          time.Duration
	StartDelay        time.Duration
	TickInterval      time.Duration
	CountdownInterval time.Duration
	// IdleRoomTTL is how long a room that is not playing survives without activity
	IdleRoomTTL time.Duration
}

// DefaultConfig returns default game configuration
func DefaultConfig() Config {
	return Config{
		Duration:          30 * time.Second,
		StartDelay:        time.Second,
		TickInterval:      time.Second / 60,
		CountdownInterval: time.Second,
		IdleRoomTTL:       10 * time.Minute,
	}
}

// RoomInfo is a point-in-time view of a room
type RoomInfo struct {
	ID        model.RoomID
	State     RoomState
	Players   []protocol.PlayerSummary
	S1, S2    int
	CreatedAt time.Time
}

// Controller owns every room and routes game messages to them
type Controller struct {
	scheduler scheduler.Scheduler
	clock     clock.Clock
	random    random.Random
	reporter  Reporter
	serve     ServeStrategy
	logger    *slog.Logger
	cfg       Config

	// mu guards the maps only. It is never held while taking a room lock.
	mu         sync.RWMutex
	rooms      map[model.RoomID]*Room
	playerRoom map[model.PlayerID]model.RoomID
}

// NewController creates a new game Controller
func NewController(
	sched scheduler.Scheduler,
	clock clock.Clock,
	random random.Random,
	reporter Reporter,
	logger *slog.Logger,
	cfg Config,
) *Controller {
	defaults := DefaultConfig()
	if cfg.Duration == 0 {
		cfg.Duration = defaults.Duration
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = defaults.TickInterval
	}
	if cfg.CountdownInterval == 0 {
		cfg.CountdownInterval = defaults.CountdownInterval
	}
	if cfg.IdleRoomTTL == 0 {
		cfg.IdleRoomTTL = defaults.IdleRoomTTL
	}
	return &Controller{
		scheduler:  sched,
		clock:      clock,
		random:     random,
		reporter:   reporter,
		serve:      AlternatingServe{Random: random},
		logger:     logger.With(slog.String("component", "game")),
		cfg:        cfg,
		rooms:      make(map[model.RoomID]*Room),
		playerRoom: make(map[model.PlayerID]model.RoomID),
	}
}

// SetServeStrategy replaces the serve used after every score
func (c *Controller) SetServeStrategy(s ServeStrategy) {
	c.serve = s
}

// MakeRoomID builds room-{low}-{high}-{base36 millis}-{6 base36 chars}
func MakeRoomID(a, b model.PlayerID, clk clock.Clock, rnd random.Random) model.RoomID {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	return model.RoomID("room-" + lo.String() + "-" + hi.String() + "-" +
		strconv.FormatInt(clock.UnixMillis(clk), 36) + "-" +
		rnd.String(6, random.Base36Alphabet))
}

// Room lifecycle

// CreateRoom opens a room for a and b. It fails with ErrRoomExists while
// another unfinished room holds the same pair.
func (c *Controller) CreateRoom(a, b model.PlayerID) (model.RoomID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range c.rooms {
		if r.hasPair(a, b) && !r.ended.Load() {
			return "", model.ErrRoomExists
		}
	}

	id := MakeRoomID(a, b, c.clock, c.random)
	c.rooms[id] = newRoom(id, a, b, c.clock.Now())

	c.logger.Info("room created",
		slog.String("room_id", string(id)),
		slog.Int64("player_a", int64(a)),
		slog.Int64("player_b", int64(b)))
	return id, nil
}

// FindByPair returns the unfinished room holding a and b, with its seat order
func (c *Controller) FindByPair(a, b model.PlayerID) (model.RoomID, [2]model.PlayerID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for id, r := range c.rooms {
		if r.hasPair(a, b) && !r.ended.Load() {
			return id, r.Pair, true
		}
	}
	return "", [2]model.PlayerID{}, false
}

// RoomOf returns the room the player has joined
func (c *Controller) RoomOf(id model.PlayerID) (model.RoomID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	roomID, ok := c.playerRoom[id]
	return roomID, ok
}

func (c *Controller) room(id model.RoomID) *Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[id]
}

func (c *Controller) deleteRoom(room *Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room.ID)
	for id, roomID := range c.playerRoom {
		if roomID == room.ID {
			delete(c.playerRoom, id)
		}
	}
	c.logger.Info("room deleted", slog.String("room_id", string(room.ID)))
}

func (c *Controller) bindPlayer(id model.PlayerID, roomID model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerRoom[id] = roomID
}

func (c *Controller) unbindPlayer(id model.PlayerID, roomID model.RoomID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playerRoom[id] == roomID {
		delete(c.playerRoom, id)
	}
}

// Message handlers

// Join seats conn in the room. The room's session is created on first join;
// when both seats are taken both players get game:ready and room:players.
func (c *Controller) Join(conn registry.Conn, roomID model.RoomID) error {
	identity := conn.Identity()

	room := c.room(roomID)
	if room == nil {
		return model.ErrRoomNotFound
	}
	if !room.invited(identity.ID) {
		return model.ErrNotRoomMember
	}

	// One room per player: joining a new room leaves the old one
	if prev, ok := c.RoomOf(identity.ID); ok && prev != roomID {
		c.leaveRoom(identity.ID, prev, nil)
	}

	room.mu.Lock()
	if room.state == RoomEnded {
		room.mu.Unlock()
		return model.ErrSessionEnded
	}

	slot := room.slotFor(identity.ID)
	if slot < 0 {
		room.mu.Unlock()
		return model.ErrNotRoomMember
	}

	if room.session == nil {
		room.session = NewSession()
	}
	room.slots[slot] = conn
	room.members[slot] = identity
	room.lastActivity = c.clock.Now()

	if room.full() {
		room.broadcast(protocol.NewGameReady(roomID))
		players := room.players()
		for i, member := range room.slots {
			member.Send(protocol.NewRoomPlayers(roomID, i, players))
		}
	}
	room.mu.Unlock()

	c.bindPlayer(identity.ID, roomID)

	c.logger.Info("player joined room",
		slog.String("room_id", string(roomID)),
		slog.Int64("user_id", int64(identity.ID)),
		slog.Int("slot", slot))
	return nil
}

// Begin starts the game: both players get game:start, and after the start
// delay the tick and countdown run until the deadline. A room plays once.
func (c *Controller) Begin(conn registry.Conn, roomID model.RoomID) error {
	room := c.room(roomID)
	if room == nil {
		return model.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	switch {
	case room.session == nil:
		return model.ErrNoSession
	case room.slotOf(conn) < 0:
		return model.ErrNotRoomMember
	case room.run != nil || room.state == RoomActive:
		return model.ErrSessionRunning
	case room.state == RoomEnded:
		return model.ErrSessionEnded
	case !room.full():
		return model.ErrRoomNotReady
	}

	durationSecs := int(c.cfg.Duration / time.Second)
	players := room.players()
	for i, member := range room.slots {
		member.Send(protocol.NewGameStart(roomID, durationSecs, i, players))
	}

	room.session.ResetPositions()
	room.session.Active = true
	room.state = RoomActive
	room.lastActivity = c.clock.Now()

	rn := &run{room: room, controller: c}
	room.run = rn
	rn.handle = c.scheduler.Start(scheduler.Plan{
		Delay:     c.cfg.StartDelay,
		Tick:      c.cfg.TickInterval,
		Countdown: c.cfg.CountdownInterval,
	}, rn)

	c.logger.Info("game started",
		slog.String("room_id", string(roomID)),
		slog.Duration("duration", c.cfg.Duration))
	return nil
}

// Move applies a key transition from a seated player
func (c *Controller) Move(conn registry.Conn, roomID model.RoomID, direction, action string) error {
	room := c.room(roomID)
	if room == nil {
		return model.ErrRoomNotFound
	}

	room.mu.Lock()
	defer room.mu.Unlock()

	if room.session == nil {
		return model.ErrNoSession
	}
	if !room.session.Active {
		return model.ErrSessionNotActive
	}
	slot := room.slotOf(conn)
	if slot < 0 {
		return model.ErrNotRoomMember
	}

	room.session.SetKey(slot, direction, action == protocol.ActionDown)
	return nil
}

// Leave takes conn out of the room. Leaving a game in progress forfeits it.
func (c *Controller) Leave(conn registry.Conn, roomID model.RoomID) error {
	if c.room(roomID) == nil {
		return model.ErrRoomNotFound
	}
	if !c.leaveRoom(conn.Identity().ID, roomID, conn) {
		return model.ErrNotRoomMember
	}
	return nil
}

// Disconnect handles a closed connection as a leave from its current room.
// A connection that was already replaced in its seat is ignored.
func (c *Controller) Disconnect(conn registry.Conn) {
	id := conn.Identity().ID
	roomID, ok := c.RoomOf(id)
	if !ok {
		return
	}
	if c.leaveRoom(id, roomID, conn) {
		c.logger.Info("player disconnected from room",
			slog.String("room_id", string(roomID)),
			slog.Int64("user_id", int64(id)))
	}
}

// leaveRoom empties the seat held by id. When conn is set the seat must still
// be bound to it. Reports whether a seat was emptied.
func (c *Controller) leaveRoom(id model.PlayerID, roomID model.RoomID, conn registry.Conn) bool {
	room := c.room(roomID)
	if room == nil {
		c.unbindPlayer(id, roomID)
		return false
	}

	room.mu.Lock()
	slot := -1
	for i, m := range room.members {
		if m.ID == id && room.slots[i] != nil && (conn == nil || room.slots[i] == conn) {
			slot = i
		}
	}
	if slot < 0 {
		room.mu.Unlock()
		return false
	}

	room.slots[slot] = nil
	room.lastActivity = c.clock.Now()
	remove := false

	switch {
	case room.empty():
		room.end()
		remove = true

	case room.state == RoomActive:
		remaining := 1 - slot
		winner := model.SideForSlot(remaining)
		if other := room.slots[remaining]; other != nil {
			other.Send(protocol.NewGameEnd(winner))
		}
		a, b := room.participants()
		room.end()
		remove = true

		c.logger.Info("game forfeited",
			slog.String("room_id", string(roomID)),
			slog.Int64("user_id", int64(id)),
			slog.String("winner", string(winner)),
			slog.Int("s1", a.Score),
			slog.Int("s2", b.Score))
		c.reporter.Report(roomID, a, b)
	}
	room.mu.Unlock()

	c.unbindPlayer(id, roomID)
	if remove {
		c.deleteRoom(room)
	}
	return true
}

// Introspection

// Rooms returns a snapshot of every room, oldest first
func (c *Controller) Rooms() []RoomInfo {
	c.mu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		info := RoomInfo{
			ID:        r.ID,
			State:     r.state,
			Players:   r.players(),
			CreatedAt: r.CreatedAt,
		}
		if r.session != nil {
			info.S1, info.S2 = r.session.S1, r.session.S2
		}
		r.mu.Unlock()
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// RoomCount returns the number of open rooms
func (c *Controller) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

// Room cleanup

// Sweep deletes rooms that are not playing and have been quiet for longer
// than the idle TTL. Returns how many were removed.
func (c *Controller) Sweep() int {
	cutoff := c.clock.Now().Add(-c.cfg.IdleRoomTTL)

	c.mu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.mu.RUnlock()

	removed := 0
	for _, r := range rooms {
		r.mu.Lock()
		stale := r.state != RoomActive && r.lastActivity.Before(cutoff)
		if stale {
			r.end()
		}
		r.mu.Unlock()

		if stale {
			c.deleteRoom(r)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps idle rooms every interval until ctx is done
func (c *Controller) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sweep(); n > 0 {
				c.logger.Info("swept idle rooms", slog.Int("count", n))
			}
		}
	}
}
