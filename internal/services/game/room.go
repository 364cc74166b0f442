package game

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/pong-realtime/internal/dependencies/scheduler"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
	"github.com/mcoot/pong-realtime/internal/services/registry"
)

// RoomState is the lifecycle stage of a room's game
type RoomState string

const (
	RoomIdle   RoomState = "idle"
	RoomActive RoomState = "active"
	RoomEnded  RoomState = "ended"
)

// Room pairs two players and owns their session.
// Slots follow Pair: Pair[0] always plays slot 0 with the left paddle and s1,
// whichever player joins first.
type Room struct {
	ID        model.RoomID
	Pair      [2]model.PlayerID
	CreatedAt time.Time

	// ended is readable without the room lock
	ended atomic.Bool

	mu           sync.Mutex
	state        RoomState
	slots        [2]registry.Conn
	members      [2]model.Identity
	session      *Session
	run          *run
	deadline     time.Time
	lastActivity time.Time
}

func newRoom(id model.RoomID, a, b model.PlayerID, now time.Time) *Room {
	return &Room{
		ID:           id,
		Pair:         [2]model.PlayerID{a, b},
		CreatedAt:    now,
		state:        RoomIdle,
		lastActivity: now,
	}
}

// hasPair reports whether the room was created for exactly a and b
func (r *Room) hasPair(a, b model.PlayerID) bool {
	return (r.Pair[0] == a && r.Pair[1] == b) || (r.Pair[0] == b && r.Pair[1] == a)
}

func (r *Room) invited(id model.PlayerID) bool {
	return r.Pair[0] == id || r.Pair[1] == id
}

// The helpers below require r.mu

// slotOf returns the slot bound to conn, or -1
func (r *Room) slotOf(conn registry.Conn) int {
	for i, c := range r.slots {
		if c != nil && c == conn {
			return i
		}
	}
	return -1
}

// slotFor returns id's index in Pair, or -1
func (r *Room) slotFor(id model.PlayerID) int {
	for i, p := range r.Pair {
		if p == id {
			return i
		}
	}
	return -1
}

func (r *Room) full() bool {
	return r.slots[0] != nil && r.slots[1] != nil
}

func (r *Room) empty() bool {
	return r.slots[0] == nil && r.slots[1] == nil
}

func (r *Room) players() []protocol.PlayerSummary {
	players := make([]protocol.PlayerSummary, 0, 2)
	for i, c := range r.slots {
		if c != nil {
			players = append(players, protocol.NewPlayerSummary(c.Identity()))
		} else if r.members[i].ID != 0 {
			players = append(players, protocol.NewPlayerSummary(r.members[i]))
		}
	}
	return players
}

func (r *Room) broadcast(msg protocol.Outbound) {
	for _, c := range r.slots {
		if c != nil && c.IsOpen() {
			c.Send(msg)
		}
	}
}

// stopRun cancels the scheduled run, if any. Safe to call repeatedly.
func (r *Room) stopRun() {
	if r.run == nil {
		return
	}
	r.run.handle.Stop()
	r.run = nil
}

func (r *Room) end() {
	r.stopRun()
	r.state = RoomEnded
	r.ended.Store(true)
	if r.session != nil {
		r.session.Halt()
	}
}

// participants pairs each slot's identity with its score
func (r *Room) participants() (model.Participant, model.Participant) {
	return model.Participant{Identity: r.members[0], Score: r.session.S1},
		model.Participant{Identity: r.members[1], Score: r.session.S2}
}

// run is one scheduled game. Callbacks from a run that is no longer the
// room's current run are dropped.
type run struct {
	room       *Room
	controller *Controller
	handle     scheduler.Handle
}

// Begin fixes the countdown deadline once the start delay has passed
func (rn *run) Begin() {
	room := rn.room
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.run != rn {
		return
	}
	room.deadline = rn.controller.clock.Now().Add(rn.controller.cfg.Duration)
}

// Tick advances the physics and broadcasts the snapshot
func (rn *run) Tick() {
	room := rn.room
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.run != rn || room.session == nil || !room.session.Active {
		return
	}

	room.session.Step(rn.controller.serve)
	room.broadcast(protocol.NewGameUpdate(room.session.Snapshot()))
}

// Countdown broadcasts the remaining seconds and ends the game at zero
func (rn *run) Countdown() {
	room := rn.room
	c := rn.controller
	room.mu.Lock()
	defer room.mu.Unlock()
	if room.run != rn || room.deadline.IsZero() {
		return
	}

	remaining := int(math.Ceil(room.deadline.Sub(c.clock.Now()).Seconds()))
	if remaining < 0 {
		remaining = 0
	}
	room.broadcast(protocol.NewGameTimer(remaining))
	if remaining > 0 {
		return
	}

	s := room.session
	winner := s.Winner()
	room.broadcast(protocol.NewGameTimeup(winner, s.S1, s.S2))
	room.end()
	room.lastActivity = c.clock.Now()

	c.logger.Info("game finished",
		slog.String("room_id", string(room.ID)),
		slog.String("winner", string(winner)),
		slog.Int("s1", s.S1),
		slog.Int("s2", s.S2))

	a, b := room.participants()
	c.reporter.Report(room.ID, a, b)
}
