package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
)

// Conn is a live client connection as the services see it
type Conn interface {
	ConnID() string
	Identity() model.Identity
	SetDisplayName(name string)
	// Send queues a message; false means the connection is closed or backed up
	Send(msg protocol.Outbound) bool
	IsOpen() bool
	Close(code int, reason string)
}

// FriendsSource returns the friend ids of the user owning token
type FriendsSource interface {
	Friends(ctx context.Context, token string) ([]model.PlayerID, error)
}

// NameSource resolves and caches display names
type NameSource interface {
	Resolve(ctx context.Context, id model.PlayerID) (string, error)
	Remember(id model.PlayerID, name string)
}

// Config holds registry settings
type Config struct {
	// LookupTimeout bounds each call to the profile service
	LookupTimeout time.Duration
}

// DefaultConfig returns default registry configuration
func DefaultConfig() Config {
	return Config{
		LookupTimeout: 5 * time.Second,
	}
}

// Registry owns the id to connection mapping and the lobby presence set
type Registry struct {
	friends FriendsSource
	names   NameSource
	logger  *slog.Logger
	cfg     Config

	mu    sync.RWMutex
	conns map[model.PlayerID]Conn
	lobby map[model.PlayerID]Conn

	wg sync.WaitGroup
}

// New creates a registry
func New(friends FriendsSource, names NameSource, logger *slog.Logger, cfg Config) *Registry {
	if cfg.LookupTimeout == 0 {
		cfg.LookupTimeout = DefaultConfig().LookupTimeout
	}
	return &Registry{
		friends: friends,
		names:   names,
		logger:  logger.With(slog.String("component", "registry")),
		cfg:     cfg,
		conns:   make(map[model.PlayerID]Conn),
		lobby:   make(map[model.PlayerID]Conn),
	}
}

// Register makes conn the live connection for its identity. A previous connection
// for the same identity is closed. The new connection is welcomed, the lobby is
// refreshed and friends are told the player is online.
func (r *Registry) Register(conn Conn) {
	identity := conn.Identity()

	r.mu.Lock()
	prior := r.conns[identity.ID]
	r.conns[identity.ID] = conn
	if prior != nil && r.lobby[identity.ID] == prior {
		delete(r.lobby, identity.ID)
	}
	r.mu.Unlock()

	if prior != nil && prior != conn {
		r.logger.Info("connection replaced",
			slog.Int64("user_id", int64(identity.ID)),
			slog.String("old_conn", prior.ConnID()),
			slog.String("new_conn", conn.ConnID()))
		prior.Close(protocol.CloseNormal, protocol.CloseReasonReplaced)
	}

	if identity.DisplayName != "" && r.names != nil {
		r.names.Remember(identity.ID, identity.DisplayName)
	}

	conn.Send(protocol.NewWelcome(identity))
	r.BroadcastLobby()
	r.notifyFriends(identity, true)

	r.logger.Info("player connected", slog.Int64("user_id", int64(identity.ID)), slog.String("conn", conn.ConnID()))
}

// Unregister removes conn if it is still the live connection for its identity.
// It reports whether the mapping was removed; a stale close returns false and
// leaves the newer connection alone.
func (r *Registry) Unregister(conn Conn) bool {
	identity := conn.Identity()

	r.mu.Lock()
	removed := false
	if r.conns[identity.ID] == conn {
		delete(r.conns, identity.ID)
		removed = true
	}
	leftLobby := false
	if r.lobby[identity.ID] == conn {
		delete(r.lobby, identity.ID)
		leftLobby = true
	}
	r.mu.Unlock()

	if leftLobby {
		r.BroadcastLobby()
	}
	if removed {
		r.notifyFriends(identity, false)
		r.logger.Info("player disconnected", slog.Int64("user_id", int64(identity.ID)), slog.String("conn", conn.ConnID()))
	}
	return removed
}

// Lookup returns the live connection for id
func (r *Registry) Lookup(id model.PlayerID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// LobbyMember returns the lobby connection for id
func (r *Registry) LobbyMember(id model.PlayerID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.lobby[id]
	return conn, ok
}

// Lobby operations

// JoinLobby adds conn to the lobby and refreshes every member's roster
func (r *Registry) JoinLobby(conn Conn) {
	r.mu.Lock()
	r.lobby[conn.Identity().ID] = conn
	r.mu.Unlock()
	r.BroadcastLobby()
}

// LeaveLobby removes id from the lobby and refreshes the remaining rosters.
// Returns false when id was not in the lobby.
func (r *Registry) LeaveLobby(id model.PlayerID) bool {
	r.mu.Lock()
	_, ok := r.lobby[id]
	delete(r.lobby, id)
	r.mu.Unlock()

	if ok {
		r.BroadcastLobby()
	}
	return ok
}

// SendRoster answers a roster request with the lobby minus the requester
func (r *Registry) SendRoster(conn Conn) {
	members := r.lobbySnapshot()
	conn.Send(protocol.NewUserList(rosterFor(members, conn.Identity().ID)))
}

// BroadcastLobby sends each lobby member the roster without themselves
func (r *Registry) BroadcastLobby() {
	members := r.lobbySnapshot()
	for _, m := range members {
		if !m.IsOpen() {
			continue
		}
		m.Send(protocol.NewUserList(rosterFor(members, m.Identity().ID)))
	}
}

func (r *Registry) lobbySnapshot() []Conn {
	r.mu.RLock()
	members := make([]Conn, 0, len(r.lobby))
	for _, c := range r.lobby {
		members = append(members, c)
	}
	r.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		return members[i].Identity().ID < members[j].Identity().ID
	})
	return members
}

func rosterFor(members []Conn, exclude model.PlayerID) []protocol.UserInfo {
	users := make([]protocol.UserInfo, 0, len(members))
	for _, m := range members {
		identity := m.Identity()
		if identity.ID == exclude {
			continue
		}
		users = append(users, protocol.NewUserInfo(identity))
	}
	return users
}

// Counts

// OnlineCount returns the number of registered connections
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// LobbyCount returns the number of lobby members
func (r *Registry) LobbyCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lobby)
}

// Wait blocks until background presence and name lookups have finished
func (r *Registry) Wait() {
	r.wg.Wait()
}
