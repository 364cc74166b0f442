package registry

import (
	"context"
	"log/slog"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/protocol"
)

// FriendStatuses answers a friends status request with the online flag of each friend
func (r *Registry) FriendStatuses(ctx context.Context, conn Conn) {
	identity := conn.Identity()
	friends := r.fetchFriends(ctx, identity)

	statuses := make([]protocol.FriendStatus, 0, len(friends))
	for _, id := range friends {
		_, online := r.Lookup(id)
		statuses = append(statuses, protocol.FriendStatus{UserID: id, IsOnline: online})
	}
	conn.Send(protocol.NewFriendsStatusResponse(statuses))
}

// notifyFriends tells each online friend of identity about the presence change
func (r *Registry) notifyFriends(identity model.Identity, online bool) {
	if r.friends == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.LookupTimeout)
		defer cancel()

		msg := protocol.NewFriendsStatusUpdate(identity.ID, online)
		for _, id := range r.fetchFriends(ctx, identity) {
			if conn, ok := r.Lookup(id); ok && conn.IsOpen() {
				conn.Send(msg)
			}
		}
	}()
}

// fetchFriends returns the friend ids of identity, or none when the profile service fails
func (r *Registry) fetchFriends(ctx context.Context, identity model.Identity) []model.PlayerID {
	if r.friends == nil || identity.Token == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	friends, err := r.friends.Friends(ctx, identity.Token)
	if err != nil {
		r.logger.Warn("failed to fetch friends",
			slog.Int64("user_id", int64(identity.ID)),
			slog.String("error_type", string(model.ErrorTypeExternalService)),
			slog.String("error", err.Error()))
		return nil
	}
	return friends
}

// Hydrate looks up a display name for a connection whose token carried none.
// On success the connection is renamed and the lobby roster is rebroadcast.
func (r *Registry) Hydrate(conn Conn) {
	identity := conn.Identity()
	if identity.DisplayName != "" || r.names == nil {
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.LookupTimeout)
		defer cancel()

		name, err := r.names.Resolve(ctx, identity.ID)
		if err != nil {
			r.logger.Warn("failed to resolve display name",
				slog.Int64("user_id", int64(identity.ID)),
				slog.String("error_type", string(model.ErrorTypeExternalService)),
				slog.String("error", err.Error()))
			return
		}
		if !conn.IsOpen() {
			return
		}

		conn.SetDisplayName(name)
		r.BroadcastLobby()
	}()
}
