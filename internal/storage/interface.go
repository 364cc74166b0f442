package storage

import (
	"context"
	"time"

	"github.com/mcoot/pong-realtime/internal/model"
)

// DefaultHistoryLimit caps match history reads when the caller passes no limit
const DefaultHistoryLimit = 20

// Storage defines the interface for data persistence
type Storage interface {
	// Match history operations
	SaveMatch(ctx context.Context, rec *model.MatchRecord) error
	ListMatches(ctx context.Context, playerID model.PlayerID, limit int) ([]model.MatchRecord, error)

	// Report claims: the first claim for a room wins, later claims return false
	ClaimMatchReport(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error)

	// Display name cache operations
	SaveDisplayName(ctx context.Context, id model.PlayerID, name string) error
	GetDisplayName(ctx context.Context, id model.PlayerID) (string, error)

	Close() error
}
