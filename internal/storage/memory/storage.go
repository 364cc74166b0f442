package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
// Claims never expire; the process lifetime bounds them.
type Storage struct {
	mu sync.RWMutex

	matches map[model.RoomID]model.MatchRecord
	claims  map[model.RoomID]time.Time
	names   map[model.PlayerID]string
}

// New creates a new in-memory storage
func New() *Storage {
	return &Storage{
		matches: make(map[model.RoomID]model.MatchRecord),
		claims:  make(map[model.RoomID]time.Time),
		names:   make(map[model.PlayerID]string),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match history operations

func (s *Storage) SaveMatch(ctx context.Context, rec *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[rec.RoomID] = copyRecord(*rec)
	return nil
}

func (s *Storage) ListMatches(ctx context.Context, playerID model.PlayerID, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []model.MatchRecord{}
	for _, rec := range s.matches {
		if rec.Involves(playerID) {
			result = append(result, copyRecord(rec))
		}
	}

	// Newest first
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Report claim operations

func (s *Storage) ClaimMatchReport(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[roomID]; exists {
		return false, nil
	}
	s.claims[roomID] = time.Now()
	return true, nil
}

// Display name operations

func (s *Storage) SaveDisplayName(ctx context.Context, id model.PlayerID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[id] = name
	return nil
}

func (s *Storage) GetDisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[id]
	if !ok {
		return "", model.ErrNameNotFound
	}
	return name, nil
}

// Close is a no-op for in-memory storage
func (s *Storage) Close() error {
	return nil
}

// copyRecord detaches the winner pointer from the stored record
func copyRecord(rec model.MatchRecord) model.MatchRecord {
	if rec.WinnerID != nil {
		winner := *rec.WinnerID
		rec.WinnerID = &winner
	}
	return rec
}
