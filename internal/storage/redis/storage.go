package redis

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match history operations

func (s *Storage) SaveMatch(ctx context.Context, rec *model.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// Use pipeline so the record and both index entries land together
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, matchKey(rec.RoomID), data, s.cfg.MatchTTL)
	for _, id := range []model.PlayerID{rec.Player1ID, rec.Player2ID} {
		idx := playerMatchesIndexKey(id)
		pipe.LRem(ctx, idx, 0, string(rec.RoomID))
		pipe.LPush(ctx, idx, string(rec.RoomID))
		if s.cfg.HistoryLength > 0 {
			pipe.LTrim(ctx, idx, 0, s.cfg.HistoryLength-1)
		}
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) ListMatches(ctx context.Context, playerID model.PlayerID, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	roomIDs, err := s.client.LRange(ctx, playerMatchesIndexKey(playerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(roomIDs) == 0 {
		return []model.MatchRecord{}, nil
	}

	keys := make([]string, len(roomIDs))
	for i, id := range roomIDs {
		keys[i] = matchKey(model.RoomID(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make([]model.MatchRecord, 0, len(values))
	for _, v := range values {
		// Expired records leave dangling index entries
		str, ok := v.(string)
		if !ok {
			continue
		}
		var rec model.MatchRecord
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, nil
}

// Report claim operations

func (s *Storage) ClaimMatchReport(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, reportClaimKey(roomID), 1, ttl).Result()
}

// Display name operations

func (s *Storage) SaveDisplayName(ctx context.Context, id model.PlayerID, name string) error {
	return s.client.Set(ctx, nameKey(id), name, s.cfg.NameTTL).Err()
}

func (s *Storage) GetDisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	name, err := s.client.Get(ctx, nameKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", model.ErrNameNotFound
		}
		return "", err
	}
	return name, nil
}
