package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// NameResolver looks up display names, checking an in-process cache, then storage,
// then the profile service. Names found remotely are written back to both caches.
type NameResolver struct {
	service Service
	storage storage.Storage
	logger  *slog.Logger

	mu    sync.RWMutex
	cache map[model.PlayerID]string
}

// NewNameResolver creates a resolver
func NewNameResolver(service Service, store storage.Storage, logger *slog.Logger) *NameResolver {
	return &NameResolver{
		service: service,
		storage: store,
		logger:  logger.With(slog.String("component", "name_resolver")),
		cache:   make(map[model.PlayerID]string),
	}
}

// Resolve returns the display name for id or model.ErrNameNotFound
func (r *NameResolver) Resolve(ctx context.Context, id model.PlayerID) (string, error) {
	r.mu.RLock()
	name, ok := r.cache[id]
	r.mu.RUnlock()
	if ok {
		return name, nil
	}

	name, err := r.storage.GetDisplayName(ctx, id)
	if err == nil {
		r.remember(id, name)
		return name, nil
	}
	if !errors.Is(err, model.ErrNameNotFound) {
		r.logger.Warn("name cache read failed", slog.Int64("user_id", int64(id)), slog.String("error", err.Error()))
	}

	profile, err := r.service.PublicProfile(ctx, id)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(profile.Name)
	if name == "" {
		return "", model.ErrNameNotFound
	}

	r.remember(id, name)
	if err := r.storage.SaveDisplayName(ctx, id, name); err != nil {
		r.logger.Warn("name cache write failed", slog.Int64("user_id", int64(id)), slog.String("error", err.Error()))
	}
	return name, nil
}

// Remember seeds the in-process cache, e.g. from a token that carried a name
func (r *NameResolver) Remember(id model.PlayerID, name string) {
	if name == "" {
		return
	}
	r.remember(id, name)
}

func (r *NameResolver) remember(id model.PlayerID, name string) {
	r.mu.Lock()
	r.cache[id] = name
	r.mu.Unlock()
}
