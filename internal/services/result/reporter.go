package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/pong-realtime/internal/dependencies/clock"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/profile"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// Error codes attached to failed writes in the logs
const (
	CodeMatchSaveFailed = "MATCH_SAVE_FAILED"
	CodeMatchSaveError  = "MATCH_SAVE_ERROR"
)

// MatchWriter is the external write path for finished matches
type MatchWriter interface {
	CreateMatch(ctx context.Context, token string, data profile.MatchData) error
}

// Config holds reporter settings
type Config struct {
	// WriteTimeout bounds one save, claim included
	WriteTimeout time.Duration
	// ClaimTTL is how long a room's report claim is kept
	ClaimTTL time.Duration
}

// DefaultConfig returns default reporter configuration
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
		ClaimTTL:     24 * time.Hour,
	}
}

// Reporter persists finished matches. For every pair only the player with the
// higher id writes, using their own token, and each room is written at most once.
type Reporter struct {
	writer  MatchWriter
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     Config

	wg sync.WaitGroup
}

// New creates a new Reporter
func New(writer MatchWriter, store storage.Storage, clock clock.Clock, logger *slog.Logger, cfg Config) *Reporter {
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultConfig().WriteTimeout
	}
	if cfg.ClaimTTL == 0 {
		cfg.ClaimTTL = DefaultConfig().ClaimTTL
	}
	return &Reporter{
		writer:  writer,
		storage: store,
		clock:   clock,
		logger:  logger.With(slog.String("component", "result")),
		cfg:     cfg,
	}
}

// Report saves the outcome of a room in the background. It never blocks.
func (r *Reporter) Report(roomID model.RoomID, a, b model.Participant) {
	writer, other := Order(a, b)
	date := r.clock.Now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
		defer cancel()

		if err := r.save(ctx, roomID, date, writer, other); err != nil &&
			!errors.Is(err, model.ErrMatchAlreadyReported) && !errors.Is(err, model.ErrNotMatchWriter) {
			r.logger.Error("match report failed",
				slog.String("room_id", string(roomID)),
				slog.String("error", err.Error()))
		}
	}()
}

// Order puts the participant with the higher id first
func Order(a, b model.Participant) (model.Participant, model.Participant) {
	if b.Identity.ID > a.Identity.ID {
		return b, a
	}
	return a, b
}

// save writes the match on behalf of writer. It is a no-op unless writer has
// the strictly higher id, and the room must not have been claimed before.
func (r *Reporter) save(ctx context.Context, roomID model.RoomID, date time.Time, writer, other model.Participant) error {
	if writer.Identity.ID <= other.Identity.ID {
		return model.ErrNotMatchWriter
	}

	claimed, err := r.storage.ClaimMatchReport(ctx, roomID, r.cfg.ClaimTTL)
	if err != nil {
		return fmt.Errorf("claiming report for %s: %w", roomID, err)
	}
	if !claimed {
		r.logger.Info("match already reported", slog.String("room_id", string(roomID)))
		return model.ErrMatchAlreadyReported
	}

	rec := model.NewMatchRecord(roomID, model.MatchTypeOneVsOne, date,
		writer.Identity.ID, other.Identity.ID, writer.Score, other.Score)

	if err := r.writer.CreateMatch(ctx, writer.Identity.Token, profile.NewMatchData(rec)); err != nil {
		r.logFailure(rec, err)
		return nil
	}

	r.logger.Info("match saved",
		slog.String("room_id", string(roomID)),
		slog.Int64("player1_id", int64(rec.Player1ID)),
		slog.Int64("player2_id", int64(rec.Player2ID)),
		slog.Int("player1_score", rec.Player1Score),
		slog.Int("player2_score", rec.Player2Score))

	if err := r.storage.SaveMatch(ctx, &rec); err != nil {
		r.logger.Warn("failed to mirror match locally",
			slog.String("room_id", string(roomID)),
			slog.String("error", err.Error()))
	}
	return nil
}

// logFailure records a failed external write with its correlation context
func (r *Reporter) logFailure(rec model.MatchRecord, err error) {
	code := CodeMatchSaveError
	status := 500
	var statusErr *profile.StatusError
	if errors.As(err, &statusErr) {
		code = CodeMatchSaveFailed
		status = statusErr.StatusCode
	}

	r.logger.Error("failed to save match",
		slog.String("correlation_id", CorrelationID(rec.Player1ID, rec.Player2ID, r.clock.Now())),
		slog.String("error_type", string(model.ErrorTypeExternalService)),
		slog.String("error_code", code),
		slog.Int("http_status", status),
		slog.String("room_id", string(rec.RoomID)),
		slog.Int64("player1_id", int64(rec.Player1ID)),
		slog.Int64("player2_id", int64(rec.Player2ID)),
		slog.Int("player1_score", rec.Player1Score),
		slog.Int("player2_score", rec.Player2Score),
		slog.String("error", err.Error()))
}

// CorrelationID tags the log lines of one save attempt
func CorrelationID(p1, p2 model.PlayerID, at time.Time) string {
	return fmt.Sprintf("match-save-%d-%d-%d", p1, p2, at.UnixMilli())
}

// Wait blocks until every in-flight report has finished
func (r *Reporter) Wait() {
	r.wg.Wait()
}
