package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

//go:embed schema.sql
var schema string

// Fixed-width so timestamps compare correctly as strings
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp converts time.Time to a UTC ISO8601 string SQLite sorts correctly
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (or creates) the database at path and applies the schema
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match history operations

func (s *Storage) SaveMatch(ctx context.Context, rec *model.MatchRecord) error {
	var winner sql.NullInt64
	if rec.WinnerID != nil {
		winner = sql.NullInt64{Int64: int64(*rec.WinnerID), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matches (room_id, match_type, played_at, player1_id, player2_id, player1_score, player2_score, winner_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET
			match_type = excluded.match_type,
			played_at = excluded.played_at,
			player1_id = excluded.player1_id,
			player2_id = excluded.player2_id,
			player1_score = excluded.player1_score,
			player2_score = excluded.player2_score,
			winner_id = excluded.winner_id
	`, string(rec.RoomID), string(rec.Type), formatTimestamp(rec.Date),
		int64(rec.Player1ID), int64(rec.Player2ID), rec.Player1Score, rec.Player2Score, winner)
	return err
}

func (s *Storage) ListMatches(ctx context.Context, playerID model.PlayerID, limit int) ([]model.MatchRecord, error) {
	if limit <= 0 {
		limit = storage.DefaultHistoryLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT room_id, match_type, played_at, player1_id, player2_id, player1_score, player2_score, winner_id
		FROM matches
		WHERE player1_id = ? OR player2_id = ?
		ORDER BY played_at DESC
		LIMIT ?
	`, int64(playerID), int64(playerID), limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	result := []model.MatchRecord{}
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func scanMatch(rows *sql.Rows) (model.MatchRecord, error) {
	var (
		rec      model.MatchRecord
		roomID   string
		typ      string
		playedAt string
		p1, p2   int64
		winner   sql.NullInt64
	)
	if err := rows.Scan(&roomID, &typ, &playedAt, &p1, &p2, &rec.Player1Score, &rec.Player2Score, &winner); err != nil {
		return rec, err
	}

	date, err := time.Parse(timestampLayout, playedAt)
	if err != nil {
		return rec, fmt.Errorf("parsing played_at %q: %w", playedAt, err)
	}

	rec.RoomID = model.RoomID(roomID)
	rec.Type = model.MatchType(typ)
	rec.Date = date
	rec.Player1ID = model.PlayerID(p1)
	rec.Player2ID = model.PlayerID(p2)
	if winner.Valid {
		id := model.PlayerID(winner.Int64)
		rec.WinnerID = &id
	}
	return rec, nil
}

// Report claim operations

func (s *Storage) ClaimMatchReport(ctx context.Context, roomID model.RoomID, ttl time.Duration) (bool, error) {
	now := time.Now()
	var expires sql.NullString
	if ttl > 0 {
		expires = sql.NullString{String: formatTimestamp(now.Add(ttl)), Valid: true}
	}

	// Expired claims are released before trying to take the slot
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM report_claims WHERE room_id = ? AND expires_at IS NOT NULL AND expires_at <= ?`,
		string(roomID), formatTimestamp(now)); err != nil {
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO report_claims (room_id, claimed_at, expires_at) VALUES (?, ?, ?)`,
		string(roomID), formatTimestamp(now), expires)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Display name operations

func (s *Storage) SaveDisplayName(ctx context.Context, id model.PlayerID, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO display_names (player_id, name, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at
	`, int64(id), name, formatTimestamp(time.Now()))
	return err
}

func (s *Storage) GetDisplayName(ctx context.Context, id model.PlayerID) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM display_names WHERE player_id = ?`, int64(id)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", model.ErrNameNotFound
	}
	if err != nil {
		return "", err
	}
	return name, nil
}
