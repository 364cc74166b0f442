package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// HistoryLength caps the per-player match index
	HistoryLength int64

	// TTL settings
	MatchTTL time.Duration // 0 keeps match records forever
	NameTTL  time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		HistoryLength: 100,
		MatchTTL:      0,
		NameTTL:       time.Hour,
	}
}
