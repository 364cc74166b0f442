package redis

import (
	"fmt"

	"github.com/mcoot/pong-realtime/internal/model"
)

// Key prefix for all realtime server data
const keyPrefix = "pong"

// matchKey returns the Redis key for a MatchRecord
func matchKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, roomID)
}

// playerMatchesIndexKey returns the Redis key for the LIST of a player's room ids, newest first
func playerMatchesIndexKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:idx:player_matches:%d", keyPrefix, id)
}

// reportClaimKey returns the Redis key marking a room's result as claimed
func reportClaimKey(roomID model.RoomID) string {
	return fmt.Sprintf("%s:report_claim:%s", keyPrefix, roomID)
}

// nameKey returns the Redis key for a cached display name
func nameKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:name:%d", keyPrefix, id)
}
