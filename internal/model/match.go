package model

import "time"

// MatchType mirrors the match categories of the profile service
type MatchType string

const (
	MatchTypeOneVsOne               MatchType = "ONE_VS_ONE"
	MatchTypeTournament1v1          MatchType = "TOURNAMENT_1V1"
	MatchTypeTournamentIntermediate MatchType = "TOURNAMENT_INTERMEDIATE"
	MatchTypeTournamentFinal        MatchType = "TOURNAMENT_FINAL"
)

// MatchRecord is the persisted outcome of one finished game
// Player1 is always the higher id of the pair.
type MatchRecord struct {
	RoomID       RoomID
	Type         MatchType
	Date         time.Time
	Player1ID    PlayerID
	Player2ID    PlayerID
	Player1Score int
	Player2Score int
	WinnerID     *PlayerID // nil on a draw
}

// NewMatchRecord builds a record and derives the winner from the scores
func NewMatchRecord(roomID RoomID, matchType MatchType, date time.Time, p1, p2 PlayerID, s1, s2 int) MatchRecord {
	rec := MatchRecord{
		RoomID:       roomID,
		Type:         matchType,
		Date:         date,
		Player1ID:    p1,
		Player2ID:    p2,
		Player1Score: s1,
		Player2Score: s2,
	}
	var winner PlayerID
	switch {
	case s1 > s2:
		winner = p1
		rec.WinnerID = &winner
	case s2 > s1:
		winner = p2
		rec.WinnerID = &winner
	}
	return rec
}

// IsDraw reports whether the match ended level
func (m MatchRecord) IsDraw() bool {
	return m.WinnerID == nil
}

// Involves reports whether the player took part in the match
func (m MatchRecord) Involves(id PlayerID) bool {
	return m.Player1ID == id || m.Player2ID == id
}

// Participant is one side of a finished match: who played and what they scored
type Participant struct {
	Identity Identity
	Score    int
}
