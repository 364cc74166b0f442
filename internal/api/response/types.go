package response

import (
	"time"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/services/game"
)

// Health is the response of the health check
type Health struct {
	Status string `json:"status"`
}

// Status summarizes live server load
type Status struct {
	Online int `json:"online"`
	Lobby  int `json:"lobby"`
	Queue  int `json:"queue"`
	Rooms  int `json:"rooms"`
}

// Match outcomes from the caller's point of view
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// Match represents a finished match in API responses
type Match struct {
	RoomID       string    `json:"room_id"`
	Type         string    `json:"type"`
	Date         time.Time `json:"date"`
	Player1ID    int64     `json:"player1_id"`
	Player2ID    int64     `json:"player2_id"`
	Player1Score int       `json:"player1_score"`
	Player2Score int       `json:"player2_score"`
	WinnerID     *int64    `json:"winner_id"`
	Result       string    `json:"result"`
}

// MatchFromModel converts a model.MatchRecord as seen by viewer
func MatchFromModel(m model.MatchRecord, viewer model.PlayerID) Match {
	var winner *int64
	result := ResultDraw
	if m.WinnerID != nil {
		w := int64(*m.WinnerID)
		winner = &w
		result = ResultLoss
		if *m.WinnerID == viewer {
			result = ResultWin
		}
	}
	return Match{
		RoomID:       string(m.RoomID),
		Type:         string(m.Type),
		Date:         m.Date.UTC(),
		Player1ID:    int64(m.Player1ID),
		Player2ID:    int64(m.Player2ID),
		Player1Score: m.Player1Score,
		Player2Score: m.Player2Score,
		WinnerID:     winner,
		Result:       result,
	}
}

// MatchList is the match history of one player, newest first
type MatchList struct {
	PlayerID int64   `json:"player_id"`
	Matches  []Match `json:"matches"`
}

// MatchListFromModel converts records for viewer
func MatchListFromModel(viewer model.PlayerID, records []model.MatchRecord) MatchList {
	matches := make([]Match, len(records))
	for i, m := range records {
		matches[i] = MatchFromModel(m, viewer)
	}
	return MatchList{PlayerID: int64(viewer), Matches: matches}
}

// Player represents a room member
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Room represents a live room in admin responses
type Room struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	Players   []Player  `json:"players"`
	S1        int       `json:"s1"`
	S2        int       `json:"s2"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomFromModel converts a game.RoomInfo
func RoomFromModel(info game.RoomInfo) Room {
	players := make([]Player, len(info.Players))
	for i, p := range info.Players {
		players[i] = Player{ID: int64(p.ID), Name: p.Name}
	}
	return Room{
		ID:        string(info.ID),
		State:     string(info.State),
		Active:    info.State == game.RoomActive,
		Players:   players,
		S1:        info.S1,
		S2:        info.S2,
		CreatedAt: info.CreatedAt.UTC(),
	}
}

// RoomList is the admin view of every live room
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// RoomListFromModel converts a slice of game.RoomInfo
func RoomListFromModel(infos []game.RoomInfo) RoomList {
	rooms := make([]Room, len(infos))
	for i, info := range infos {
		rooms[i] = RoomFromModel(info)
	}
	return RoomList{Rooms: rooms}
}

// SweepResult reports how many idle rooms an admin sweep removed
type SweepResult struct {
	Removed int `json:"removed"`
}
