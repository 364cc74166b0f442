package cli

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case ServerStatus:
		o.printServerStatus(v)
	case Player:
		o.printPlayer(v)
	case MatchList:
		o.printMatchList(v)
	case Room:
		o.printRoom(v)
	case RoomList:
		o.printRoomList(v)
	case SweepResult:
		fmt.Printf("Removed %d idle room(s)\n", v.Removed)
	case TokenResult:
		o.printTokenResult(v)
	case KeyHash:
		fmt.Println(v.Hash)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

// ServerStatus response type
type ServerStatus struct {
	Online int `json:"online"`
	Lobby  int `json:"lobby"`
	Queue  int `json:"queue"`
	Rooms  int `json:"rooms"`
}

// Player response type (matches API)
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Match response type
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

// MatchList response type
type MatchList struct {
	PlayerID int64   `json:"player_id"`
	Matches  []Match `json:"matches"`
}

// Room response type
type Room struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Active    bool      `json:"active"`
	Players   []Player  `json:"players"`
	S1        int       `json:"s1"`
	S2        int       `json:"s2"`
	CreatedAt time.Time `json:"created_at"`
}

// RoomList response type
type RoomList struct {
	Rooms []Room `json:"rooms"`
}

// SweepResult response type
type SweepResult struct {
	Removed int `json:"removed"`
}

// TokenResult is a locally signed token
type TokenResult struct {
	PlayerID  int64  `json:"player_id"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token"`
	ExpiresIn string `json:"expires_in"`
}

// KeyHash is a hashed admin key
type KeyHash struct {
	Hash string `json:"hash"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}

func (o *Output) printServerStatus(s ServerStatus) {
	fmt.Printf("Online: %d\n", s.Online)
	fmt.Printf("Lobby: %d\n", s.Lobby)
	fmt.Printf("Queue: %d\n", s.Queue)
	fmt.Printf("Rooms: %d\n", s.Rooms)
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%d)\n", p.Name, p.ID)
}

func (o *Output) printMatchList(l MatchList) {
	if len(l.Matches) == 0 {
		fmt.Printf("No matches for player %d\n", l.PlayerID)
		return
	}

	fmt.Printf("Matches for player %d (%d):\n", l.PlayerID, len(l.Matches))
	for _, m := range l.Matches {
		fmt.Printf("  %s  %-4s  %d vs %d  %d-%d  %s\n",
			m.Date.Local().Format("2006-01-02 15:04"),
			strings.ToUpper(m.Result),
			m.Player1ID, m.Player2ID,
			m.Player1Score, m.Player2Score,
			m.RoomID)
	}
}

func (o *Output) printRoom(r Room) {
	fmt.Printf("Room: %s\n", r.ID)
	fmt.Printf("State: %s\n", r.State)
	fmt.Printf("Created: %s\n", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Score: %d-%d\n", r.S1, r.S2)
	fmt.Printf("Players (%d):\n", len(r.Players))
	for i, p := range r.Players {
		fmt.Printf("  p%d: %s (%d)\n", i+1, p.Name, p.ID)
	}
}

func (o *Output) printRoomList(l RoomList) {
	if len(l.Rooms) == 0 {
		fmt.Println("No rooms")
		return
	}

	for _, r := range l.Rooms {
		names := make([]string, len(r.Players))
		for i, p := range r.Players {
			names[i] = p.Name
		}
		fmt.Printf("%s  %-6s  %d-%d  %s\n", r.ID, r.State, r.S1, r.S2, strings.Join(names, " vs "))
	}
}

func (o *Output) printTokenResult(t TokenResult) {
	if t.Name != "" {
		fmt.Printf("Player: %s (%d)\n", t.Name, t.PlayerID)
	} else {
		fmt.Printf("Player: %d\n", t.PlayerID)
	}
	fmt.Printf("Expires in: %s\n", t.ExpiresIn)
	fmt.Printf("Token: %s\n", t.Token)
}
