package model

// RoomID identifies a game room
// Format: room-{lowId}-{highId}-{base36 millis}-{6 base36 chars}
type RoomID string

// Side names a room slot in outbound messages
type Side string

const (
	SideP1   Side = "p1" // slot 0, left paddle
	SideP2   Side = "p2" // slot 1, right paddle
	SideDraw Side = "draw"
)

// SideForSlot maps a room slot index to its side name
func SideForSlot(slot int) Side {
	if slot == 0 {
		return SideP1
	}
	return SideP2
}
