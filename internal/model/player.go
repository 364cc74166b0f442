package model

import (
	"fmt"
	"math"
	"strconv"
)

// PlayerID is the numeric identity issued by the auth service
type PlayerID int64

// String returns the decimal form used in room ids and storage keys
func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// maxExactID is the largest integer a float64 holds exactly
const maxExactID = 1 << 53

// ParsePlayerID parses a positive player id. Integral numbers written in float
// form, such as "5.0" or "5e0", are accepted.
func ParsePlayerID(s string) (PlayerID, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidPlayerID, s)
		}
		return PlayerID(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f != math.Trunc(f) || f <= 0 || f > maxExactID {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPlayerID, s)
	}
	return PlayerID(f), nil
}

// Identity is the verified player bound to a connection
// Fixed for the lifetime of the connection, except DisplayName which may be
// hydrated later from the profile service when the token did not carry one.
type Identity struct {
	ID          PlayerID
	DisplayName string
	Token       string // raw bearer token, used for calls made on the player's behalf
}

// Name returns the display name, or a generated fallback when none is known
func (i Identity) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return "Player " + i.ID.String()
}
