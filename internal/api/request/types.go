package request

import (
	"errors"
	"net/http"
	"strconv"
)

// MaxHistoryLimit caps the limit query parameter of history reads
const MaxHistoryLimit = 100

// ErrInvalidLimit is returned for a limit that is not a positive integer
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Limit parses the optional limit query parameter. A missing value yields
// def; larger values are clamped to MaxHistoryLimit.
func Limit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, ErrInvalidLimit
	}
	return min(n, MaxHistoryLimit), nil
}
