package mocks

import (
	"sync"

	"github.com/mcoot/pong-realtime/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
// Each queue returns its zero value once drained.
type MockRandom struct {
	mu sync.Mutex

	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// CoinResults is a queue of results to return from Coin
	CoinResults []bool
	coinIndex   int

	// StringResults is a queue of results to return from String
	StringResults []string
	stringIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Coin returns the next queued result, or false if none remaining
func (r *MockRandom) Coin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.coinIndex >= len(r.CoinResults) {
		return false
	}
	result := r.CoinResults[r.coinIndex]
	r.coinIndex++
	return result
}

// String returns the next queued result, or empty string if none remaining
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueCoin adds values to the Coin result queue
func (r *MockRandom) QueueCoin(values ...bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CoinResults = append(r.CoinResults, values...)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.StringResults = append(r.StringResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.IntnResults = nil
	r.intnIndex = 0
	r.CoinResults = nil
	r.coinIndex = 0
	r.StringResults = nil
	r.stringIndex = 0
}
