package factory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/pong-realtime/internal/dependencies/mocks"
	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/profile"
	"github.com/mcoot/pong-realtime/internal/services/auth"
	"github.com/mcoot/pong-realtime/internal/storage/memory"
)

// TestSecret signs tokens in test apps
const TestSecret = "test-secret"

// TestAdminKey is the operator key accepted by test apps
const TestAdminKey = "test-admin-key"

// FakeProfile is an in-memory profile service that records match writes
type FakeProfile struct {
	mu      sync.Mutex
	names   map[model.PlayerID]string
	friends map[string][]model.PlayerID
	matches []RecordedMatch
	err     error
}

// RecordedMatch is one CreateMatch call
type RecordedMatch struct {
	Token string
	Data  profile.MatchData
}

var _ profile.Service = (*FakeProfile)(nil)

// NewFakeProfile creates an empty FakeProfile
func NewFakeProfile() *FakeProfile {
	return &FakeProfile{
		names:   make(map[model.PlayerID]string),
		friends: make(map[string][]model.PlayerID),
	}
}

func (f *FakeProfile) PublicProfile(_ context.Context, id model.PlayerID) (*profile.PublicProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	name, ok := f.names[id]
	if !ok {
		return nil, &profile.StatusError{StatusCode: 404, Body: "not found"}
	}
	return &profile.PublicProfile{AuthUserID: id, Name: name}, nil
}

func (f *FakeProfile) Friends(_ context.Context, token string) ([]model.PlayerID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.PlayerID(nil), f.friends[token]...), nil
}

func (f *FakeProfile) CreateMatch(_ context.Context, token string, data profile.MatchData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.matches = append(f.matches, RecordedMatch{Token: token, Data: data})
	return nil
}

// SetName makes a display name resolvable
func (f *FakeProfile) SetName(id model.PlayerID, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names[id] = name
}

// SetFriends sets the friend list returned for token
func (f *FakeProfile) SetFriends(token string, ids ...model.PlayerID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.friends[token] = ids
}

// Fail makes every call return err; nil restores normal behavior
func (f *FakeProfile) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Matches returns every recorded match write
func (f *FakeProfile) Matches() []RecordedMatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedMatch(nil), f.matches...)
}

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockScheduler *mocks.ManualScheduler
	FakeProfile   *FakeProfile
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockScheduler := mocks.NewManualScheduler()
	fakeProfile := NewFakeProfile()

	adminKeyHash, err := auth.HashAdminKey(TestAdminKey)
	if err != nil {
		panic(err)
	}
	cfg := Config{
		AuthConfig:   auth.Config{Secret: TestSecret},
		AdminKeyHash: adminKeyHash,
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app, err := newWithDependencies(store, mockClock, mockRandom, mockScheduler, fakeProfile, cfg, logger)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockScheduler: mockScheduler,
		FakeProfile:   fakeProfile,
	}
}

// Token issues a signed token for the identity
func (t *TestApp) Token(id model.PlayerID, name string) string {
	token, err := t.AuthService.Issue(model.Identity{ID: id, DisplayName: name}, time.Hour)
	if err != nil {
		panic(err)
	}
	return token
}
