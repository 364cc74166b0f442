// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pong-realtime/internal/model"
	"github.com/mcoot/pong-realtime/internal/storage"
)

// Suite runs the shared storage checks against the backend returned by NewStorage.
// Backends embed it and set NewStorage before suite.Run.
type Suite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

var baseDate = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Record builds the n-th match of a test run, n minutes after a fixed base date
func Record(n int, p1, p2 model.PlayerID, s1, s2 int) *model.MatchRecord {
	rec := model.NewMatchRecord(
		model.RoomID(fmt.Sprintf("room-%d", n)),
		model.MatchTypeOneVsOne,
		baseDate.Add(time.Duration(n)*time.Minute),
		p1, p2, s1, s2,
	)
	return &rec
}

// Match history tests

func (s *Suite) TestSaveAndListMatch() {
	rec := Record(1, 12, 5, 7, 3)
	s.Require().NoError(s.Storage.SaveMatch(s.Ctx, rec))

	for _, id := range []model.PlayerID{12, 5} {
		matches, err := s.Storage.ListMatches(s.Ctx, id, 10)
		s.Require().NoError(err)
		s.Require().Len(matches, 1)

		got := matches[0]
		s.Equal(rec.RoomID, got.RoomID)
		s.Equal(model.MatchTypeOneVsOne, got.Type)
		s.True(rec.Date.Equal(got.Date))
		s.Equal(model.PlayerID(12), got.Player1ID)
		s.Equal(model.PlayerID(5), got.Player2ID)
		s.Equal(7, got.Player1Score)
		s.Equal(3, got.Player2Score)
		s.Require().NotNil(got.WinnerID)
		s.Equal(model.PlayerID(12), *got.WinnerID)
	}
}

func (s *Suite) TestListMatchesForUnknownPlayerIsEmpty() {
	s.Require().NoError(s.Storage.SaveMatch(s.Ctx, Record(1, 1, 2, 1, 0)))

	matches, err := s.Storage.ListMatches(s.Ctx, 99, 10)
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *Suite) TestListMatchesNewestFirst() {
	for n := 1; n <= 3; n++ {
		s.Require().NoError(s.Storage.SaveMatch(s.Ctx, Record(n, 1, 2, n, 0)))
	}

	matches, err := s.Storage.ListMatches(s.Ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(matches, 3)
	s.Equal(model.RoomID("room-3"), matches[0].RoomID)
	s.Equal(model.RoomID("room-2"), matches[1].RoomID)
	s.Equal(model.RoomID("room-1"), matches[2].RoomID)
}

func (s *Suite) TestListMatchesRespectsLimit() {
	for n := 1; n <= 5; n++ {
		s.Require().NoError(s.Storage.SaveMatch(s.Ctx, Record(n, 1, 2, 0, n)))
	}

	matches, err := s.Storage.ListMatches(s.Ctx, 2, 2)
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal(model.RoomID("room-5"), matches[0].RoomID)
}

func (s *Suite) TestDrawHasNoWinner() {
	s.Require().NoError(s.Storage.SaveMatch(s.Ctx, Record(1, 1, 2, 4, 4)))

	matches, err := s.Storage.ListMatches(s.Ctx, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Nil(matches[0].WinnerID)
	s.True(matches[0].IsDraw())
}

// Report claim tests

func (s *Suite) TestClaimMatchReportOnlyOnce() {
	first, err := s.Storage.ClaimMatchReport(s.Ctx, "room-1", time.Hour)
	s.Require().NoError(err)
	s.True(first)

	second, err := s.Storage.ClaimMatchReport(s.Ctx, "room-1", time.Hour)
	s.Require().NoError(err)
	s.False(second)
}

func (s *Suite) TestClaimsAreIndependentPerRoom() {
	a, err := s.Storage.ClaimMatchReport(s.Ctx, "room-a", time.Hour)
	s.Require().NoError(err)
	b, err := s.Storage.ClaimMatchReport(s.Ctx, "room-b", time.Hour)
	s.Require().NoError(err)
	s.True(a)
	s.True(b)
}

// Display name tests

func (s *Suite) TestSaveAndGetDisplayName() {
	s.Require().NoError(s.Storage.SaveDisplayName(s.Ctx, 7, "Alice"))

	name, err := s.Storage.GetDisplayName(s.Ctx, 7)
	s.Require().NoError(err)
	s.Equal("Alice", name)
}

func (s *Suite) TestSaveDisplayNameOverwrites() {
	s.Require().NoError(s.Storage.SaveDisplayName(s.Ctx, 7, "Alice"))
	s.Require().NoError(s.Storage.SaveDisplayName(s.Ctx, 7, "Alicia"))

	name, err := s.Storage.GetDisplayName(s.Ctx, 7)
	s.Require().NoError(err)
	s.Equal("Alicia", name)
}

func (s *Suite) TestGetDisplayNameNotFound() {
	_, err := s.Storage.GetDisplayName(s.Ctx, 404)
	s.ErrorIs(err, model.ErrNameNotFound)
}
