package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pong-realtime/internal/storage"
	"github.com/mcoot/pong-realtime/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage {
		store, err := New(filepath.Join(s.T().TempDir(), "pong.db"))
		require.NoError(s.T(), err)
		return store
	}
	suite.Run(t, s)
}

func (s *StorageSuite) TestExpiredClaimCanBeRetaken() {
	ok, err := s.Storage.ClaimMatchReport(s.Ctx, "room-x", time.Nanosecond)
	s.Require().NoError(err)
	s.True(ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = s.Storage.ClaimMatchReport(s.Ctx, "room-x", time.Hour)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *StorageSuite) TestClaimWithoutTTLNeverExpires() {
	ok, err := s.Storage.ClaimMatchReport(s.Ctx, "room-y", 0)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.Storage.ClaimMatchReport(s.Ctx, "room-y", 0)
	s.Require().NoError(err)
	s.False(ok)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pong.db")

	store, err := New(path)
	require.NoError(t, err)
	rec := storagetest.Record(1, 4, 9, 2, 5)
	require.NoError(t, store.SaveMatch(t.Context(), rec))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	matches, err := store.ListMatches(t.Context(), 9, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, rec.RoomID, matches[0].RoomID)
}
