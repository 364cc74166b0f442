package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pong-realtime/internal/storage"
	"github.com/mcoot/pong-realtime/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	s := new(StorageSuite)
	s.NewStorage = func() storage.Storage { return New() }
	suite.Run(t, s)
}

func (s *StorageSuite) TestListMatchesReturnsCopies() {
	mem := s.Storage.(*Storage)
	rec := storagetest.Record(1, 3, 4, 2, 1)
	s.Require().NoError(mem.SaveMatch(s.Ctx, rec))

	matches, err := mem.ListMatches(s.Ctx, 3, 0)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	*matches[0].WinnerID = 99

	again, err := mem.ListMatches(s.Ctx, 3, 0)
	s.Require().NoError(err)
	s.Equal(rec.Player1ID, *again[0].WinnerID)
}
