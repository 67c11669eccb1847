package sync

import (
	"context"
	"testing"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/model"

	"github.com/stretchr/testify/suite"
)

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

type StoreTestSuite struct {
	suite.Suite

	config *config.Config
	db     *model.MemoryStore
}

func (s *StoreTestSuite) SetupTest() {
	s.config = config.Default()
	s.db = model.NewMemoryStore()
}

// The producer closing the input channel is what shuts the store down,
// a pending batch is flushed on the way out
func (s *StoreTestSuite) TestInputCloseFlushesAndExits() {
	input := make(chan uint64, 8)
	store := NewStore(s.config).
		WithDebateStore(s.db).
		WithInputChannel(input)
	s.Require().NoError(store.Start())

	input <- 40
	input <- 42
	input <- 41
	close(input)

	select {
	case <-store.CtxRunning.Done():
	case <-time.After(2 * time.Second):
		s.FailNow("store did not exit after input close")
	}

	state, err := s.db.GetSyncState(context.Background(), model.SyncedComponentListener)
	s.Require().NoError(err)
	s.Equal(uint64(42), state.LastSeenBlock)
}
