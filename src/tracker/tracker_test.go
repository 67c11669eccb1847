package tracker

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeReceiptSource serves a single receipt and a movable chain head
type fakeReceiptSource struct {
	mtx     sync.Mutex
	receipt *types.Receipt
	head    uint64
}

func (self *fakeReceiptSource) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	if self.receipt == nil {
		return nil, ethereum.NotFound
	}
	return self.receipt, nil
}

func (self *fakeReceiptSource) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return &types.Header{Number: new(big.Int).SetUint64(self.head)}, nil
}

func (self *fakeReceiptSource) setReceipt(receipt *types.Receipt) {
	self.mtx.Lock()
	self.receipt = receipt
	self.mtx.Unlock()
}

func (self *fakeReceiptSource) setHead(head uint64) {
	self.mtx.Lock()
	self.head = head
	self.mtx.Unlock()
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

type TrackerTestSuite struct {
	suite.Suite

	config *config.Config
	source *fakeReceiptSource
}

func (s *TrackerTestSuite) SetupTest() {
	s.config = config.Default()
	s.config.Tracker.PollInterval = 5 * time.Millisecond
	s.config.Tracker.Timeout = time.Second
	s.config.Tracker.RequiredConfirmations = 2
	s.source = new(fakeReceiptSource)
}

func (s *TrackerTestSuite) newTracker() *Tracker {
	return NewTracker(s.config).WithReceiptSource(s.source)
}

func (s *TrackerTestSuite) TestWaitsForRequiredDepth() {
	hash := common.HexToHash("0x01")
	s.source.setReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(100),
		TxHash:      hash,
	})
	s.source.setHead(100)

	tracker := s.newTracker()

	done := make(chan *Result, 1)
	go func() {
		result, err := tracker.AwaitConfirmation(context.Background(), hash)
		s.NoError(err)
		done <- result
	}()

	// One confirmation is not enough, the session stays in Confirming
	session := tracker.Session(hash)
	require.Eventually(s.T(), func() bool {
		return session.State() == Confirming && session.Confirmations() == 1
	}, time.Second, time.Millisecond)

	select {
	case <-done:
		s.FailNow("confirmed below the required depth")
	case <-time.After(50 * time.Millisecond):
	}

	// Second block on top, depth reached
	s.source.setHead(101)

	select {
	case result := <-done:
		s.Equal(Success, result.State)
		s.Equal(uint64(100), result.BlockNumber)
		s.Equal(uint64(2), result.Confirmations)
	case <-time.After(time.Second):
		s.FailNow("never confirmed")
	}
	s.Equal(Success, session.State())
}

func (s *TrackerTestSuite) TestTimeoutIsTerminal() {
	s.config.Tracker.Timeout = 30 * time.Millisecond

	hash := common.HexToHash("0x02")
	// Receipt never appears

	tracker := s.newTracker()
	result, err := tracker.AwaitConfirmation(context.Background(), hash)
	s.ErrorIs(err, ErrTimeout)
	s.Require().NotNil(result)
	s.Equal(Error, result.State)
	s.Equal("confirmation timeout", result.Reason)
	s.Equal(uint64(0), result.Confirmations)
	s.Equal(Error, tracker.Session(hash).State())
}

func (s *TrackerTestSuite) TestRevertedTransaction() {
	hash := common.HexToHash("0x03")
	s.source.setReceipt(&types.Receipt{
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(7),
		TxHash:      hash,
	})
	s.source.setHead(7)

	tracker := s.newTracker()
	result, err := tracker.AwaitConfirmation(context.Background(), hash)
	s.ErrorIs(err, ErrReverted)
	s.Require().NotNil(result)
	s.Equal(Error, result.State)
	s.Equal("reverted on-chain", result.Reason)
}

func (s *TrackerTestSuite) TestConfirmedResultIsMemoized() {
	hash := common.HexToHash("0x04")
	s.source.setReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(50),
		TxHash:      hash,
	})
	s.source.setHead(51)

	tracker := s.newTracker()
	first, err := tracker.AwaitConfirmation(context.Background(), hash)
	s.NoError(err)

	// The source going away must not matter anymore
	s.source.setReceipt(nil)

	second, err := tracker.AwaitConfirmation(context.Background(), hash)
	s.NoError(err)
	s.Same(first, second)
}

func (s *TrackerTestSuite) TestCallerCancellation() {
	hash := common.HexToHash("0x05")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tracker := s.newTracker()
	_, err := tracker.AwaitConfirmation(ctx, hash)
	s.ErrorIs(err, context.Canceled)
}
