package claim

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

type fakeStateReader struct {
	state *eth.DebateState
	err   error
}

func (self *fakeStateReader) ReadDebateState(ctx context.Context, contractAddress string) (*eth.DebateState, error) {
	if self.err != nil {
		return nil, self.err
	}
	return self.state, nil
}

func TestGateSuite(t *testing.T) {
	suite.Run(t, new(GateTestSuite))
}

type GateTestSuite struct {
	suite.Suite

	reader *fakeStateReader
	gate   *Gate
}

const (
	winnerAddr   = "0xAAA0000000000000000000000000000000000aaa"
	claimantAddr = "0xBBB0000000000000000000000000000000000bbb"
	contractAddr = "0x00000000000000000000000000000000000000cc"
)

func (s *GateTestSuite) SetupTest() {
	s.reader = new(fakeStateReader)
	s.gate = NewGate(config.Default()).WithStateReader(s.reader)
}

func finalizedState(winner string) *eth.DebateState {
	return &eth.DebateState{
		Winner:      common.HexToAddress(winner),
		StatusCode:  eth.StatusCodeFinalized,
		PrizeAmount: big.NewInt(10000000),
	}
}

func (s *GateTestSuite) TestWinnerMayClaim() {
	s.reader.state = finalizedState(winnerAddr)

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, winnerAddr)
	s.Require().NoError(err)
	s.True(eligibility.Eligible)
	s.Equal("10", eligibility.PrizeAmount)
	s.Equal(common.HexToAddress(winnerAddr).Hex(), eligibility.LedgerWinner)
}

func (s *GateTestSuite) TestWinnerCompareIsCaseInsensitive() {
	s.reader.state = finalizedState(winnerAddr)

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, "0xaaa0000000000000000000000000000000000AAA")
	s.Require().NoError(err)
	s.True(eligibility.Eligible)
}

func (s *GateTestSuite) TestNotFinalized() {
	state := finalizedState(winnerAddr)
	state.StatusCode = eth.StatusCodeVoting
	s.reader.state = state

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, winnerAddr)
	s.Require().NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(ReasonNotFinalized, eligibility.Reason)
}

func (s *GateTestSuite) TestNonWinnerNeverEligible() {
	s.reader.state = finalizedState(winnerAddr)

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, claimantAddr)
	s.Require().NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(ReasonNotWinner, eligibility.Reason)
	s.Empty(eligibility.PrizeAmount)
}

func (s *GateTestSuite) TestDoubleClaimRejectedEvenForWinner() {
	state := finalizedState(winnerAddr)
	state.PrizeClaimed = true
	s.reader.state = state

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, winnerAddr)
	s.Require().NoError(err)
	s.False(eligibility.Eligible)
	s.Equal(ReasonAlreadyClaimed, eligibility.Reason)
	s.True(eligibility.AlreadyClaimed)
}

func (s *GateTestSuite) TestLedgerReadFailure() {
	s.reader.err = errors.New("rpc timeout")

	eligibility, err := s.gate.CheckEligibility(context.Background(), contractAddr, winnerAddr)
	s.Error(err)
	s.Nil(eligibility)
}
