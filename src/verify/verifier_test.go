package verify

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type fakeStateReader struct {
	states map[string]*eth.DebateState
	errs   map[string]error
	reads  int
}

func newFakeStateReader() *fakeStateReader {
	return &fakeStateReader{
		states: make(map[string]*eth.DebateState),
		errs:   make(map[string]error),
	}
}

func (self *fakeStateReader) ReadDebateState(ctx context.Context, contractAddress string) (*eth.DebateState, error) {
	self.reads++
	if err, ok := self.errs[contractAddress]; ok {
		return nil, err
	}
	state, ok := self.states[contractAddress]
	if !ok {
		return nil, eth.ErrLedgerRead
	}
	return state, nil
}

func TestVerifierSuite(t *testing.T) {
	suite.Run(t, new(VerifierTestSuite))
}

type VerifierTestSuite struct {
	suite.Suite

	store    *model.MemoryStore
	reader   *fakeStateReader
	verifier *Verifier
}

const (
	contractAddr = "0x00000000000000000000000000000000000000cc"
	creatorAddr  = "0x1111111111111111111111111111111111111111"
	opponentAddr = "0x2222222222222222222222222222222222222222"
)

func (s *VerifierTestSuite) SetupTest() {
	s.store = model.NewMemoryStore()
	s.reader = newFakeStateReader()
	s.verifier = NewVerifier(config.Default()).
		WithStore(s.store).
		WithStateReader(s.reader)
}

func (s *VerifierTestSuite) seedDebate(debate *model.Debate) {
	s.Require().NoError(s.store.InsertDebate(context.Background(), debate))
}

func matchingState() *eth.DebateState {
	stake, _ := NormalizeStake("5")
	return &eth.DebateState{
		Creator:    common.HexToAddress(creatorAddr),
		Opponent:   common.HexToAddress(opponentAddr),
		Stake:      stake,
		StatusCode: eth.StatusCodeActive,
	}
}

func matchingDebate() *model.Debate {
	return &model.Debate{
		LedgerId:        "1",
		Topic:           "Is water wet",
		Status:          model.DebateStatusActive,
		StakeAmount:     "5",
		CreatorId:       creatorAddr,
		ChallengerId:    opponentAddr,
		ContractAddress: contractAddr,
	}
}

func (s *VerifierTestSuite) TestCleanRow() {
	s.seedDebate(matchingDebate())
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
	s.Empty(result.Discrepancies)
	s.NotNil(result.Ledger)
}

func (s *VerifierTestSuite) TestNoContract() {
	debate := matchingDebate()
	debate.ContractAddress = ""
	s.seedDebate(debate)

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)
	s.Equal(ReasonNoContract, result.Reason)
	s.Empty(result.Discrepancies)
}

func (s *VerifierTestSuite) TestLedgerReadFailure() {
	s.seedDebate(matchingDebate())
	s.reader.errs[contractAddr] = errors.New("rpc timeout")

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)
	s.Equal(ReasonLedgerReadFailed, result.Reason)
}

func (s *VerifierTestSuite) TestAddressCompareIsCaseInsensitive() {
	debate := matchingDebate()
	debate.CreatorId = "0X1111111111111111111111111111111111111111"
	s.seedDebate(debate)
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
}

func (s *VerifierTestSuite) TestCreatorMismatch() {
	debate := matchingDebate()
	debate.CreatorId = "0x9999999999999999999999999999999999999999"
	s.seedDebate(debate)
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)
	s.Require().Len(result.Discrepancies, 1)
	s.Equal("creator", result.Discrepancies[0].Field)
	s.Equal(common.HexToAddress(creatorAddr).Hex(), result.Discrepancies[0].Ledger)
}

func (s *VerifierTestSuite) TestStakeNormalization() {
	debate := matchingDebate()
	debate.StakeAmount = "5.000000"
	s.seedDebate(debate)
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
}

func (s *VerifierTestSuite) TestStakeMismatch() {
	debate := matchingDebate()
	debate.StakeAmount = "5.25"
	s.seedDebate(debate)
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)
	s.Require().Len(result.Discrepancies, 1)
	s.Equal("stake", result.Discrepancies[0].Field)
	s.Equal("5", result.Discrepancies[0].Ledger)
}

func (s *VerifierTestSuite) TestZeroWinnerIsNotCompared() {
	debate := matchingDebate()
	debate.WinnerId = creatorAddr
	s.seedDebate(debate)
	// Ledger winner still zero
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
}

func (s *VerifierTestSuite) TestIntermediateStalenessIsNotFlagged() {
	debate := matchingDebate()
	debate.Status = model.DebateStatusPending
	s.seedDebate(debate)
	// Ledger already active, cache merely behind
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
}

func (s *VerifierTestSuite) TestMissedFinalizationIsFlagged() {
	s.seedDebate(matchingDebate())
	state := matchingState()
	state.StatusCode = eth.StatusCodeFinalized
	state.Winner = common.HexToAddress(creatorAddr)
	s.reader.states[contractAddr] = state

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)

	fields := make([]string, 0, len(result.Discrepancies))
	for _, d := range result.Discrepancies {
		fields = append(fields, d.Field)
	}
	s.Equal([]string{"winner", "status"}, fields)
}

func (s *VerifierTestSuite) TestStaleCachedClaimIsFlagged() {
	debate := matchingDebate()
	now := time.Now()
	debate.PrizeClaimed = &now
	s.seedDebate(debate)
	s.reader.states[contractAddr] = matchingState()

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.False(result.Verified)
	s.Require().Len(result.Discrepancies, 1)
	s.Equal("prizeClaimed", result.Discrepancies[0].Field)
}

func (s *VerifierTestSuite) TestLedgerAheadOnClaimIsNormal() {
	s.seedDebate(matchingDebate())
	state := matchingState()
	state.PrizeClaimed = true
	s.reader.states[contractAddr] = state

	result, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.True(result.Verified)
}

func (s *VerifierTestSuite) TestDeterminism() {
	debate := matchingDebate()
	debate.CreatorId = "0x9999999999999999999999999999999999999999"
	debate.StakeAmount = "4"
	s.seedDebate(debate)
	state := matchingState()
	state.StatusCode = eth.StatusCodeFinalized
	state.Winner = common.HexToAddress(opponentAddr)
	s.reader.states[contractAddr] = state

	first, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	second, err := s.verifier.Verify(context.Background(), "1")
	s.NoError(err)
	s.Equal(first.Discrepancies, second.Discrepancies)
	s.Equal(first.Verified, second.Verified)
}

func TestNormalizeStake(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out int64
	}{
		{"0", 0},
		{"5", 5000000},
		{"5.25", 5250000},
		{"0.000001", 1},
		{".5", 500000},
		{"12.340000", 12340000},
	} {
		got, err := NormalizeStake(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, big.NewInt(tc.out), got, tc.in)
	}

	for _, in := range []string{"", "abc", "1.2345678", "-3"} {
		_, err := NormalizeStake(in)
		assert.Error(t, err, in)
	}
}

func TestFormatStake(t *testing.T) {
	assert.Equal(t, "5", FormatStake(big.NewInt(5000000)))
	assert.Equal(t, "5.25", FormatStake(big.NewInt(5250000)))
	assert.Equal(t, "0.000001", FormatStake(big.NewInt(1)))
	assert.Equal(t, "0", FormatStake(big.NewInt(0)))
}
