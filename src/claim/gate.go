package claim

import (
	"context"
	"strings"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/logger"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/sirupsen/logrus"
)

const (
	ReasonNotFinalized   = "debate not yet finalized on-chain"
	ReasonAlreadyClaimed = "already claimed"
	ReasonNotWinner      = "not the on-chain winner"
)

type Eligibility struct {
	Eligible       bool   `json:"eligible"`
	Reason         string `json:"reason,omitempty"`
	LedgerWinner   string `json:"ledgerWinner,omitempty"`
	PrizeAmount    string `json:"prizeAmount,omitempty"`
	AlreadyClaimed bool   `json:"alreadyClaimed,omitempty"`
}

// Gate re-derives claim eligibility from a fresh ledger read immediately
// before a claim is allowed. The cache is never consulted here, and a
// passing gate is still not the enforcement boundary - the escrow
// contract is.
type Gate struct {
	Log *logrus.Entry

	reader eth.StateReader
}

func NewGate(conf *config.Config) (self *Gate) {
	self = new(Gate)
	self.Log = logger.NewSublogger("claim-gate")
	return
}

func (self *Gate) WithStateReader(reader eth.StateReader) *Gate {
	self.reader = reader
	return self
}

// CheckEligibility short-circuits in strict order: finalized, then not
// yet claimed, then claimant is the winner. The prize amount always comes
// from the ledger read, never from the cache.
func (self *Gate) CheckEligibility(ctx context.Context, contractAddress, claimant string) (eligibility *Eligibility, err error) {
	state, err := self.reader.ReadDebateState(ctx, contractAddress)
	if err != nil {
		self.Log.WithError(err).WithField("contract", contractAddress).Warn("Ledger read failed")
		return nil, err
	}

	eligibility = &Eligibility{
		LedgerWinner: state.Winner.Hex(),
	}

	if !state.IsFinalized() {
		eligibility.Reason = ReasonNotFinalized
		return
	}

	if state.PrizeClaimed {
		eligibility.Reason = ReasonAlreadyClaimed
		eligibility.AlreadyClaimed = true
		return
	}

	if !strings.EqualFold(claimant, state.Winner.Hex()) {
		eligibility.Reason = ReasonNotWinner
		return
	}

	eligibility.Eligible = true
	eligibility.PrizeAmount = verify.FormatStake(state.PrizeAmount)
	return
}
