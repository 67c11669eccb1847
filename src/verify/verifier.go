package verify

import (
	"context"
	"strings"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/logger"
	"github.com/debate-arena/syncer/src/utils/model"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

const (
	ReasonNoContract       = "no contract"
	ReasonLedgerReadFailed = "ledger read failed"
)

// Result of one verification pass. Discrepancies are data, not errors,
// they are queued for the reconciler and never thrown at callers.
type Result struct {
	Verified      bool
	Reason        string
	Discrepancies []model.Discrepancy

	// Ledger state the comparison ran against, so the caller can repair
	// without a second read. Nil when the read never happened.
	Ledger *eth.DebateState
}

// Verifier diffs the cached row against ledger truth, field by field.
// Pure apart from the ledger read.
type Verifier struct {
	Log *logrus.Entry

	store  model.DebateStore
	reader eth.StateReader
}

func NewVerifier(conf *config.Config) (self *Verifier) {
	self = new(Verifier)
	self.Log = logger.NewSublogger("verifier")
	return
}

func (self *Verifier) WithStore(store model.DebateStore) *Verifier {
	self.store = store
	return self
}

func (self *Verifier) WithStateReader(reader eth.StateReader) *Verifier {
	self.reader = reader
	return self
}

func (self *Verifier) Verify(ctx context.Context, ledgerId string) (result *Result, err error) {
	debate, err := self.store.GetDebate(ctx, ledgerId)
	if err != nil {
		return nil, err
	}
	return self.VerifyDebate(ctx, debate), nil
}

// VerifyDebate compares an already loaded row, so a sweep that listed the
// rows does not load each one twice
func (self *Verifier) VerifyDebate(ctx context.Context, debate *model.Debate) (result *Result) {
	if debate.ContractAddress == "" {
		// Nothing to compare against
		return &Result{Verified: false, Reason: ReasonNoContract}
	}

	state, err := self.reader.ReadDebateState(ctx, debate.ContractAddress)
	if err != nil {
		self.Log.WithError(err).WithField("ledger_id", debate.LedgerId).Warn("Ledger read failed")
		return &Result{Verified: false, Reason: ReasonLedgerReadFailed}
	}

	discrepancies := self.compare(debate, state)
	return &Result{
		Verified:      len(discrepancies) == 0,
		Discrepancies: discrepancies,
		Ledger:        state,
	}
}

// Fixed comparison order keeps the output deterministic
func (self *Verifier) compare(debate *model.Debate, state *eth.DebateState) (discrepancies []model.Discrepancy) {
	if !addressesEqual(debate.CreatorId, state.Creator) {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "creator",
			Cached: debate.CreatorId,
			Ledger: state.Creator.Hex(),
		})
	}

	if !addressesEqual(debate.ChallengerId, state.Opponent) {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "opponent",
			Cached: debate.ChallengerId,
			Ledger: addressOrEmpty(state.Opponent),
		})
	}

	cachedStake, err := NormalizeStake(debate.StakeAmount)
	if err != nil || cachedStake.Cmp(state.Stake) != 0 {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "stake",
			Cached: debate.StakeAmount,
			Ledger: FormatStake(state.Stake),
		})
	}

	// Winner is only meaningful once the ledger set one
	if !isZeroAddress(state.Winner) && !addressesEqual(debate.WinnerId, state.Winner) {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "winner",
			Cached: debate.WinnerId,
			Ledger: state.Winner.Hex(),
		})
	}

	// Intermediate staleness is expected, only a terminal ledger state the
	// cache missed is worth reconciling
	if state.IsFinalized() && debate.Status != StatusForCode(state.StatusCode) {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "status",
			Cached: string(debate.Status),
			Ledger: string(StatusForCode(state.StatusCode)),
		})
	}

	// Ledger ahead of cache is normal pending-sync state, only a stale
	// cached claim is an error
	if debate.PrizeClaimed != nil && !state.PrizeClaimed {
		discrepancies = append(discrepancies, model.Discrepancy{
			Field:  "prizeClaimed",
			Cached: "true",
			Ledger: "false",
		})
	}

	return
}

// StatusForCode maps a ledger status code to the cache's vocabulary
func StatusForCode(code uint8) model.DebateStatus {
	switch code {
	case eth.StatusCodeCreated:
		return model.DebateStatusPending
	case eth.StatusCodeActive:
		return model.DebateStatusActive
	case eth.StatusCodeVoting:
		return model.DebateStatusVoting
	default:
		return model.DebateStatusCompleted
	}
}

func isZeroAddress(addr common.Address) bool {
	return addr == (common.Address{})
}

func addressOrEmpty(addr common.Address) string {
	if isZeroAddress(addr) {
		return ""
	}
	return addr.Hex()
}

func addressesEqual(cached string, ledger common.Address) bool {
	if isZeroAddress(ledger) {
		return cached == ""
	}
	return strings.EqualFold(cached, ledger.Hex())
}
