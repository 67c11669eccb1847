package sync

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/logger"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/sirupsen/logrus"
)

// Applier owns the four idempotent ingestion handlers, keyed by ledger id.
// Ledger-origin fields are last-write-wins, descriptive metadata is never
// touched by a ledger-triggered write. Re-applying an identical payload
// changes nothing.
type Applier struct {
	Log *logrus.Entry

	store   model.DebateStore
	monitor *monitoring.Monitor
}

func NewApplier(conf *config.Config) (self *Applier) {
	self = new(Applier)
	self.Log = logger.NewSublogger("applier")
	return
}

func (self *Applier) WithStore(store model.DebateStore) *Applier {
	self.store = store
	return self
}

func (self *Applier) WithMonitor(monitor *monitoring.Monitor) *Applier {
	self.monitor = monitor
	return self
}

// ApplyCreated updates blockchain-origin fields of an existing row, or
// inserts a placeholder row when the event arrived before the user-driven
// creation call. Whichever writer arrives first wins the insert, the other
// becomes an update.
func (self *Applier) ApplyCreated(ctx context.Context, event *CreatedEvent) (err error) {
	stake, err := decimalStake(event.Stake)
	if err != nil {
		return self.failed(err)
	}

	fields := map[string]interface{}{
		"contract_address": event.ContractAddress,
		"transaction_hash": event.TransactionHash,
		"block_number":     event.BlockNumber,
		"chain_id":         event.ChainId,
		"creator_id":       event.Creator,
		"stake_amount":     stake,
	}
	self.stamp(fields, &event.Event)

	debate, err := self.store.GetDebate(ctx, event.DebateId)
	if errors.Is(err, model.ErrNotFound) {
		now := eventTime(&event.Event)
		insertErr := self.store.InsertDebate(ctx, &model.Debate{
			LedgerId:        event.DebateId,
			Topic:           model.PlaceholderTopic,
			MetadataPending: true,
			Status:          model.DebateStatusPending,
			StakeAmount:     stake,
			CreatorId:       event.Creator,
			ContractAddress: event.ContractAddress,
			TransactionHash: event.TransactionHash,
			BlockNumber:     event.BlockNumber,
			ChainId:         event.ChainId,
			SyncStatus:      model.SyncStatusConfirmed,
			LastSyncedAt:    &now,
			LastSyncedBlock: event.BlockNumber,
		})
		if insertErr == nil {
			if self.monitor != nil {
				self.monitor.GetReport().Syncer.State.DebatesInserted.Inc()
			}
			self.Log.WithField("ledger_id", event.DebateId).Info("Inserted ledger-first debate")
			return nil
		}
		if !errors.Is(insertErr, model.ErrAlreadyExists) {
			return self.failed(insertErr)
		}
		// Lost the insert race, the other writer's row gets updated below
		debate, err = self.store.GetDebate(ctx, event.DebateId)
	}
	if err != nil {
		return self.failed(err)
	}

	return self.update(ctx, debate, fields)
}

// ApplyJoined records the challenger and advances a pending debate to
// active
func (self *Applier) ApplyJoined(ctx context.Context, event *JoinedEvent) (err error) {
	debate, err := self.store.GetDebate(ctx, event.DebateId)
	if err != nil {
		return self.failed(err)
	}

	fields := map[string]interface{}{
		"challenger_id": event.Opponent,
	}
	if debate.Status == model.DebateStatusPending {
		fields["status"] = model.DebateStatusActive
	}
	self.stamp(fields, &event.Event)

	return self.update(ctx, debate, fields)
}

// ApplyFinalized only updates the on-chain shadow fields. Business
// status/winner are written by the explicit finalize flow after its own
// ledger-finalized check.
func (self *Applier) ApplyFinalized(ctx context.Context, event *FinalizedEvent) (err error) {
	debate, err := self.store.GetDebate(ctx, event.DebateId)
	if err != nil {
		return self.failed(err)
	}

	fields := map[string]interface{}{
		"on_chain_winner": event.Winner,
		"on_chain_status": string(model.DebateStatusCompleted),
	}
	self.stamp(fields, &event.Event)

	return self.update(ctx, debate, fields)
}

// ApplyClaimed records claim metadata for display. It gates nothing, the
// escrow contract is the only enforcement boundary.
func (self *Applier) ApplyClaimed(ctx context.Context, event *ClaimedEvent) (err error) {
	debate, err := self.store.GetDebate(ctx, event.DebateId)
	if err != nil {
		return self.failed(err)
	}

	amount, err := decimalStake(event.Amount)
	if err != nil {
		return self.failed(err)
	}

	fields := map[string]interface{}{
		"prize_claimed":       eventTime(&event.Event),
		"prize_claim_tx_hash": event.TransactionHash,
		"prize_claim_amount":  amount,
	}
	self.stamp(fields, &event.Event)

	return self.update(ctx, debate, fields)
}

func (self *Applier) stamp(fields map[string]interface{}, event *Event) {
	fields["sync_status"] = model.SyncStatusConfirmed
	fields["last_synced_at"] = eventTime(event)
	fields["last_synced_block"] = event.BlockNumber
}

// update drops values the row already carries and writes the rest in one
// atomic update. An identical payload ends up writing nothing.
func (self *Applier) update(ctx context.Context, debate *model.Debate, fields map[string]interface{}) (err error) {
	for column, value := range fields {
		if unchanged(debate, column, value) {
			delete(fields, column)
		}
	}
	if len(fields) == 0 {
		return nil
	}

	err = self.store.UpdateFields(ctx, debate.LedgerId, fields)
	if err != nil {
		return self.failed(err)
	}
	if self.monitor != nil {
		self.monitor.GetReport().Syncer.State.DebatesUpdated.Inc()
	}
	return nil
}

func (self *Applier) failed(err error) error {
	if self.monitor != nil {
		self.monitor.GetReport().Syncer.Errors.ApplyFailures.Inc()
	}
	return err
}

func unchanged(debate *model.Debate, column string, value interface{}) bool {
	switch column {
	case "contract_address":
		return debate.ContractAddress == value.(string)
	case "transaction_hash":
		return debate.TransactionHash == value.(string)
	case "block_number":
		return debate.BlockNumber == value.(uint64)
	case "chain_id":
		return debate.ChainId == value.(int64)
	case "creator_id":
		return debate.CreatorId == value.(string)
	case "challenger_id":
		return debate.ChallengerId == value.(string)
	case "stake_amount":
		return debate.StakeAmount == value.(string)
	case "status":
		return debate.Status == value.(model.DebateStatus)
	case "on_chain_winner":
		return debate.OnChainWinner == value.(string)
	case "on_chain_status":
		return debate.OnChainStatus == value.(string)
	case "sync_status":
		return debate.SyncStatus == value.(model.SyncStatus)
	case "last_synced_at":
		return debate.LastSyncedAt != nil && debate.LastSyncedAt.Equal(value.(time.Time))
	case "last_synced_block":
		return debate.LastSyncedBlock == value.(uint64)
	case "prize_claimed":
		return debate.PrizeClaimed != nil && debate.PrizeClaimed.Equal(value.(time.Time))
	case "prize_claim_tx_hash":
		return debate.PrizeClaimTxHash == value.(string)
	case "prize_claim_amount":
		return debate.PrizeClaimAmount == value.(string)
	}
	return false
}

func eventTime(event *Event) time.Time {
	if event.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return event.Timestamp.UTC()
}

// Events carry the ledger's fixed point integer, the cache stores a
// decimal string in base-currency units
func decimalStake(value string) (string, error) {
	fixed, ok := new(big.Int).SetString(value, 10)
	if !ok || fixed.Sign() < 0 {
		return "", fmt.Errorf("malformed ledger amount %s", value)
	}
	return verify.FormatStake(fixed), nil
}
