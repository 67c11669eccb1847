package reconcile

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/utils/task"
	"github.com/debate-arena/syncer/src/verify"

	"github.com/rs/xid"
	"go.uber.org/ratelimit"
)

// Rows with something on-chain to diverge from. Pending debates have no
// escrow yet and are excluded.
var sweptStatuses = []model.DebateStatus{
	model.DebateStatusActive,
	model.DebateStatusVoting,
	model.DebateStatusCompleted,
}

// Reconciler periodically sweeps all ledger-backed debates and repairs
// cache rows that diverged from ledger truth. One sweep runs immediately
// on start, then every Interval. Sweeps are single-flight per process and
// strictly sequential inside, ledger reads are spaced out by the limiter.
type Reconciler struct {
	*task.Task

	store    model.DebateStore
	verifier *verify.Verifier
	monitor  *monitoring.Monitor
	limiter  ratelimit.Limiter

	sweeping atomic.Bool

	// Sweep summaries, drained by the redis publisher when enabled
	summaries chan SweepSummary
}

func NewReconciler(config *config.Config) (self *Reconciler) {
	self = new(Reconciler)
	self.limiter = ratelimit.New(config.Reconciler.ReadsPerSecond)

	self.Task = task.NewTask(config, "reconciler").
		WithPeriodicSubtaskFunc(config.Reconciler.Interval, self.sweep).
		WithOnAfterStop(func() {
			// Closing the summary channel lets the publisher drain and exit
			if self.summaries != nil {
				close(self.summaries)
			}
		})

	return
}

func (self *Reconciler) WithStore(store model.DebateStore) *Reconciler {
	self.store = store
	return self
}

func (self *Reconciler) WithVerifier(verifier *verify.Verifier) *Reconciler {
	self.verifier = verifier
	return self
}

func (self *Reconciler) WithMonitor(monitor *monitoring.Monitor) *Reconciler {
	self.monitor = monitor
	return self
}

func (self *Reconciler) WithSummaryChannel(v chan SweepSummary) *Reconciler {
	self.summaries = v
	return self
}

// Sweep runs one pass and reports what happened. Exported for the manual
// trigger in tests, the periodic subtask is the production entrypoint.
func (self *Reconciler) Sweep() (summary *SweepSummary, err error) {
	if !self.sweeping.CompareAndSwap(false, true) {
		self.Log.Info("Sweep already in progress, skipping")
		return nil, nil
	}
	defer self.sweeping.Store(false)

	start := time.Now()
	debates, err := self.store.ListLedgerBacked(self.Ctx, sweptStatuses)
	if err != nil {
		self.Log.WithError(err).Error("Failed to list debates for sweep")
		if self.monitor != nil {
			self.monitor.GetReport().Reconciler.Errors.SweepFailures.Inc()
		}
		return nil, err
	}

	summary = &SweepSummary{StartedAt: start.UTC()}
	for _, debate := range debates {
		select {
		case <-self.StopChannel:
			self.Log.Info("Stopping mid-sweep")
			return summary, nil
		default:
		}

		self.limiter.Take()
		summary.Checked++

		repaired, itemErr := self.reconcile(debate)
		if itemErr != nil {
			// One bad item never aborts the rest of the sweep
			self.Log.WithError(itemErr).WithField("ledger_id", debate.LedgerId).Error("Failed to reconcile debate")
			summary.Failures = append(summary.Failures, ItemFailure{LedgerId: debate.LedgerId, Error: itemErr.Error()})
			if self.monitor != nil {
				self.monitor.GetReport().Reconciler.Errors.ItemFailures.Inc()
			}
			continue
		}
		if repaired {
			summary.Repaired++
		}
	}
	summary.Duration = time.Since(start)

	if self.monitor != nil {
		report := self.monitor.GetReport()
		report.Reconciler.State.Sweeps.Inc()
		report.Reconciler.State.DebatesChecked.Add(int64(summary.Checked))
		report.Reconciler.State.DebatesRepaired.Add(int64(summary.Repaired))
	}

	self.Log.
		WithField("checked", summary.Checked).
		WithField("repaired", summary.Repaired).
		WithField("failed", len(summary.Failures)).
		WithField("duration", summary.Duration).
		Info("Sweep finished")
	return summary, nil
}

func (self *Reconciler) sweep() (err error) {
	summary, err := self.Sweep()
	if err != nil {
		// The next interval gets another chance, the task stays up
		return nil
	}
	if summary == nil || self.summaries == nil {
		return nil
	}

	select {
	case self.summaries <- *summary:
	default:
		self.Log.Warn("Summary channel full, dropping sweep summary")
	}
	return nil
}

func (self *Reconciler) reconcile(debate *model.Debate) (repaired bool, err error) {
	result := self.verifier.VerifyDebate(self.Ctx, debate)
	if result.Reason == verify.ReasonLedgerReadFailed {
		// Best effort, the row just keeps its old stamp on failure
		_ = self.store.UpdateFields(self.Ctx, debate.LedgerId, map[string]interface{}{
			"sync_status": model.SyncStatusFailed,
		})
		return false, fmt.Errorf("ledger read failed for %s", debate.ContractAddress)
	}
	if result.Verified {
		return false, nil
	}

	fields, changed := repairFields(result.Discrepancies)
	now := time.Now().UTC()
	fields["sync_status"] = model.SyncStatusConfirmed
	fields["last_synced_at"] = now

	entry := model.SyncError{
		Id:            xid.New().String(),
		Timestamp:     now,
		Type:          "reconciliation",
		Message:       fmt.Sprintf("repaired %s from ledger", strings.Join(changed, ", ")),
		Discrepancies: result.Discrepancies,
	}

	err = self.store.UpdateFieldsWithAudit(self.Ctx, debate.LedgerId, fields, entry)
	if err != nil {
		return false, err
	}

	self.Log.
		WithField("ledger_id", debate.LedgerId).
		WithField("fields", changed).
		Info("Repaired debate from ledger")
	return true, nil
}

// The fixed field-to-column table. Every ledger value wins, a false
// ledger claim flag clears the stale cached claim.
func repairFields(discrepancies []model.Discrepancy) (fields map[string]interface{}, changed []string) {
	fields = make(map[string]interface{})
	for _, discrepancy := range discrepancies {
		changed = append(changed, discrepancy.Field)
		switch discrepancy.Field {
		case "creator":
			fields["creator_id"] = discrepancy.Ledger
		case "opponent":
			fields["challenger_id"] = discrepancy.Ledger
		case "stake":
			fields["stake_amount"] = discrepancy.Ledger
		case "winner":
			fields["winner_id"] = discrepancy.Ledger
			fields["on_chain_winner"] = discrepancy.Ledger
		case "status":
			fields["status"] = discrepancy.Ledger
			fields["on_chain_status"] = discrepancy.Ledger
		case "prizeClaimed":
			fields["prize_claimed"] = nil
			fields["prize_claim_tx_hash"] = ""
			fields["prize_claim_amount"] = ""
		}
	}
	return
}
