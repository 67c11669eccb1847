package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/logger"
	"github.com/debate-arena/syncer/src/utils/monitoring"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

var (
	ErrReverted = errors.New("reverted on-chain")
	ErrTimeout  = errors.New("confirmation timeout")
)

// Outcome of one confirmation wait
type Result struct {
	State         State
	BlockNumber   uint64
	Confirmations uint64
	Receipt       *types.Receipt
	Reason        string
}

// Session tracks the state-machine position for one transaction hash.
// Ephemeral, never persisted.
type Session struct {
	mtx           sync.RWMutex
	hash          common.Hash
	state         State
	confirmations uint64
}

func (self *Session) State() State {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.state
}

func (self *Session) Confirmations() uint64 {
	self.mtx.RLock()
	defer self.mtx.RUnlock()
	return self.confirmations
}

func (self *Session) set(state State, confirmations uint64) {
	self.mtx.Lock()
	self.state = state
	self.confirmations = confirmations
	self.mtx.Unlock()
}

// Tracker waits for submitted transactions to reach the required
// confirmation depth. This is the only place the system blocks on ledger
// finality.
type Tracker struct {
	Log *logrus.Entry

	trackerConfig config.Tracker
	source        eth.ReceiptSource
	monitor       *monitoring.Monitor

	// Confirmed results, so re-invoking with the same hash after success
	// is a pure re-read
	results *gocache.Cache

	sessions sync.Map
}

func NewTracker(conf *config.Config) (self *Tracker) {
	self = new(Tracker)
	self.Log = logger.NewSublogger("tracker")
	self.trackerConfig = conf.Tracker
	self.results = gocache.New(conf.Tracker.ResultCacheTTL, 2*conf.Tracker.ResultCacheTTL)
	return
}

func (self *Tracker) WithReceiptSource(source eth.ReceiptSource) *Tracker {
	self.source = source
	return self
}

func (self *Tracker) WithMonitor(monitor *monitoring.Monitor) *Tracker {
	self.monitor = monitor
	return self
}

// Session returns the tracked session for the hash, creating an Idle one
// if none exists yet
func (self *Tracker) Session(hash common.Hash) *Session {
	value, _ := self.sessions.LoadOrStore(hash, &Session{hash: hash, state: Idle})
	return value.(*Session)
}

// AwaitConfirmation blocks until the transaction reaches the required
// confirmation depth, reverts, or the timeout elapses. A timeout is
// terminal, it is not silently retried.
func (self *Tracker) AwaitConfirmation(ctx context.Context, hash common.Hash) (result *Result, err error) {
	// Already confirmed before, pure re-read
	if cached, ok := self.results.Get(hash.Hex()); ok {
		if self.monitor != nil {
			self.monitor.GetReport().Tracker.State.CachedReReads.Inc()
		}
		return cached.(*Result), nil
	}

	session := self.Session(hash)
	session.set(Confirming, session.Confirmations())
	if self.monitor != nil {
		self.monitor.GetReport().Tracker.State.SessionsStarted.Inc()
	}

	waitCtx, cancel := context.WithTimeout(ctx, self.trackerConfig.Timeout)
	defer cancel()

	ticker := time.NewTicker(self.trackerConfig.PollInterval)
	defer ticker.Stop()

	for {
		result, err = self.check(waitCtx, session, hash)
		if err != nil || result != nil {
			return
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				// Caller went away, not a confirmation timeout
				session.set(Error, session.Confirmations())
				return nil, ctx.Err()
			}
			session.set(Error, session.Confirmations())
			if self.monitor != nil {
				self.monitor.GetReport().Tracker.Errors.Timeouts.Inc()
			}
			return &Result{State: Error, Reason: ErrTimeout.Error(), Confirmations: session.Confirmations()}, ErrTimeout
		case <-ticker.C:
			// next poll
		}
	}
}

// One poll. Returns a terminal result, an error, or (nil, nil) to keep
// waiting.
func (self *Tracker) check(ctx context.Context, session *Session, hash common.Hash) (result *Result, err error) {
	receipt, err := self.source.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		// Not mined yet
		return nil, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			// Deadline handled by the caller's select
			return nil, nil
		}
		self.Log.WithError(err).WithField("hash", hash.Hex()).Warn("Receipt poll failed")
		return nil, nil
	}

	if receipt.Status == types.ReceiptStatusFailed {
		session.set(Error, 0)
		if self.monitor != nil {
			self.monitor.GetReport().Tracker.Errors.Reverted.Inc()
		}
		return &Result{State: Error, Reason: ErrReverted.Error(), Receipt: receipt}, ErrReverted
	}

	header, err := self.source.HeaderByNumber(ctx, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		self.Log.WithError(err).Warn("Head poll failed")
		return nil, nil
	}

	confirmations := uint64(0)
	if header.Number.Uint64() >= receipt.BlockNumber.Uint64() {
		confirmations = header.Number.Uint64() - receipt.BlockNumber.Uint64() + 1
	}
	session.set(Confirming, confirmations)

	if confirmations < self.trackerConfig.RequiredConfirmations {
		return nil, nil
	}

	// Depth reached, the apply-to-cache step may run now
	session.set(Syncing, confirmations)

	result = &Result{
		State:         Success,
		BlockNumber:   receipt.BlockNumber.Uint64(),
		Confirmations: confirmations,
		Receipt:       receipt,
	}
	session.set(Success, confirmations)
	self.results.SetDefault(hash.Hex(), result)
	if self.monitor != nil {
		self.monitor.GetReport().Tracker.State.ConfirmationsSucceeded.Inc()
	}

	self.Log.
		WithField("hash", hash.Hex()).
		WithField("block", result.BlockNumber).
		WithField("confirmations", confirmations).
		Info("Transaction confirmed")
	return result, nil
}
