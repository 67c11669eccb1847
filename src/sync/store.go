package sync

import (
	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/utils/task"
)

// Store periodically flushes the listener's processed block heights to
// sync_state. Heights within one batch collapse to the highest one, a
// lower height never overwrites a higher one.
type Store struct {
	*task.Processor[uint64, uint64]

	store   model.DebateStore
	monitor *monitoring.Monitor

	savedHeight uint64
}

func NewStore(config *config.Config) (self *Store) {
	self = new(Store)

	self.Processor = task.NewProcessor[uint64, uint64](config, "progress-store").
		WithBatchSize(config.Syncer.ProgressBatchSize).
		WithOnProcess(self.process).
		WithOnFlush(config.Syncer.ProgressFlushInterval, self.flush).
		WithBackoff(0, config.Syncer.ProgressMaxBackoffInterval)

	return
}

func (self *Store) WithDebateStore(store model.DebateStore) *Store {
	self.store = store
	return self
}

func (self *Store) WithMonitor(monitor *monitoring.Monitor) *Store {
	self.monitor = monitor
	return self
}

func (self *Store) WithInputChannel(v chan uint64) *Store {
	self.Processor = self.Processor.WithInputChannel(v)
	return self
}

func (self *Store) process(height uint64) ([]uint64, error) {
	return []uint64{height}, nil
}

func (self *Store) flush(heights []uint64) (out []uint64, err error) {
	highest := self.savedHeight
	for _, height := range heights {
		if height > highest {
			highest = height
		}
	}
	if highest == self.savedHeight {
		// Nothing newer to save
		return nil, nil
	}

	err = self.store.SaveSyncState(self.Ctx, &model.SyncState{
		Name:          model.SyncedComponentListener,
		LastSeenBlock: highest,
	})
	if err != nil {
		self.Log.WithError(err).Error("Failed to save listener progress")
		if self.monitor != nil {
			self.monitor.GetReport().Syncer.Errors.ProgressSaveFailures.Inc()
		}
		return nil, err
	}

	self.savedHeight = highest
	if self.monitor != nil {
		self.monitor.GetReport().Syncer.State.ProgressSaved.Inc()
	}

	// Output stays empty, nothing consumes saved heights downstream
	return nil, nil
}
