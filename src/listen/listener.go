package listen

import (
	"fmt"
	"math/big"
	stdsync "sync"
	"sync/atomic"
	"time"

	"github.com/debate-arena/syncer/src/sync"
	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/utils/task"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/go-resty/resty/v2"
)

// Listener subscribes to the factory contract's events and forwards every
// decoded event to the sync ingestion API. There is no replay: events
// missed while not listening are recovered by the next reconciler sweep.
type Listener struct {
	*task.Task

	monitor *monitoring.Monitor
	source  eth.LogSource
	client  *resty.Client

	// Processed block heights, drained by the progress store
	progress chan uint64

	listening atomic.Bool

	mtx           stdsync.Mutex
	subscriptions map[string]ethereum.Subscription
}

func NewListener(config *config.Config) (self *Listener) {
	self = new(Listener)
	self.subscriptions = make(map[string]ethereum.Subscription)

	self.client = resty.New().
		SetBaseURL(config.Listener.IngestUrl).
		SetTimeout(config.Listener.ForwardTimeout)

	self.Task = task.NewTask(config, "listener").
		WithWorkerPool(config.Listener.NumWorkers, config.Listener.WorkerQueueSize).
		WithOnStop(self.unsubscribe).
		WithOnAfterStop(func() {
			// Closing the progress channel lets its consumer flush and exit
			if self.progress != nil {
				close(self.progress)
			}
		}).
		WithSubtaskFunc(func() error { return self.listen(eth.EventDebateCreated) }).
		WithSubtaskFunc(func() error { return self.listen(eth.EventDebateJoined) }).
		WithSubtaskFunc(func() error { return self.listen(eth.EventDebateFinalized) }).
		WithSubtaskFunc(func() error { return self.listen(eth.EventPrizeClaimed) })

	return
}

func (self *Listener) WithLogSource(source eth.LogSource) *Listener {
	self.source = source
	return self
}

func (self *Listener) WithMonitor(monitor *monitoring.Monitor) *Listener {
	self.monitor = monitor
	return self
}

func (self *Listener) WithProgressChannel(v chan uint64) *Listener {
	self.progress = v
	return self
}

// Start is a no-op when the listener already runs
func (self *Listener) Start() error {
	if !self.listening.CompareAndSwap(false, true) {
		self.Log.Info("Already listening, start ignored")
		return nil
	}
	return self.Task.Start()
}

// Releases every subscription, runs as the task's stop hook
func (self *Listener) unsubscribe() {
	self.mtx.Lock()
	for _, subscription := range self.subscriptions {
		subscription.Unsubscribe()
	}
	self.subscriptions = make(map[string]ethereum.Subscription)
	self.mtx.Unlock()
}

// One subscription loop per event type. A dropped subscription is
// re-established after ResubscribeDelay.
func (self *Listener) listen(eventName string) (err error) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(self.Config.Chain.FactoryAddress)},
		Topics:    [][]common.Hash{{eth.DebateABI().Events[eventName].ID}},
	}

	logs := make(chan types.Log)
	for {
		select {
		case <-self.StopChannel:
			return nil
		default:
		}

		subscription, err := self.source.SubscribeFilterLogs(self.Ctx, query, logs)
		if err != nil {
			self.Log.WithError(err).WithField("event", eventName).Error("Failed to subscribe")
			if self.monitor != nil {
				self.monitor.GetReport().Listener.Errors.SubscriptionDrops.Inc()
			}
			select {
			case <-self.StopChannel:
				return nil
			case <-time.After(self.Config.Listener.ResubscribeDelay):
			}
			continue
		}

		self.mtx.Lock()
		self.subscriptions[eventName] = subscription
		self.mtx.Unlock()
		if self.monitor != nil {
			self.monitor.GetReport().Listener.State.SubscriptionsUp.Inc()
		}

		err = self.consume(eventName, logs, subscription)
		if self.monitor != nil {
			self.monitor.GetReport().Listener.State.SubscriptionsUp.Dec()
		}
		if err == nil {
			// Stopped
			return nil
		}

		self.Log.WithError(err).WithField("event", eventName).Error("Subscription dropped")
		if self.monitor != nil {
			self.monitor.GetReport().Listener.Errors.SubscriptionDrops.Inc()
		}
		select {
		case <-self.StopChannel:
			return nil
		case <-time.After(self.Config.Listener.ResubscribeDelay):
		}
	}
}

func (self *Listener) consume(eventName string, logs chan types.Log, subscription ethereum.Subscription) (err error) {
	for {
		select {
		case <-self.StopChannel:
			subscription.Unsubscribe()
			return nil
		case err = <-subscription.Err():
			return err
		case event := <-logs:
			self.handle(eventName, event)
		}
	}
}

// Decodes the log and queues the forward. A bad log is logged and dropped,
// the loop never stalls on it.
func (self *Listener) handle(eventName string, event types.Log) {
	path, payload, err := self.decode(eventName, event)
	if err != nil {
		self.Log.WithError(err).
			WithField("event", eventName).
			WithField("tx", event.TxHash.Hex()).
			Error("Failed to decode event")
		if self.monitor != nil {
			self.monitor.GetReport().Listener.Errors.DecodeFailures.Inc()
		}
		return
	}

	if self.monitor != nil {
		self.monitor.GetReport().Listener.State.EventsDecoded.Inc()
		self.monitor.GetReport().Listener.State.LastSeenBlock.Store(int64(event.BlockNumber))
	}

	// Fire and forget, per-log failure only gets logged
	self.SubmitToWorker(func() {
		self.forward(path, payload)
	})

	if self.progress != nil {
		select {
		case self.progress <- event.BlockNumber:
		default:
			// Progress store is behind, newer height will follow
		}
	}
}

func (self *Listener) forward(path string, payload interface{}) {
	resp, err := self.client.R().
		SetContext(self.Ctx).
		SetBody(payload).
		Post(path)
	if err == nil && resp.IsSuccess() {
		if self.monitor != nil {
			self.monitor.GetReport().Listener.State.EventsForwarded.Inc()
		}
		return
	}

	entry := self.Log.WithField("path", path)
	if err != nil {
		entry = entry.WithError(err)
	} else {
		entry = entry.WithField("status", resp.StatusCode())
	}
	entry.Error("Failed to forward event")
	if self.monitor != nil {
		self.monitor.GetReport().Listener.Errors.ForwardFailures.Inc()
	}
}

func (self *Listener) decode(eventName string, event types.Log) (path string, payload interface{}, err error) {
	contractAbi := eth.DebateABI()

	data := map[string]interface{}{}
	if len(event.Data) > 0 {
		err = contractAbi.UnpackIntoMap(data, eventName, event.Data)
		if err != nil {
			return "", nil, err
		}
	}

	var indexed abi.Arguments
	for _, input := range contractAbi.Events[eventName].Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	err = abi.ParseTopicsIntoMap(data, indexed, event.Topics[1:])
	if err != nil {
		return "", nil, err
	}

	base := sync.Event{
		TransactionHash: event.TxHash.Hex(),
		BlockNumber:     event.BlockNumber,
		ChainId:         self.Config.Chain.Id,
		Timestamp:       time.Now().UTC(),
	}
	debateId, ok := data["debateId"].(*big.Int)
	if !ok {
		return "", nil, fmt.Errorf("event %s without a debate id", eventName)
	}
	base.DebateId = debateId.String()

	switch eventName {
	case eth.EventDebateCreated:
		base.ContractAddress = data["debateContract"].(common.Address).Hex()
		return "/v1/sync/created", &sync.CreatedEvent{
			Event:   base,
			Creator: data["creator"].(common.Address).Hex(),
			Stake:   data["stake"].(*big.Int).String(),
		}, nil

	case eth.EventDebateJoined:
		return "/v1/sync/joined", &sync.JoinedEvent{
			Event:    base,
			Opponent: data["opponent"].(common.Address).Hex(),
			Stake:    data["stake"].(*big.Int).String(),
		}, nil

	case eth.EventDebateFinalized:
		return "/v1/sync/finalized", &sync.FinalizedEvent{
			Event:  base,
			Winner: data["winner"].(common.Address).Hex(),
		}, nil

	case eth.EventPrizeClaimed:
		return "/v1/sync/claimed", &sync.ClaimedEvent{
			Event:  base,
			Winner: data["winner"].(common.Address).Hex(),
			Amount: data["amount"].(*big.Int).String(),
		}, nil
	}

	return "", nil, fmt.Errorf("unknown event %s", eventName)
}
