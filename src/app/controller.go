package app

import (
	"github.com/debate-arena/syncer/src/claim"
	"github.com/debate-arena/syncer/src/gateway"
	"github.com/debate-arena/syncer/src/listen"
	"github.com/debate-arena/syncer/src/reconcile"
	"github.com/debate-arena/syncer/src/sync"
	"github.com/debate-arena/syncer/src/tracker"
	"github.com/debate-arena/syncer/src/utils/config"
	"github.com/debate-arena/syncer/src/utils/eth"
	"github.com/debate-arena/syncer/src/utils/model"
	"github.com/debate-arena/syncer/src/utils/monitoring"
	"github.com/debate-arena/syncer/src/utils/publisher"
	"github.com/debate-arena/syncer/src/utils/task"
	"github.com/debate-arena/syncer/src/verify"
)

type Controller struct {
	*task.Task
}

// NewController wires the whole service. Everything is a subtask, started
// together upon Controller.Start() and stopped together on shutdown.
func NewController(config *config.Config) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "controller")

	// SQL database
	db, err := model.NewConnection(self.Ctx, config, "arenasync")
	if err != nil {
		return
	}
	store := model.NewGormStore(db)

	// Monitoring
	monitor := monitoring.NewMonitor()
	monitoringServer := monitoring.NewServer(config).
		WithMonitor(monitor)

	// Ledger clients, one RPC connection for reads and one websocket
	// connection for log subscriptions
	chainClient, err := eth.NewClient(self.Log, &config.Chain)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to the RPC provider")
		return
	}
	subscriberClient, err := eth.NewSubscriberClient(self.Log, &config.Chain)
	if err != nil {
		self.Log.WithError(err).Error("Could not connect to the websocket provider")
		return
	}

	// Blocks on ledger finality for the claim flow
	confirmationTracker := tracker.NewTracker(config).
		WithReceiptSource(chainClient).
		WithMonitor(monitor)

	// Ingestion handlers behind the sync routes
	applier := sync.NewApplier(config).
		WithStore(store).
		WithMonitor(monitor)

	// Diffs cache rows against ledger truth
	verifier := verify.NewVerifier(config).
		WithStore(store).
		WithStateReader(chainClient)

	// Fresh-ledger-read claim eligibility
	gate := claim.NewGate(config).
		WithStateReader(chainClient)

	// Forwards decoded factory events to the sync routes
	progress := make(chan uint64, config.Listener.WorkerQueueSize)
	listener := listen.NewListener(config).
		WithLogSource(subscriberClient).
		WithMonitor(monitor).
		WithProgressChannel(progress)

	// Periodically persists the listener's block height
	progressStore := sync.NewStore(config).
		WithDebateStore(store).
		WithMonitor(monitor).
		WithInputChannel(progress)

	// Sweeps and repairs diverged rows, publishing a summary per sweep
	summaries := make(chan reconcile.SweepSummary, 8)
	reconciler := reconcile.NewReconciler(config).
		WithStore(store).
		WithVerifier(verifier).
		WithMonitor(monitor).
		WithSummaryChannel(summaries)

	sweepPublisher := publisher.NewPublisher[reconcile.SweepSummary](config, "sweep-publisher").
		WithInputChannel(summaries).
		WithChannelName(config.Reconciler.ReportChannel)

	// Rest API
	server := gateway.NewServer(config).
		WithStore(store).
		WithApplier(applier).
		WithVerifier(verifier).
		WithGate(gate).
		WithTracker(confirmationTracker).
		WithMonitor(monitor)

	// Setup everything, will start upon calling Controller.Start()
	self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(monitoringServer.Task).
		WithSubtask(server.Task).
		WithSubtask(progressStore.Task).
		WithSubtask(listener.Task).
		WithSubtask(reconciler.Task).
		WithConditionalSubtask(config.Redis.Enabled && config.Reconciler.ReportChannel != "", sweepPublisher.Task)
	return
}
