package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Collector struct {
	monitor *Monitor

	// Run
	UpForSeconds *prometheus.Desc

	// Errors
	TrackerReverted           *prometheus.Desc
	TrackerTimeouts           *prometheus.Desc
	ListenerDecodeFailures    *prometheus.Desc
	ListenerForwardFailures   *prometheus.Desc
	ListenerSubscriptionDrops *prometheus.Desc
	SyncerApplyFailures       *prometheus.Desc
	ReconcilerItemFailures    *prometheus.Desc
	ReconcilerSweepFailures   *prometheus.Desc
	GatewayBadRequests        *prometheus.Desc
	GatewayDbErrors           *prometheus.Desc

	// State
	TrackerConfirmationsSucceeded *prometheus.Desc
	ListenerEventsDecoded         *prometheus.Desc
	ListenerLastSeenBlock         *prometheus.Desc
	SyncerDebatesInserted         *prometheus.Desc
	SyncerDebatesUpdated          *prometheus.Desc
	ReconcilerSweeps              *prometheus.Desc
	ReconcilerDebatesChecked      *prometheus.Desc
	ReconcilerDebatesRepaired     *prometheus.Desc
	GatewayIngestAccepted         *prometheus.Desc
}

func NewCollector() *Collector {
	return &Collector{
		UpForSeconds: prometheus.NewDesc("up_for_seconds", "", nil, nil),

		// Errors
		TrackerReverted:           prometheus.NewDesc("tracker_reverted", "", nil, nil),
		TrackerTimeouts:           prometheus.NewDesc("tracker_timeouts", "", nil, nil),
		ListenerDecodeFailures:    prometheus.NewDesc("listener_decode_failures", "", nil, nil),
		ListenerForwardFailures:   prometheus.NewDesc("listener_forward_failures", "", nil, nil),
		ListenerSubscriptionDrops: prometheus.NewDesc("listener_subscription_drops", "", nil, nil),
		SyncerApplyFailures:       prometheus.NewDesc("syncer_apply_failures", "", nil, nil),
		ReconcilerItemFailures:    prometheus.NewDesc("reconciler_item_failures", "", nil, nil),
		ReconcilerSweepFailures:   prometheus.NewDesc("reconciler_sweep_failures", "", nil, nil),
		GatewayBadRequests:        prometheus.NewDesc("gateway_bad_requests", "", nil, nil),
		GatewayDbErrors:           prometheus.NewDesc("gateway_db_errors", "", nil, nil),

		// State
		TrackerConfirmationsSucceeded: prometheus.NewDesc("tracker_confirmations_succeeded", "", nil, nil),
		ListenerEventsDecoded:         prometheus.NewDesc("listener_events_decoded", "", nil, nil),
		ListenerLastSeenBlock:         prometheus.NewDesc("listener_last_seen_block", "", nil, nil),
		SyncerDebatesInserted:         prometheus.NewDesc("syncer_debates_inserted", "", nil, nil),
		SyncerDebatesUpdated:          prometheus.NewDesc("syncer_debates_updated", "", nil, nil),
		ReconcilerSweeps:              prometheus.NewDesc("reconciler_sweeps", "", nil, nil),
		ReconcilerDebatesChecked:      prometheus.NewDesc("reconciler_debates_checked", "", nil, nil),
		ReconcilerDebatesRepaired:     prometheus.NewDesc("reconciler_debates_repaired", "", nil, nil),
		GatewayIngestAccepted:         prometheus.NewDesc("gateway_ingest_accepted", "", nil, nil),
	}
}

func (self *Collector) WithMonitor(m *Monitor) *Collector {
	self.monitor = m
	return self
}

func (self *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- self.UpForSeconds

	// Errors
	ch <- self.TrackerReverted
	ch <- self.TrackerTimeouts
	ch <- self.ListenerDecodeFailures
	ch <- self.ListenerForwardFailures
	ch <- self.ListenerSubscriptionDrops
	ch <- self.SyncerApplyFailures
	ch <- self.ReconcilerItemFailures
	ch <- self.ReconcilerSweepFailures
	ch <- self.GatewayBadRequests
	ch <- self.GatewayDbErrors

	// State
	ch <- self.TrackerConfirmationsSucceeded
	ch <- self.ListenerEventsDecoded
	ch <- self.ListenerLastSeenBlock
	ch <- self.SyncerDebatesInserted
	ch <- self.SyncerDebatesUpdated
	ch <- self.ReconcilerSweeps
	ch <- self.ReconcilerDebatesChecked
	ch <- self.ReconcilerDebatesRepaired
	ch <- self.GatewayIngestAccepted
}

// Collect implements the required collect function for all prometheus collectors
func (self *Collector) Collect(ch chan<- prometheus.Metric) {
	r := self.monitor.GetReport()

	ch <- prometheus.MustNewConstMetric(self.UpForSeconds, prometheus.GaugeValue, float64(r.Run.State.UpForSeconds.Load()))

	// Errors
	ch <- prometheus.MustNewConstMetric(self.TrackerReverted, prometheus.CounterValue, float64(r.Tracker.Errors.Reverted.Load()))
	ch <- prometheus.MustNewConstMetric(self.TrackerTimeouts, prometheus.CounterValue, float64(r.Tracker.Errors.Timeouts.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListenerDecodeFailures, prometheus.CounterValue, float64(r.Listener.Errors.DecodeFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListenerForwardFailures, prometheus.CounterValue, float64(r.Listener.Errors.ForwardFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListenerSubscriptionDrops, prometheus.CounterValue, float64(r.Listener.Errors.SubscriptionDrops.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncerApplyFailures, prometheus.CounterValue, float64(r.Syncer.Errors.ApplyFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcilerItemFailures, prometheus.CounterValue, float64(r.Reconciler.Errors.ItemFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcilerSweepFailures, prometheus.CounterValue, float64(r.Reconciler.Errors.SweepFailures.Load()))
	ch <- prometheus.MustNewConstMetric(self.GatewayBadRequests, prometheus.CounterValue, float64(r.Gateway.Errors.BadRequests.Load()))
	ch <- prometheus.MustNewConstMetric(self.GatewayDbErrors, prometheus.CounterValue, float64(r.Gateway.Errors.DbErrors.Load()))

	// State
	ch <- prometheus.MustNewConstMetric(self.TrackerConfirmationsSucceeded, prometheus.CounterValue, float64(r.Tracker.State.ConfirmationsSucceeded.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListenerEventsDecoded, prometheus.CounterValue, float64(r.Listener.State.EventsDecoded.Load()))
	ch <- prometheus.MustNewConstMetric(self.ListenerLastSeenBlock, prometheus.GaugeValue, float64(r.Listener.State.LastSeenBlock.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncerDebatesInserted, prometheus.CounterValue, float64(r.Syncer.State.DebatesInserted.Load()))
	ch <- prometheus.MustNewConstMetric(self.SyncerDebatesUpdated, prometheus.CounterValue, float64(r.Syncer.State.DebatesUpdated.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcilerSweeps, prometheus.CounterValue, float64(r.Reconciler.State.Sweeps.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcilerDebatesChecked, prometheus.CounterValue, float64(r.Reconciler.State.DebatesChecked.Load()))
	ch <- prometheus.MustNewConstMetric(self.ReconcilerDebatesRepaired, prometheus.CounterValue, float64(r.Reconciler.State.DebatesRepaired.Load()))
	ch <- prometheus.MustNewConstMetric(self.GatewayIngestAccepted, prometheus.CounterValue, float64(r.Gateway.State.IngestAccepted.Load()))
}
