package report

import "go.uber.org/atomic"

type TrackerState struct {
	SessionsStarted        atomic.Int64 `json:"sessions_started"`
	ConfirmationsSucceeded atomic.Int64 `json:"confirmations_succeeded"`
	CachedReReads          atomic.Int64 `json:"cached_re_reads"`
}

type TrackerErrors struct {
	Reverted atomic.Uint64 `json:"reverted"`
	Timeouts atomic.Uint64 `json:"timeouts"`
}

type TrackerReport struct {
	State  TrackerState  `json:"state"`
	Errors TrackerErrors `json:"errors"`
}

type ListenerState struct {
	EventsDecoded   atomic.Int64 `json:"events_decoded"`
	EventsForwarded atomic.Int64 `json:"events_forwarded"`
	LastSeenBlock   atomic.Int64 `json:"last_seen_block"`
	SubscriptionsUp atomic.Int64 `json:"subscriptions_up"`
}

type ListenerErrors struct {
	DecodeFailures    atomic.Uint64 `json:"decode_failures"`
	ForwardFailures   atomic.Uint64 `json:"forward_failures"`
	SubscriptionDrops atomic.Uint64 `json:"subscription_drops"`
}

type ListenerReport struct {
	State  ListenerState  `json:"state"`
	Errors ListenerErrors `json:"errors"`
}

type SyncerState struct {
	DebatesInserted atomic.Int64 `json:"debates_inserted"`
	DebatesUpdated  atomic.Int64 `json:"debates_updated"`
	ProgressSaved   atomic.Int64 `json:"progress_saved"`
}

type SyncerErrors struct {
	ApplyFailures        atomic.Uint64 `json:"apply_failures"`
	ProgressSaveFailures atomic.Uint64 `json:"progress_save_failures"`
}

type SyncerReport struct {
	State  SyncerState  `json:"state"`
	Errors SyncerErrors `json:"errors"`
}

type ReconcilerState struct {
	Sweeps          atomic.Int64 `json:"sweeps"`
	DebatesChecked  atomic.Int64 `json:"debates_checked"`
	DebatesRepaired atomic.Int64 `json:"debates_repaired"`
}

type ReconcilerErrors struct {
	ItemFailures  atomic.Uint64 `json:"item_failures"`
	SweepFailures atomic.Uint64 `json:"sweep_failures"`
}

type ReconcilerReport struct {
	State  ReconcilerState  `json:"state"`
	Errors ReconcilerErrors `json:"errors"`
}

type GatewayState struct {
	IngestAccepted atomic.Int64 `json:"ingest_accepted"`
	ClaimsRecorded atomic.Int64 `json:"claims_recorded"`
	Finalizations  atomic.Int64 `json:"finalizations"`
}

type GatewayErrors struct {
	BadRequests atomic.Uint64 `json:"bad_requests"`
	DbErrors    atomic.Uint64 `json:"db_errors"`
}

type GatewayReport struct {
	State  GatewayState  `json:"state"`
	Errors GatewayErrors `json:"errors"`
}
