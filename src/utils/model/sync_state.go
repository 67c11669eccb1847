package model

import "time"

const TableSyncState = "sync_state"

type SyncedComponent string

const (
	SyncedComponentListener   SyncedComponent = "Listener"
	SyncedComponentReconciler SyncedComponent = "Reconciler"
)

// Progress of a syncing component. For the listener this is the height of
// the last block a log was observed in - there is no replay mechanism, so
// together with the reconciler interval this bounds the staleness window
// after an outage.
type SyncState struct {
	Name          SyncedComponent `gorm:"primaryKey"`
	LastSeenBlock uint64
	LastSeenHash  string
	UpdatedAt     time.Time
}

func (SyncState) TableName() string {
	return TableSyncState
}
