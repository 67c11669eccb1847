package model

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("debate not found")
	ErrAlreadyExists = errors.New("debate already exists")
)

// DebateStore is the persistence boundary for the cached projection.
// Backed by Postgres in production and by MemoryStore in tests.
type DebateStore interface {
	GetDebate(ctx context.Context, ledgerId string) (*Debate, error)

	// Rows with one of the given statuses and a contract address set
	ListLedgerBacked(ctx context.Context, statuses []DebateStatus) ([]*Debate, error)

	// Fails with ErrAlreadyExists when the id is taken
	InsertDebate(ctx context.Context, debate *Debate) error

	// One atomic update covering all given columns
	UpdateFields(ctx context.Context, ledgerId string, fields map[string]interface{}) error

	// Atomically applies the field updates and appends the audit entry,
	// so no reader ever observes a half-repaired row
	UpdateFieldsWithAudit(ctx context.Context, ledgerId string, fields map[string]interface{}, entry SyncError) error

	GetSyncState(ctx context.Context, name SyncedComponent) (*SyncState, error)
	SaveSyncState(ctx context.Context, state *SyncState) error
}
