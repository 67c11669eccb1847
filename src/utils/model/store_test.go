package model

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDebate(t *testing.T, store *MemoryStore, ledgerId string, status DebateStatus, contract string) {
	t.Helper()
	require.NoError(t, store.InsertDebate(context.Background(), &Debate{
		LedgerId:        ledgerId,
		Status:          status,
		ContractAddress: contract,
	}))
}

func TestInsertIsFirstWriterWins(t *testing.T) {
	store := NewMemoryStore()
	seedDebate(t, store, "1", DebateStatusPending, "")

	err := store.InsertDebate(context.Background(), &Debate{LedgerId: "1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestGetUnknownDebate(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.GetDebate(context.Background(), "404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLedgerBackedScope(t *testing.T) {
	store := NewMemoryStore()
	seedDebate(t, store, "1", DebateStatusActive, "0xc1")
	seedDebate(t, store, "2", DebateStatusPending, "0xc2")
	seedDebate(t, store, "3", DebateStatusVoting, "")
	seedDebate(t, store, "4", DebateStatusCompleted, "0xc4")

	debates, err := store.ListLedgerBacked(context.Background(), []DebateStatus{
		DebateStatusActive, DebateStatusVoting, DebateStatusCompleted,
	})
	require.NoError(t, err)

	// Pending and contract-less rows are out of scope
	require.Len(t, debates, 2)
	assert.Equal(t, "1", debates[0].LedgerId)
	assert.Equal(t, "4", debates[1].LedgerId)
}

func TestUpdateFieldsIsIsolatedFromCaller(t *testing.T) {
	store := NewMemoryStore()
	seedDebate(t, store, "1", DebateStatusActive, "0xc1")

	loaded, err := store.GetDebate(context.Background(), "1")
	require.NoError(t, err)

	// Mutating the returned row must not leak into the store
	loaded.Topic = "mutated"

	fresh, err := store.GetDebate(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Topic)
}

func TestUpdateFieldsUnknownRow(t *testing.T) {
	store := NewMemoryStore()
	err := store.UpdateFields(context.Background(), "404", map[string]interface{}{"topic": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFieldsWithAuditAppends(t *testing.T) {
	store := NewMemoryStore()
	seedDebate(t, store, "1", DebateStatusActive, "0xc1")

	for i, field := range []string{"creator", "stake"} {
		err := store.UpdateFieldsWithAudit(context.Background(), "1", map[string]interface{}{
			"sync_status": SyncStatusConfirmed,
		}, SyncError{
			Id:        string(rune('a' + i)),
			Timestamp: time.Now(),
			Type:      "reconciliation",
			Discrepancies: []Discrepancy{
				{Field: field, Cached: "x", Ledger: "y"},
			},
		})
		require.NoError(t, err)
	}

	debate, err := store.GetDebate(context.Background(), "1")
	require.NoError(t, err)

	// Append only, never truncated
	require.Len(t, debate.SyncErrors, 2)
	assert.Equal(t, "creator", debate.SyncErrors[0].Discrepancies[0].Field)
	assert.Equal(t, "stake", debate.SyncErrors[1].Discrepancies[0].Field)
}

func TestSyncStateRoundTrip(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.GetSyncState(context.Background(), SyncedComponentListener)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveSyncState(context.Background(), &SyncState{
		Name:          SyncedComponentListener,
		LastSeenBlock: 42,
	}))
	require.NoError(t, store.SaveSyncState(context.Background(), &SyncState{
		Name:          SyncedComponentListener,
		LastSeenBlock: 43,
	}))

	state, err := store.GetSyncState(context.Background(), SyncedComponentListener)
	require.NoError(t, err)
	assert.Equal(t, uint64(43), state.LastSeenBlock)
}
