package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncErrorsColumnCodec(t *testing.T) {
	in := SyncErrors{
		{
			Id:        "cq2p3e9s8",
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			Type:      "reconciliation",
			Message:   "repaired creator from ledger",
			Discrepancies: []Discrepancy{
				{Field: "creator", Cached: "0xa", Ledger: "0xb"},
			},
		},
	}

	value, err := in.Value()
	require.NoError(t, err)

	var out SyncErrors
	require.NoError(t, out.Scan(value))
	assert.Equal(t, in, out)
}

func TestSyncErrorsNilValue(t *testing.T) {
	var in SyncErrors
	value, err := in.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", value)

	var out SyncErrors
	require.NoError(t, out.Scan(nil))
	assert.Nil(t, out)
}
