package model

import (
	"time"

	"github.com/lib/pq"
)

const TableDebate = "debates"

type DebateStatus string

const (
	DebateStatusPending   DebateStatus = "pending"
	DebateStatusActive    DebateStatus = "active"
	DebateStatusVoting    DebateStatus = "voting"
	DebateStatusCompleted DebateStatus = "completed"
)

type SyncStatus string

const (
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusConfirmed SyncStatus = "confirmed"
	SyncStatusFailed    SyncStatus = "failed"
)

// Inserted as topic when a row is created from a ledger event before the
// user-driven creation call delivered the real metadata
const PlaceholderTopic = "Debate pending metadata"

// Debate is the cached projection of one on-chain debate.
// The ledger is the source of truth for every money-relevant field here,
// this row only exists so the application can query contests without
// hitting the chain.
type Debate struct {
	// Ledger-assigned id, immutable once set
	LedgerId string `gorm:"primaryKey;column:ledger_id" json:"ledgerId"`

	// Descriptive metadata, owned by the off-chain creation flow.
	// Never produced or overwritten by ledger events.
	Topic    string         `json:"topic"`
	Category string         `json:"category"`
	Tags     pq.StringArray `gorm:"type:text[]" json:"tags"`

	// True while the row was inserted ledger-first and still carries
	// placeholder metadata
	MetadataPending bool `json:"metadataPending"`

	// Business lifecycle. Written by the business flow and corrected by
	// the reconciler, nothing else.
	Status DebateStatus `json:"status"`

	// Decimal string in base-currency units
	StakeAmount string `json:"stakeAmount"`

	CreatorId    string `json:"creatorId"`
	ChallengerId string `json:"challengerId"`
	WinnerId     string `json:"winnerId"`

	// Ledger-contract coordinates, immutable once set
	ContractAddress string `json:"contractAddress"`
	TransactionHash string `json:"transactionHash"`
	BlockNumber     uint64 `json:"blockNumber"`
	ChainId         int64  `json:"chainId"`

	SyncStatus      SyncStatus `json:"syncStatus"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt"`
	LastSyncedBlock uint64     `json:"lastSyncedBlock"`

	// Shadow copies of ledger-observed truth, distinct from the possibly
	// stale Status/WinnerId above
	OnChainWinner string `json:"onChainWinner"`
	OnChainStatus string `json:"onChainStatus"`

	// Display only. The ledger's claimed flag is the only proof of a
	// successful claim.
	PrizeClaimed     *time.Time `json:"prizeClaimed"`
	PrizeClaimTxHash string     `json:"prizeClaimTxHash"`
	PrizeClaimAmount string     `json:"prizeClaimAmount"`

	FinalizedAt *time.Time `json:"finalizedAt"`

	// Append-only audit trail, never truncated
	SyncErrors SyncErrors `gorm:"type:jsonb" json:"syncErrors"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Debate) TableName() string {
	return TableDebate
}
