package model

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory DebateStore used by tests and local
// development. Mirrors GormStore semantics, including atomic updates and
// the insert race resolution.
type MemoryStore struct {
	mtx     sync.RWMutex
	debates map[string]*Debate
	states  map[SyncedComponent]*SyncState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		debates: make(map[string]*Debate),
		states:  make(map[SyncedComponent]*SyncState),
	}
}

func cloneDebate(in *Debate) *Debate {
	out := *in
	out.Tags = append(out.Tags[:0:0], in.Tags...)
	out.SyncErrors = append(out.SyncErrors[:0:0], in.SyncErrors...)
	return &out
}

func (self *MemoryStore) GetDebate(ctx context.Context, ledgerId string) (*Debate, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	debate, ok := self.debates[ledgerId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDebate(debate), nil
}

func (self *MemoryStore) ListLedgerBacked(ctx context.Context, statuses []DebateStatus) (out []*Debate, err error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	for _, debate := range self.debates {
		if debate.ContractAddress == "" {
			continue
		}
		for _, status := range statuses {
			if debate.Status == status {
				out = append(out, cloneDebate(debate))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LedgerId < out[j].LedgerId })
	return
}

func (self *MemoryStore) InsertDebate(ctx context.Context, debate *Debate) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.debates[debate.LedgerId]; ok {
		return ErrAlreadyExists
	}
	now := time.Now()
	debate.CreatedAt = now
	debate.UpdatedAt = now
	self.debates[debate.LedgerId] = cloneDebate(debate)
	return nil
}

func (self *MemoryStore) UpdateFields(ctx context.Context, ledgerId string, fields map[string]interface{}) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.applyFields(ledgerId, fields)
}

func (self *MemoryStore) UpdateFieldsWithAudit(ctx context.Context, ledgerId string, fields map[string]interface{}, entry SyncError) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	err := self.applyFields(ledgerId, fields)
	if err != nil {
		return err
	}
	debate := self.debates[ledgerId]
	debate.SyncErrors = append(debate.SyncErrors, entry)
	return nil
}

func (self *MemoryStore) applyFields(ledgerId string, fields map[string]interface{}) error {
	debate, ok := self.debates[ledgerId]
	if !ok {
		return ErrNotFound
	}

	for column, value := range fields {
		switch column {
		case "topic":
			debate.Topic = value.(string)
		case "category":
			debate.Category = value.(string)
		case "tags":
			debate.Tags = append(debate.Tags[:0:0], value.([]string)...)
		case "metadata_pending":
			debate.MetadataPending = value.(bool)
		case "status":
			debate.Status = toDebateStatus(value)
		case "stake_amount":
			debate.StakeAmount = value.(string)
		case "creator_id":
			debate.CreatorId = value.(string)
		case "challenger_id":
			debate.ChallengerId = value.(string)
		case "winner_id":
			debate.WinnerId = value.(string)
		case "contract_address":
			debate.ContractAddress = value.(string)
		case "transaction_hash":
			debate.TransactionHash = value.(string)
		case "block_number":
			debate.BlockNumber = toUint64(value)
		case "chain_id":
			debate.ChainId = value.(int64)
		case "sync_status":
			debate.SyncStatus = toSyncStatus(value)
		case "last_synced_at":
			debate.LastSyncedAt = toTimePtr(value)
		case "last_synced_block":
			debate.LastSyncedBlock = toUint64(value)
		case "on_chain_winner":
			debate.OnChainWinner = value.(string)
		case "on_chain_status":
			debate.OnChainStatus = value.(string)
		case "prize_claimed":
			debate.PrizeClaimed = toTimePtr(value)
		case "prize_claim_tx_hash":
			debate.PrizeClaimTxHash = value.(string)
		case "prize_claim_amount":
			debate.PrizeClaimAmount = value.(string)
		case "finalized_at":
			debate.FinalizedAt = toTimePtr(value)
		default:
			panic("unknown column: " + column)
		}
	}
	debate.UpdatedAt = time.Now()
	return nil
}

func toDebateStatus(value interface{}) DebateStatus {
	switch v := value.(type) {
	case DebateStatus:
		return v
	case string:
		return DebateStatus(strings.ToLower(v))
	}
	panic("unsupported status value")
}

func toSyncStatus(value interface{}) SyncStatus {
	switch v := value.(type) {
	case SyncStatus:
		return v
	case string:
		return SyncStatus(strings.ToLower(v))
	}
	panic("unsupported sync status value")
}

func toUint64(value interface{}) uint64 {
	switch v := value.(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	}
	panic("unsupported block number value")
}

func toTimePtr(value interface{}) *time.Time {
	switch v := value.(type) {
	case nil:
		return nil
	case *time.Time:
		return v
	case time.Time:
		return &v
	}
	panic("unsupported timestamp value")
}

func (self *MemoryStore) GetSyncState(ctx context.Context, name SyncedComponent) (*SyncState, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	state, ok := self.states[name]
	if !ok {
		return nil, ErrNotFound
	}
	out := *state
	return &out, nil
}

func (self *MemoryStore) SaveSyncState(ctx context.Context, state *SyncState) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	saved := *state
	saved.UpdatedAt = time.Now()
	self.states[state.Name] = &saved
	return nil
}
