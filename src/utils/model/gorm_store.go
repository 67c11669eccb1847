package model

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements DebateStore on top of Postgres
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (self *GormStore) GetDebate(ctx context.Context, ledgerId string) (debate *Debate, err error) {
	debate = new(Debate)
	err = self.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerId).
		First(debate).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *GormStore) ListLedgerBacked(ctx context.Context, statuses []DebateStatus) (debates []*Debate, err error) {
	err = self.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where("contract_address <> ''").
		Order("ledger_id ASC").
		Find(&debates).
		Error
	return
}

func (self *GormStore) InsertDebate(ctx context.Context, debate *Debate) (err error) {
	res := self.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(debate)
	if res.Error != nil {
		if strings.Contains(res.Error.Error(), "duplicate key") {
			return ErrAlreadyExists
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		// OnConflict swallowed the insert, another writer won the race
		return ErrAlreadyExists
	}
	return
}

func (self *GormStore) UpdateFields(ctx context.Context, ledgerId string, fields map[string]interface{}) (err error) {
	res := self.db.WithContext(ctx).
		Model(&Debate{}).
		Where("ledger_id = ?", ledgerId).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return
}

func (self *GormStore) UpdateFieldsWithAudit(ctx context.Context, ledgerId string, fields map[string]interface{}, entry SyncError) (err error) {
	return self.db.WithContext(ctx).
		Transaction(func(tx *gorm.DB) (err error) {
			var debate Debate
			err = tx.
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("ledger_id = ?", ledgerId).
				First(&debate).
				Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return
			}

			updates := make(map[string]interface{}, len(fields)+1)
			for k, v := range fields {
				updates[k] = v
			}
			updates["sync_errors"] = append(debate.SyncErrors, entry)

			return tx.
				Model(&Debate{}).
				Where("ledger_id = ?", ledgerId).
				Updates(updates).
				Error
		}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
}

func (self *GormStore) GetSyncState(ctx context.Context, name SyncedComponent) (state *SyncState, err error) {
	state = new(SyncState)
	err = self.db.WithContext(ctx).
		Where("name = ?", name).
		First(state).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return
}

func (self *GormStore) SaveSyncState(ctx context.Context, state *SyncState) (err error) {
	return self.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen_block", "last_seen_hash", "updated_at"}),
		}).
		Create(state).
		Error
}
