package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// One field where the cache and the ledger disagreed
type Discrepancy struct {
	Field  string `json:"field"`
	Cached string `json:"cachedValue"`
	Ledger string `json:"ledgerValue"`
}

// One audit trail entry appended when the reconciler repairs a row
type SyncError struct {
	Id            string        `json:"id"`
	Timestamp     time.Time     `json:"timestamp"`
	Type          string        `json:"type"`
	Message       string        `json:"message"`
	Discrepancies []Discrepancy `json:"discrepancies,omitempty"`
}

// Stored as a jsonb column
type SyncErrors []SyncError

func (self SyncErrors) Value() (driver.Value, error) {
	if self == nil {
		return "[]", nil
	}
	out, err := json.Marshal(self)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

func (self *SyncErrors) Scan(value interface{}) error {
	if value == nil {
		*self = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for sync_errors column")
	}
	return json.Unmarshal(data, self)
}
