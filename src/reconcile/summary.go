package reconcile

import (
	"encoding/json"
	"time"
)

type ItemFailure struct {
	LedgerId string `json:"ledgerId"`
	Error    string `json:"error"`
}

// Outcome of one reconciliation sweep, published to Redis and exposed by
// the monitoring report
type SweepSummary struct {
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Repaired  int           `json:"repaired"`
	Failures  []ItemFailure `json:"failures,omitempty"`
}

func (self SweepSummary) MarshalBinary() ([]byte, error) {
	return json.Marshal(self)
}
