package config

import (
	"time"

	"github.com/spf13/viper"
)

type Reconciler struct {
	// Time between sweeps. This is also the upper bound on how stale the
	// cache may get after listener downtime - there is no event replay,
	// missed events are only recovered by the next sweep.
	Interval time.Duration

	// Ledger reads per second within one sweep. Reads are sequential,
	// the limiter only spaces them out to respect provider rate limits.
	ReadsPerSecond int

	// Redis channel sweep summaries are published to. Empty disables
	// publishing.
	ReportChannel string
}

func setReconcilerDefaults() {
	viper.SetDefault("Reconciler.Interval", "5m")
	viper.SetDefault("Reconciler.ReadsPerSecond", "4")
	viper.SetDefault("Reconciler.ReportChannel", "arena:reconciler:sweeps")
}
