package config

import (
	"time"

	"github.com/spf13/viper"
)

type Tracker struct {
	// How many blocks on top of the transaction's block are needed
	// before it counts as final
	RequiredConfirmations uint64

	// How long a single confirmation wait may take before it fails
	Timeout time.Duration

	// Delay between receipt polls
	PollInterval time.Duration

	// How long confirmed results are kept for pure re-reads
	ResultCacheTTL time.Duration
}

func setTrackerDefaults() {
	viper.SetDefault("Tracker.RequiredConfirmations", "2")
	viper.SetDefault("Tracker.Timeout", "60s")
	viper.SetDefault("Tracker.PollInterval", "2s")
	viper.SetDefault("Tracker.ResultCacheTTL", "1h")
}
