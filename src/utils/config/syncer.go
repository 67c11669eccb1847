package config

import (
	"time"

	"github.com/spf13/viper"
)

type Syncer struct {
	// Number of progress payloads buffered before a forced flush
	ProgressBatchSize int

	// How often listener progress is flushed to sync_state
	ProgressFlushInterval time.Duration

	// Max interval between flush retries
	ProgressMaxBackoffInterval time.Duration
}

func setSyncerDefaults() {
	viper.SetDefault("Syncer.ProgressBatchSize", "50")
	viper.SetDefault("Syncer.ProgressFlushInterval", "10s")
	viper.SetDefault("Syncer.ProgressMaxBackoffInterval", "30s")
}
