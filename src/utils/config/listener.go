package config

import (
	"time"

	"github.com/spf13/viper"
)

type Listener struct {
	// Base URL of the sync ingestion API the listener forwards decoded
	// events to
	IngestUrl string

	// Timeout for one forward request
	ForwardTimeout time.Duration

	// Workers forwarding decoded logs, so a slow ingestion call never
	// stalls log delivery
	NumWorkers int

	// Max queued forwards
	WorkerQueueSize int

	// Delay before a dropped subscription is re-established
	ResubscribeDelay time.Duration
}

func setListenerDefaults() {
	viper.SetDefault("Listener.IngestUrl", "http://127.0.0.1:8080")
	viper.SetDefault("Listener.ForwardTimeout", "10s")
	viper.SetDefault("Listener.NumWorkers", "4")
	viper.SetDefault("Listener.WorkerQueueSize", "100")
	viper.SetDefault("Listener.ResubscribeDelay", "5s")
}
