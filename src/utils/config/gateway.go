package config

import (
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address
	ListenAddress string

	// Address the monitoring endpoints (health, metrics) listen on
	MonitoringListenAddress string

	ServerRequestTimeout time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.ListenAddress", ":8080")
	viper.SetDefault("Gateway.MonitoringListenAddress", ":7777")
	viper.SetDefault("Gateway.ServerRequestTimeout", "30s")
}
