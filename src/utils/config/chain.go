package config

import (
	"time"

	"github.com/spf13/viper"
)

type Chain struct {
	// JSON-RPC endpoint of the ledger provider
	RpcUrl string

	// Websocket endpoint used for log subscriptions
	WsUrl string

	// Address of the debate factory contract
	FactoryAddress string

	// Numeric chain id stamped on cached rows
	Id int64

	// Timeout for a single eth_call
	CallTimeout time.Duration
}

func setChainDefaults() {
	viper.SetDefault("Chain.RpcUrl", "http://127.0.0.1:8545")
	viper.SetDefault("Chain.WsUrl", "ws://127.0.0.1:8546")
	viper.SetDefault("Chain.FactoryAddress", "")
	viper.SetDefault("Chain.Id", "8453")
	viper.SetDefault("Chain.CallTimeout", "10s")
}
