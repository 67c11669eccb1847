package common

import (
	"context"

	"github.com/debate-arena/syncer/src/utils/config"
)

type contextKey int

const configKey contextKey = iota

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, configKey, config)
}

func GetConfig(ctx context.Context) *config.Config {
	value, ok := ctx.Value(configKey).(*config.Config)
	if !ok {
		return nil
	}
	return value
}
