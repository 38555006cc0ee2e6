package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// parseEnv overlays SGU_* environment variables. Only variables that are set
// replace the current values.
func parseEnv(cfg *Config) {
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		panic(err)
	}
}
