package config

import (
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewLimitsHolder),
	fx.Provide(func(cfg Config) (*time.Location, error) { return cfg.Location() }),
)
