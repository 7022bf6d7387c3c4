package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("rate.limit",
	fx.Provide(NewLimiter),
)

const sweepInterval = 5 * time.Minute

// NewLimiter picks the limiter backend from configuration.
func NewLimiter(lc fx.Lifecycle, cfg config.Config, limits *config.LimitsHolder, clk clock.Clock, log *zap.Logger) (Limiter, error) {
	log = log.Named("ratelimit")
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		log.Warn("rate limiting disabled")
		return NewNoop(), nil
	}

	ceilings := func() Ceilings { return limits.Get() }

	if limitCfg.Backend == config.RateLimitBackendRedis {
		addr := strings.TrimSpace(limitCfg.RedisAddr)
		if addr == "" {
			return nil, errors.New("rate limit redis addr is required")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: limitCfg.RedisPassword,
			DB:       limitCfg.RedisDB,
		})
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return client.Close() },
		})
		return NewRedisWindow(client, clk, ceilings), nil
	}

	window := NewSlidingWindow(clk, ceilings)
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				ticker := time.NewTicker(sweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n := window.Sweep(); n > 0 {
							log.Debug("swept idle rate limit buckets", zap.Int("count", n))
						}
					case <-stop:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
	return window, nil
}
