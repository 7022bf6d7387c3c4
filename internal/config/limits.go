package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Action names recognised by the rate limiter.
const (
	ActionParsePayment = "parse_payment"
	ActionAdminCommand = "admin_command"
	ActionPatternTest  = "pattern_test"
)

// LimitsConfig holds per-action ceilings for one rolling minute.
type LimitsConfig struct {
	Default int            `mapstructure:"default"`
	Actions map[string]int `mapstructure:"actions"`
}

func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		Default: 50,
		Actions: map[string]int{
			ActionParsePayment: 100,
			ActionAdminCommand: 20,
			ActionPatternTest:  10,
		},
	}
}

// Ceiling returns the configured ceiling for action, or the default.
func (c LimitsConfig) Ceiling(action string) int {
	if limit, ok := c.Actions[strings.ToLower(strings.TrimSpace(action))]; ok && limit > 0 {
		return limit
	}
	if c.Default > 0 {
		return c.Default
	}
	return DefaultLimitsConfig().Default
}

type LimitsHolder struct {
	current atomic.Value // holds LimitsConfig
}

// NewStaticLimitsHolder wraps a fixed LimitsConfig, mostly for tests.
func NewStaticLimitsHolder(cfg LimitsConfig) *LimitsHolder {
	holder := &LimitsHolder{}
	holder.current.Store(cfg)
	return holder
}

// NewLimitsHolder reads limits.yml and keeps it reloaded on change.
func NewLimitsHolder(cfg Config, log *zap.Logger) (*LimitsHolder, error) {
	v := viper.New()

	v.SetConfigName("limits")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.RateLimit.LimitsPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/paysignal")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYSIGNAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultLimitsConfig()
	v.SetDefault("ratelimit.default", defaults.Default)
	v.SetDefault("ratelimit.actions", defaults.Actions)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var limits LimitsConfig
	if err := v.UnmarshalKey("ratelimit", &limits); err != nil {
		return nil, err
	}
	limits = mergeLimitDefaults(limits)
	if err := validateLimits(limits); err != nil {
		return nil, err
	}

	holder := NewStaticLimitsHolder(limits)
	if !fileLoaded {
		return holder, nil
	}

	log = log.Named("config.limits")
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated LimitsConfig
		if err := v.UnmarshalKey("ratelimit", &updated); err != nil {
			log.Warn("limits reload failed", zap.Error(err))
			return
		}
		updated = mergeLimitDefaults(updated)
		if err := validateLimits(updated); err != nil {
			log.Warn("invalid limits ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("limits reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *LimitsHolder) Get() LimitsConfig {
	return h.current.Load().(LimitsConfig)
}

func mergeLimitDefaults(cfg LimitsConfig) LimitsConfig {
	defaults := DefaultLimitsConfig()
	if cfg.Default <= 0 {
		cfg.Default = defaults.Default
	}
	merged := make(map[string]int, len(defaults.Actions)+len(cfg.Actions))
	for action, limit := range defaults.Actions {
		merged[action] = limit
	}
	for action, limit := range cfg.Actions {
		merged[strings.ToLower(strings.TrimSpace(action))] = limit
	}
	cfg.Actions = merged
	return cfg
}

func validateLimits(cfg LimitsConfig) error {
	if cfg.Default <= 0 {
		return errors.New("ratelimit.default must be positive")
	}
	for action, limit := range cfg.Actions {
		if limit <= 0 {
			return fmt.Errorf("ratelimit.actions.%s must be positive", action)
		}
	}
	return nil
}
