package db

import (
	"fmt"

	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"
	gormprom "gorm.io/plugin/prometheus"
)

// statsRefreshSeconds is how often connection pool gauges are sampled.
const statsRefreshSeconds = 15

// Instrument attaches query tracing and pool metrics. Query parameters are
// never put on spans since they may carry payer names.
func Instrument(conn *gorm.DB, cfg config.Config) error {
	if err := conn.Use(otelgorm.NewPlugin(
		otelgorm.WithDBName(cfg.DBName),
		otelgorm.WithoutQueryVariables(),
	)); err != nil {
		return fmt.Errorf("db tracing plugin: %w", err)
	}
	if err := conn.Use(gormprom.New(gormprom.Config{
		DBName:          cfg.DBName,
		RefreshInterval: statsRefreshSeconds,
	})); err != nil {
		return fmt.Errorf("db metrics plugin: %w", err)
	}
	return nil
}
