package main

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/smallbiznis/paysignal/internal/ingest"
	"github.com/smallbiznis/paysignal/internal/migration"
	"github.com/smallbiznis/paysignal/internal/observability"
	"github.com/smallbiznis/paysignal/internal/paymentsource"
	"github.com/smallbiznis/paysignal/internal/ratelimit"
	"github.com/smallbiznis/paysignal/internal/report"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	"github.com/smallbiznis/paysignal/internal/server"
	"github.com/smallbiznis/paysignal/internal/tenant"
	"github.com/smallbiznis/paysignal/internal/transaction"
	"github.com/smallbiznis/paysignal/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		ratelimit.Module,
		securitylog.Module,
		tenant.Module,
		paymentsource.Module,
		transaction.Module,
		ingest.Module,
		report.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", cfg.SnowflakeNode, err)
	}
	return node, nil
}
