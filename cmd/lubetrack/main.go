package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/lubetrack/lubetrack/internal/clock"
	"github.com/lubetrack/lubetrack/internal/config"
	"github.com/lubetrack/lubetrack/internal/logger"
	"github.com/lubetrack/lubetrack/internal/member"
	"github.com/lubetrack/lubetrack/internal/metrics"
	"github.com/lubetrack/lubetrack/internal/migration"
	"github.com/lubetrack/lubetrack/internal/payment"
	"github.com/lubetrack/lubetrack/internal/plan"
	"github.com/lubetrack/lubetrack/internal/scheduler"
	"github.com/lubetrack/lubetrack/internal/server"
	"github.com/lubetrack/lubetrack/internal/servicelog"
	"github.com/lubetrack/lubetrack/internal/subscription"
	"github.com/lubetrack/lubetrack/internal/tenant"
	"github.com/lubetrack/lubetrack/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// Functional domains
		plan.Module,
		tenant.Module,
		subscription.Module,
		payment.Module,
		servicelog.Module,
		member.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
