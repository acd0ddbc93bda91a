package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shulebooks/shulebooks/internal/attendance"
	"github.com/shulebooks/shulebooks/internal/authorization"
	"github.com/shulebooks/shulebooks/internal/clock"
	"github.com/shulebooks/shulebooks/internal/config"
	"github.com/shulebooks/shulebooks/internal/dashboard"
	"github.com/shulebooks/shulebooks/internal/feeschedule"
	"github.com/shulebooks/shulebooks/internal/logger"
	"github.com/shulebooks/shulebooks/internal/messaging"
	"github.com/shulebooks/shulebooks/internal/metrics"
	"github.com/shulebooks/shulebooks/internal/migration"
	"github.com/shulebooks/shulebooks/internal/payment"
	"github.com/shulebooks/shulebooks/internal/providers/pdf"
	"github.com/shulebooks/shulebooks/internal/providers/whatsapp"
	"github.com/shulebooks/shulebooks/internal/ratelimit"
	"github.com/shulebooks/shulebooks/internal/scheduler"
	"github.com/shulebooks/shulebooks/internal/server"
	"github.com/shulebooks/shulebooks/internal/staff"
	"github.com/shulebooks/shulebooks/internal/student"
	"github.com/shulebooks/shulebooks/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		authorization.Module,

		// Providers
		whatsapp.Module,
		pdf.Module,

		// Functional domains
		student.Module,
		feeschedule.Module,
		payment.Module,
		attendance.Module,
		staff.Module,
		messaging.Module,
		dashboard.Module,

		// Outer surfaces
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
