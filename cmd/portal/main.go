package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/clock"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/events"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/migration"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/logger"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/port"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/provision"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/seed"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/server"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket"
	"github.com/narmeshnigam/karyalaywebsite-sub001/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if err := seed.EnsureDefaultPlans(conn); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureAdminUser {
				return seed.EnsureAdminUser(conn, cfg)
			}
			return nil
		}),

		events.Module,
		audit.Module,
		customer.Module,
		plan.Module,
		subscription.Module,
		port.Module,
		provision.Module,
		payment.Module,
		ticket.Module,
		lead.Module,

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
