package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tradebook/internal/clock"
	"github.com/smallbiznis/tradebook/internal/config"
	"github.com/smallbiznis/tradebook/internal/migration"
	"github.com/smallbiznis/tradebook/internal/observability"
	"github.com/smallbiznis/tradebook/internal/server"
	"github.com/smallbiznis/tradebook/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Sales, customers and document export
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
