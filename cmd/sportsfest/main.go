package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/oldski/sportsfestDashboard-sub002/internal/clock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	"github.com/oldski/sportsfestDashboard-sub002/internal/migration"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability"
	"github.com/oldski/sportsfestDashboard-sub002/internal/server"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/db"
	"github.com/oldski/sportsfestDashboard-sub002/pkg/redis"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redis.Module,
		clock.Module,
		migration.Module,

		// Domains and HTTP
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
