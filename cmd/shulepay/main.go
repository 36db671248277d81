package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/internal/clock"
	"github.com/shulepay/shulepay/internal/config"
	"github.com/shulepay/shulepay/internal/logger"
	"github.com/shulepay/shulepay/internal/migration"
	"github.com/shulepay/shulepay/internal/server"
	"github.com/shulepay/shulepay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
