package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/resqfood/resq/internal/clock"
	"github.com/resqfood/resq/internal/config"
	"github.com/resqfood/resq/internal/migration"
	"github.com/resqfood/resq/internal/observability"
	"github.com/resqfood/resq/internal/server"
	"github.com/resqfood/resq/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
