package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
	"github.com/courierpay/courierpay/internal/migration"
	"github.com/courierpay/courierpay/internal/observability"
	"github.com/courierpay/courierpay/internal/server"
	"github.com/courierpay/courierpay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
