package main

import (
	"github.com/admitworks/matricula/internal/academics"
	"github.com/admitworks/matricula/internal/audit"
	"github.com/admitworks/matricula/internal/candidate"
	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/dashboard"
	"github.com/admitworks/matricula/internal/feeschedule"
	"github.com/admitworks/matricula/internal/migration"
	"github.com/admitworks/matricula/internal/observability"
	"github.com/admitworks/matricula/internal/payment"
	"github.com/admitworks/matricula/internal/providers"
	"github.com/admitworks/matricula/internal/server"
	"github.com/admitworks/matricula/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		providers.Module,
		academics.Module,
		candidate.Module,
		feeschedule.Module,
		payment.Module,
		audit.Module,
		dashboard.Module,

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
