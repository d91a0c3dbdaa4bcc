package feeschedule

import (
	"github.com/admitworks/matricula/internal/feeschedule/repository"
	"github.com/admitworks/matricula/internal/feeschedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeschedule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
