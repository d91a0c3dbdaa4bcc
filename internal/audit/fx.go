package audit

import (
	"github.com/admitworks/matricula/internal/audit/repository"
	"github.com/admitworks/matricula/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
