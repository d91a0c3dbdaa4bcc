package candidate

import (
	"github.com/admitworks/matricula/internal/candidate/repository"
	"github.com/admitworks/matricula/internal/candidate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("candidate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
