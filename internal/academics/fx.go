package academics

import (
	"github.com/admitworks/matricula/internal/academics/repository"
	"github.com/admitworks/matricula/internal/academics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("academics.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
