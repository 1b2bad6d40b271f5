package tent

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
