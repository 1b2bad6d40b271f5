package transferwarning

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/service"
	"go.uber.org/fx"
)

var Module = fx.Module("transferwarning.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
