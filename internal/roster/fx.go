package roster

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/roster/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/roster/service"
	"go.uber.org/fx"
)

var Module = fx.Module("roster.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
