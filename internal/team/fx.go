package team

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/team/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/team/service"
	"go.uber.org/fx"
)

var Module = fx.Module("team.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
