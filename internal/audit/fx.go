package audit

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/audit/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
