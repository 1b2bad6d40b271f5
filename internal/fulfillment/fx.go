package fulfillment

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fulfillment.service",
	fx.Provide(service.NewService),
)
