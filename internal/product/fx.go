package product

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/repository"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
