package payment

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/payment/repository"
	paymentservice "github.com/oldski/sportsfestDashboard-sub002/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(paymentservice.NewService),
)
