package eventyear

import (
	"github.com/oldski/sportsfestDashboard-sub002/internal/eventyear/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("eventyear",
	fx.Provide(repository.Provide),
)
