package dashboard

import (
	"github.com/smallbiznis/greenpack/internal/dashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(service.NewService),
)
