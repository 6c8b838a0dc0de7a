package sustainability

import (
	"github.com/smallbiznis/greenpack/internal/sustainability/domain"
	"github.com/smallbiznis/greenpack/internal/sustainability/service"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("sustainability.service",
	fx.Provide(repository.ProvideStore[domain.Metric]),
	fx.Provide(service.New),
)
