package inquiry

import (
	"github.com/smallbiznis/greenpack/internal/inquiry/domain"
	"github.com/smallbiznis/greenpack/internal/inquiry/service"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inquiry.service",
	fx.Provide(repository.ProvideStore[domain.Inquiry]),
	fx.Provide(service.New),
)
