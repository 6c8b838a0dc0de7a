package subscriber

import (
	"github.com/smallbiznis/greenpack/internal/subscriber/domain"
	"github.com/smallbiznis/greenpack/internal/subscriber/service"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("subscriber.service",
	fx.Provide(repository.ProvideStore[domain.Subscriber]),
	fx.Provide(service.New),
)
