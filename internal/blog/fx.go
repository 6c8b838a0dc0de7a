package blog

import (
	"github.com/smallbiznis/greenpack/internal/blog/domain"
	"github.com/smallbiznis/greenpack/internal/blog/service"
	"github.com/smallbiznis/greenpack/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("blog.service",
	fx.Provide(repository.ProvideStore[domain.Post]),
	fx.Provide(service.New),
)
