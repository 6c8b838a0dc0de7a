package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/greenpack/internal/audit"
	"github.com/smallbiznis/greenpack/internal/auth"
	"github.com/smallbiznis/greenpack/internal/auth/session"
	"github.com/smallbiznis/greenpack/internal/authorization"
	"github.com/smallbiznis/greenpack/internal/blog"
	"github.com/smallbiznis/greenpack/internal/cache"
	"github.com/smallbiznis/greenpack/internal/clock"
	"github.com/smallbiznis/greenpack/internal/config"
	"github.com/smallbiznis/greenpack/internal/dashboard"
	"github.com/smallbiznis/greenpack/internal/inquiry"
	"github.com/smallbiznis/greenpack/internal/migration"
	"github.com/smallbiznis/greenpack/internal/observability"
	"github.com/smallbiznis/greenpack/internal/product"
	"github.com/smallbiznis/greenpack/internal/providers"
	"github.com/smallbiznis/greenpack/internal/ratelimit"
	"github.com/smallbiznis/greenpack/internal/scheduler"
	"github.com/smallbiznis/greenpack/internal/server"
	"github.com/smallbiznis/greenpack/internal/subscriber"
	"github.com/smallbiznis/greenpack/internal/sustainability"
	"github.com/smallbiznis/greenpack/internal/upload"
	"github.com/smallbiznis/greenpack/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,
		providers.Module,
		upload.Module,

		// Accounts
		auth.Module,
		session.Module,
		authorization.Module,
		audit.Module,

		// Functional Domains
		inquiry.Module,
		subscriber.Module,
		product.Module,
		sustainability.Module,
		blog.Module,
		dashboard.Module,

		scheduler.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
