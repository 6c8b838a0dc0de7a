package session

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("auth.session",
	fx.Provide(NewManager),
	fx.Invoke(logSettings),
)

func logSettings(m *Manager, log *zap.Logger) {
	log.Named("auth.session").Info("session cookie configured",
		zap.String("cookie", m.cookieName),
		zap.Duration("ttl", m.ttl),
		zap.Bool("secure", m.secure),
	)
}
