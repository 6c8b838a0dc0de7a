package email

import (
	"strings"

	"github.com/smallbiznis/greenpack/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

const ProviderSMTP = "smtp"

func NewFromConfig(cfg config.Config, log *zap.Logger) Provider {
	if strings.ToLower(cfg.Email.Provider) != ProviderSMTP || cfg.Email.SMTPHost == "" {
		log.Named("providers.email").Info("email delivery disabled", zap.String("provider", cfg.Email.Provider))
		return &NoOpProvider{}
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUser,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.From,
	})
}
