package upload

import (
	"fmt"

	"github.com/smallbiznis/greenpack/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("upload.service",
	fx.Provide(NewUploaderFromConfig),
	fx.Provide(NewSettings),
	fx.Provide(NewService),
)

func NewUploaderFromConfig(cfg config.Config) (Uploader, error) {
	switch cfg.Upload.Driver {
	case DriverS3:
		return NewS3Uploader(S3Config{
			Bucket:        cfg.Upload.Bucket,
			Region:        cfg.Upload.Region,
			Endpoint:      cfg.Upload.Endpoint,
			PublicBaseURL: cfg.Upload.PublicBaseURL,
		})
	case DriverLocal, "":
		return NewLocalUploader(cfg.Upload.LocalDir, cfg.Upload.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported upload driver %q", cfg.Upload.Driver)
	}
}

func NewSettings(cfg config.Config) Settings {
	return Settings{Driver: cfg.Upload.Driver, MaxBytes: cfg.Upload.MaxBytes}
}
