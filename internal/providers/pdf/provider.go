package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateImpactReport(ctx context.Context, data ImpactReportData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateImpactReport(ctx context.Context, data ImpactReportData) (io.Reader, error) {
	return nil, nil
}
