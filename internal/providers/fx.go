package providers

import (
	"github.com/smallbiznis/greenpack/internal/providers/email"
	"github.com/smallbiznis/greenpack/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
