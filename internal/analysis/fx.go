package analysis

import (
	"github.com/courierpay/courierpay/internal/analysis/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analysis.service",
	fx.Provide(service.NewService),
)
