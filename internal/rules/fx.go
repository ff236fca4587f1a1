package rules

import (
	"github.com/courierpay/courierpay/internal/rules/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rules.service",
	fx.Provide(service.NewService),
)
