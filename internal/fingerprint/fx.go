package fingerprint

import (
	"github.com/courierpay/courierpay/internal/fingerprint/repository"
	"github.com/courierpay/courierpay/internal/fingerprint/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fingerprint",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
