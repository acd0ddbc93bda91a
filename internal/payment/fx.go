package payment

import (
	"github.com/shulebooks/shulebooks/internal/payment/repository"
	"github.com/shulebooks/shulebooks/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
