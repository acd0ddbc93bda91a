package messaging

import (
	"github.com/shulebooks/shulebooks/internal/messaging/repository"
	"github.com/shulebooks/shulebooks/internal/messaging/service"
	"go.uber.org/fx"
)

var Module = fx.Module("messaging.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
