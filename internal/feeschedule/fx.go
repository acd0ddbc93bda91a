package feeschedule

import (
	"github.com/shulebooks/shulebooks/internal/feeschedule/repository"
	"github.com/shulebooks/shulebooks/internal/feeschedule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeschedule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
