package attendance

import (
	"github.com/shulebooks/shulebooks/internal/attendance/repository"
	"github.com/shulebooks/shulebooks/internal/attendance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("attendance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
