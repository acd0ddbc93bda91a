package student

import (
	"github.com/shulebooks/shulebooks/internal/student/repository"
	"github.com/shulebooks/shulebooks/internal/student/service"
	"go.uber.org/fx"
)

var Module = fx.Module("student.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
