// Package staff wires the staff and payroll service.
package staff

import (
	"github.com/shulebooks/shulebooks/internal/staff/repository"
	"github.com/shulebooks/shulebooks/internal/staff/service"
	"go.uber.org/fx"
)

var Module = fx.Module("staff.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
