package tenant

import (
	"github.com/lubetrack/lubetrack/internal/tenant/repository"
	"github.com/lubetrack/lubetrack/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
