package plan

import (
	"github.com/lubetrack/lubetrack/internal/plan/repository"
	"github.com/lubetrack/lubetrack/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
