package servicelog

import (
	"github.com/lubetrack/lubetrack/internal/servicelog/repository"
	"github.com/lubetrack/lubetrack/internal/servicelog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicelog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
