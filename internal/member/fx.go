package member

import (
	"github.com/lubetrack/lubetrack/internal/member/repository"
	"github.com/lubetrack/lubetrack/internal/member/service"
	"go.uber.org/fx"
)

var Module = fx.Module("member.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
