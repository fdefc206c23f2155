package subscription

import (
	"github.com/lubetrack/lubetrack/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(service.New),
)
