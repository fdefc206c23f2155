package payment

import (
	"github.com/lubetrack/lubetrack/internal/payment/adapters"
	"github.com/lubetrack/lubetrack/internal/payment/adapters/midtrans"
	"github.com/lubetrack/lubetrack/internal/payment/repository"
	"github.com/lubetrack/lubetrack/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(midtrans.NewFactory())
	}),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
