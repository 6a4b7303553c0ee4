package order

import (
	"github.com/resqfood/resq/internal/order/repository"
	"github.com/resqfood/resq/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
