package product

import (
	"github.com/resqfood/resq/internal/product/repository"
	"github.com/resqfood/resq/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
