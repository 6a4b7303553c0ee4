package store

import (
	"github.com/resqfood/resq/internal/store/repository"
	"github.com/resqfood/resq/internal/store/service"
	"go.uber.org/fx"
)

var Module = fx.Module("store.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
