package profile

import (
	"github.com/resqfood/resq/internal/profile/repository"
	"github.com/resqfood/resq/internal/profile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("profile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
