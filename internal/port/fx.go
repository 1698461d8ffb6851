package port

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/repository"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/service"
	"go.uber.org/fx"
)

var Module = fx.Module("port.service",
	fx.Provide(repository.ProvideRegistry),
	fx.Provide(repository.ProvideLog),
	fx.Provide(service.NewService),
)
