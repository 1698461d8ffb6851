package subscription

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(service.NewService),
)
