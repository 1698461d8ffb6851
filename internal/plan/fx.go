package plan

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(service.NewService),
)
