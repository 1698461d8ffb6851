package lead

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lead.service",
	fx.Provide(service.NewService),
)
