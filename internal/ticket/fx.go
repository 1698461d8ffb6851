package ticket

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ticket.service",
	fx.Provide(service.NewService),
)
