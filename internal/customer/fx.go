package customer

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(service.NewService),
)
