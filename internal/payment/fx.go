package payment

import (
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(service.NewService),
)
