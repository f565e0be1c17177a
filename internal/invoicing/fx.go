package invoicing

import (
	"github.com/smallbiznis/referral/internal/invoicing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoicing.service",
	fx.Provide(service.NewService),
)
