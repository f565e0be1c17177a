package sheet

import (
	"github.com/smallbiznis/referral/internal/sheet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sheet.service",
	fx.Provide(service.NewService),
)
