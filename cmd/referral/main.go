package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/referral/internal/clock"
	"github.com/smallbiznis/referral/internal/config"
	"github.com/smallbiznis/referral/internal/invoicing"
	"github.com/smallbiznis/referral/internal/ledger"
	"github.com/smallbiznis/referral/internal/observability"
	"github.com/smallbiznis/referral/internal/report"
	reportdomain "github.com/smallbiznis/referral/internal/report/domain"
	"github.com/smallbiznis/referral/internal/sheet"
	"github.com/smallbiznis/referral/internal/warehouse"
	"github.com/smallbiznis/referral/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		warehouse.Module,
		invoicing.Module,
		sheet.Module,
		ledger.Module,
		report.Module,

		fx.Invoke(RunReport),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// RunReport executes one batch and shuts the process down, carrying the
// run outcome as the exit code.
func RunReport(lc fx.Lifecycle, shutdowner fx.Shutdowner, svc reportdomain.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := 0
				if _, err := svc.Run(context.Background()); err != nil {
					log.Error("report run failed", zap.Error(err))
					code = 1
				}
				_ = shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
