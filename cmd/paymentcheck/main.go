package main

import (
	"context"
	"os"
	"strconv"

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

		fx.Invoke(RunPaymentCheck),
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

// RunPaymentCheck re-resolves pending payment rows for one year. The year
// is the optional first argument, defaulting to the current year.
func RunPaymentCheck(lc fx.Lifecycle, shutdowner fx.Shutdowner, svc reportdomain.Service, clk clock.Clock, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				year := clk.Now().Year()
				if len(os.Args) > 1 {
					parsed, err := strconv.Atoi(os.Args[1])
					if err != nil {
						log.Error("invalid year argument", zap.String("arg", os.Args[1]), zap.Error(err))
						_ = shutdowner.Shutdown(fx.ExitCode(2))
						return
					}
					year = parsed
				}

				code := 0
				if _, err := svc.SyncYear(context.Background(), year); err != nil {
					log.Error("payment check failed", zap.Int("year", year), zap.Error(err))
					code = 1
				}
				_ = shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
	})
}
