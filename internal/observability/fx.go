package observability

import (
	"github.com/smallbiznis/referral/internal/config"
	"github.com/smallbiznis/referral/internal/observability/logger"
	"github.com/smallbiznis/referral/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		provideLoggerConfig,
		logger.New,
		provideMetricsConfig,
		metrics.New,
	),
)

func provideLoggerConfig(cfg config.Config) logger.Config {
	return logger.Config{
		ServiceName:         cfg.AppName,
		Environment:         cfg.Environment,
		Version:             cfg.AppVersion,
		Level:               cfg.LogLevel,
		Format:              cfg.LogFormat,
		IncludeCaller:       true,
		IncludeStackOnError: true,
	}
}

func provideMetricsConfig(cfg config.Config) metrics.Config {
	return metrics.Config{
		ServiceName:    cfg.AppName,
		Environment:    cfg.Environment,
		PushgatewayURL: cfg.PushgatewayURL,
	}
}
