package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"fibo_bot/internal/modules/barsource"
	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/modules/health"
	"fibo_bot/internal/modules/postgres"
	"fibo_bot/internal/modules/strategy"
	telegram "fibo_bot/internal/modules/telegram_bot"
	"fibo_bot/internal/runner"
	"fibo_bot/pkg/logger"
	"fibo_bot/pkg/tracing"
)

const serviceName = "fibo_bot"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(serviceName)
	return logger.Init(cfg.Logging.Level)
}

func initTracing(lc fx.Lifecycle, cfg *config.Config) error {
	tracing.SetServiceName(serviceName)
	_, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return nil
}

func main() {
	app := fx.New(
		config.Module(),
		fx.Provide(newLogger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		fx.Invoke(initTracing),
		postgres.Module(),
		barsource.Module(),
		strategy.Module(),
		health.Module(),
		telegram.Module(),
		runner.Module(),
	)
	if err := app.Err(); err != nil {
		log.Fatal(err)
	}
	app.Run()
}
