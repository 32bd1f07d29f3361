package runner

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	barsource "fibo_bot/internal/modules/barsource/service"
	"fibo_bot/internal/modules/config"
	health "fibo_bot/internal/modules/health/service"
	journal "fibo_bot/internal/modules/journal/service"
	strategy "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/internal/notify"
)

type params struct {
	fx.In

	Config   *config.Config
	Registry *strategy.Registry
	Limits   strategy.Limits
	Source   barsource.Source
	Journal  journal.Journal
	Notifier notify.Notifier
	State    *health.State
	Log      *zap.Logger
}

func newRunner(p params) *Runner {
	rc := p.Config.Runner
	return New(Options{
		Cron:        rc.Cron,
		RunOnStart:  rc.RunOnStart,
		Parallelism: rc.Parallelism,
		Timeout:     rc.Timeout,
		MaxLagBars:  rc.MaxLagBars,
	}, Deps{
		Coins:    p.Config.Coins,
		Registry: p.Registry,
		Limits:   p.Limits,
		Source:   p.Source,
		Journal:  p.Journal,
		Notifier: p.Notifier,
		State:    p.State,
		Log:      p.Log,
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(newRunner),
		fx.Invoke(func(lc fx.Lifecycle, r *Runner) {
			runCtx, cancel := context.WithCancel(context.Background())
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					return r.Start(runCtx)
				},
				OnStop: func(context.Context) error {
					cancel()
					r.Stop()
					return nil
				},
			})
		}),
	)
}
