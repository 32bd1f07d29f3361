package barsource

import (
	"go.uber.org/fx"

	"fibo_bot/internal/modules/barsource/service"
	"fibo_bot/internal/modules/config"
)

func newSource(cfg *config.Config) service.Source {
	src := service.NewCSVSource(cfg.Runner.BarsDir, cfg.Runner.MaxBars)
	for _, coin := range cfg.Coins {
		src.WithFile(coin.Pair(), coin.BarsFile)
	}
	return src
}

func Module() fx.Option {
	return fx.Module("barsource",
		fx.Provide(newSource),
	)
}
