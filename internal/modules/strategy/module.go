package strategy

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"fibo_bot/internal/modules/config"
	"fibo_bot/internal/modules/strategy/service"
)

func newRegistry(cfg *config.Config, p config.Provider, log *zap.Logger) (*service.Registry, error) {
	return service.NewRegistry(cfg, p, log.Named("strategy"))
}

func newLimits(cfg *config.Config) service.Limits { return service.LimitsFor(cfg) }

func Module() fx.Option {
	return fx.Module("strategy",
		fx.Provide(
			newRegistry, // *service.Registry: по стратегии на монету
			newLimits,   // service.Limits для валидатора
		),
		fx.Invoke(func(r *service.Registry, log *zap.Logger) {
			log.Info("strategies loaded", zap.Strings("symbols", r.Symbols()))
		}),
	)
}
