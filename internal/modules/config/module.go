package config

import "go.uber.org/fx"

// Module регистрирует *Config и Provider как fx-провайдеры.
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			NewConfig,
			NewSettings,
			func(s *Settings) Provider { return s },
		),
	)
}
