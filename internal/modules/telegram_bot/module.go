package telegram

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"fibo_bot/internal/modules/config"
	health "fibo_bot/internal/modules/health/service"
	"fibo_bot/internal/notify"
)

// newNotifier: без токена или chat_id сообщения уходят в лог.
func newNotifier(lc fx.Lifecycle, cfg *config.Config, state *health.State, log *zap.Logger) (notify.Notifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Info("telegram is not configured, notifications go to log")
		return notify.NewLog(log.Named("notify")), nil
	}

	t, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log.Named("telegram"))
	if err != nil {
		return nil, err
	}
	t.SetStatus(state.Summary)

	// контекст long-polling живёт до OnStop
	pollCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return t.Start(pollCtx)
		},
		OnStop: func(context.Context) error {
			cancel()
			t.Stop()
			return nil
		},
	})
	return t, nil
}

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(newNotifier),
	)
}
