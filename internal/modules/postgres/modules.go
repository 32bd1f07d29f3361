package postgres

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"fibo_bot/internal/modules/config"
	journal "fibo_bot/internal/modules/journal/service"
	"fibo_bot/pkg/db"
)

// newJournal: без db_dsn пишем в Noop, бот работает без базы.
func newJournal(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (journal.Journal, error) {
	if cfg.DB == "" {
		log.Info("db_dsn is empty, signal journal disabled")
		return journal.Noop{}, nil
	}

	ctx := context.Background()
	poolMaster, err := db.NewPool(ctx, db.PoolConfig{DSN: cfg.DB, MaxConns: 4})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create poolMaster")
	}
	txm := db.NewPgTxManager(poolMaster)
	j := journal.NewPgJournal(txm)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := poolMaster.Ping(ctx); err != nil {
				return errors.Wrap(err, "ping postgres")
			}
			return j.EnsureSchema(ctx)
		},
		OnStop: func(context.Context) error {
			txm.Close()
			return nil
		},
	})
	return j, nil
}

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(newJournal),
	)
}
