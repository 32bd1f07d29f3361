package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"fibo_bot/internal/models"
	"fibo_bot/pkg/db"
)

// Record одна строка журнала: результат стратегии и вердикт валидатора.
type Record struct {
	Outcome    models.SignalOutcome
	Executable bool
	Verdict    string // "ok" или код причины CanExecute
}

// Journal хранит историю сигналов.
type Journal interface {
	Save(ctx context.Context, rec Record) error
}

const schema = `
CREATE TABLE IF NOT EXISTS signal_journal (
	id          BIGSERIAL PRIMARY KEY,
	source      TEXT        NOT NULL,
	symbol      TEXT        NOT NULL,
	timeframe   TEXT        NOT NULL DEFAULT '',
	kind        TEXT        NOT NULL,
	reason      TEXT        NOT NULL DEFAULT '',
	direction   TEXT        NOT NULL DEFAULT '',
	entry       DOUBLE PRECISION,
	stop_loss   DOUBLE PRECISION,
	take_profit DOUBLE PRECISION,
	quantity    DOUBLE PRECISION,
	executable  BOOLEAN     NOT NULL DEFAULT FALSE,
	verdict     TEXT        NOT NULL DEFAULT '',
	z2_time     TIMESTAMPTZ,
	payload     JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
)`

const insertSQL = `
INSERT INTO signal_journal (
	source, symbol, timeframe, kind, reason, direction,
	entry, stop_loss, take_profit, quantity,
	executable, verdict, z2_time, payload, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

// PgJournal пишет в postgres через pgx.
type PgJournal struct {
	txm db.TxManager
}

func NewPgJournal(txm db.TxManager) *PgJournal {
	return &PgJournal{txm: txm}
}

func (j *PgJournal) EnsureSchema(ctx context.Context) error {
	if _, err := j.txm.Conn().Exec(ctx, schema); err != nil {
		return errors.Wrap(err, "create signal_journal")
	}
	return nil
}

func (j *PgJournal) Save(ctx context.Context, rec Record) error {
	payload, err := Payload(rec)
	if err != nil {
		return err
	}
	o := rec.Outcome

	z2 := o.Z2Time
	created := o.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	direction := ""
	if o.Direction != models.DirectionNone {
		direction = o.Direction.String()
	}

	return j.txm.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertSQL,
			o.Source, o.Symbol, o.Timeframe, string(o.Kind), o.Reason, direction,
			o.Entry, o.StopLoss, o.TakeProfit, o.Quantity,
			rec.Executable, rec.Verdict, z2, payload, created,
		)
		if err != nil {
			return errors.Wrap(err, "insert signal")
		}
		return nil
	})
}

// Payload полный сигнал в JSON для колонки payload.
func Payload(rec Record) ([]byte, error) {
	b, err := sonic.Marshal(struct {
		models.SignalOutcome
		Executable bool   `json:"executable"`
		Verdict    string `json:"verdict,omitempty"`
	}{rec.Outcome, rec.Executable, rec.Verdict})
	if err != nil {
		return nil, errors.Wrap(err, "marshal payload")
	}
	return b, nil
}

// Noop когда db_dsn не задан.
type Noop struct{}

func (Noop) Save(context.Context, Record) error { return nil }

// Memory держит записи в памяти, для CLI и тестов.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

func (m *Memory) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}
