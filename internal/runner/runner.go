package runner

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
	barsource "fibo_bot/internal/modules/barsource/service"
	"fibo_bot/internal/modules/config"
	health "fibo_bot/internal/modules/health/service"
	journal "fibo_bot/internal/modules/journal/service"
	strategy "fibo_bot/internal/modules/strategy/service"
	"fibo_bot/internal/notify"
	"fibo_bot/pkg/tracing"
)

type Options struct {
	Cron        string
	RunOnStart  bool
	Parallelism int
	Timeout     time.Duration
	MaxLagBars  int // бары старше now-MaxLagBars*tf считаем протухшими, 0 = не проверять
}

// Runner по расписанию прогоняет стратегию по всем монетам.
type Runner struct {
	opts   Options
	coins  []config.Coin
	reg    *strategy.Registry
	limits strategy.Limits
	src    barsource.Source
	jr     journal.Journal
	n      notify.Notifier
	state  *health.State
	book   *PaperBook
	log    *zap.Logger
	now    func() time.Time

	cron *cron.Cron

	mu       sync.Mutex
	notified map[string]string // symbol -> ключ последнего отправленного входа
}

type Deps struct {
	Coins    []config.Coin
	Registry *strategy.Registry
	Limits   strategy.Limits
	Source   barsource.Source
	Journal  journal.Journal
	Notifier notify.Notifier
	State    *health.State
	Log      *zap.Logger
}

func New(opts Options, d Deps) *Runner {
	if opts.Parallelism <= 0 {
		opts.Parallelism = 1
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.State == nil {
		d.State = health.NewState()
	}
	if d.Journal == nil {
		d.Journal = journal.Noop{}
	}
	return &Runner{
		opts:     opts,
		coins:    d.Coins,
		reg:      d.Registry,
		limits:   d.Limits,
		src:      d.Source,
		jr:       d.Journal,
		n:        d.Notifier,
		state:    d.State,
		book:     NewPaperBook(),
		log:      d.Log.Named("runner"),
		now:      func() time.Time { return time.Now().UTC() },
		notified: make(map[string]string),
	}
}

// Start регистрирует задачу в cron. ctx живёт до Stop.
func (r *Runner) Start(ctx context.Context) error {
	r.cron = cron.New(cron.WithSeconds())
	if _, err := r.cron.AddFunc(r.opts.Cron, func() { r.tick(ctx) }); err != nil {
		return errors.Wrapf(err, "register runner cron %q", r.opts.Cron)
	}
	r.cron.Start()
	r.log.Info("runner started", zap.String("cron", r.opts.Cron), zap.Int("coins", len(r.coins)))

	if r.opts.RunOnStart {
		go r.tick(ctx)
	}
	return nil
}

func (r *Runner) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.log.Info("runner stopped")
}

func (r *Runner) tick(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		r.log.Error("runner pass failed", zap.Error(err))
	}
}

// RunOnce один проход по всем монетам. Ошибка одной монеты не останавливает остальные.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	span, ctx := tracing.StartSpan(ctx, "runner.pass", opentracing.Tags{"coins": len(r.coins)})
	defer span.Finish()

	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)
	for _, coin := range r.coins {
		g.Go(func() error {
			if err := r.evaluate(gctx, coin); err != nil {
				r.state.Fail()
				r.log.Warn("coin evaluation failed", zap.String("symbol", coin.Pair()), zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
			// контекст прохода отменяется только по таймауту или остановке
			return ctx.Err()
		})
	}
	err := g.Wait()

	r.state.TouchRun(r.now())
	r.state.SetReady(true)
	if err != nil {
		tracing.Fail(span, err)
		return errors.Wrap(err, "runner pass")
	}
	if failed > 0 {
		r.log.Info("runner pass finished with failures", zap.Int("failed", failed))
	}
	return nil
}

func (r *Runner) evaluate(ctx context.Context, coin config.Coin) error {
	symbol := coin.Pair()
	tf := helper.NormTF(coin.Timeframe)

	span, ctx := tracing.StartSpan(ctx, "strategy.evaluate", opentracing.Tags{"symbol": symbol, "timeframe": tf})
	defer span.Finish()

	strat, ok := r.reg.Get(symbol)
	if !ok {
		return errors.Errorf("no strategy for %s", symbol)
	}

	bars, err := r.src.Bars(ctx, symbol, tf)
	if err != nil {
		tracing.Fail(span, err)
		return errors.Wrap(err, "load bars")
	}

	now := r.now()
	last, _ := bars.Last()
	if r.opts.MaxLagBars > 0 {
		if edge, ok := helper.ShiftTimestamp(now, r.opts.MaxLagBars, tf, -1); ok && last.Time.Before(edge) {
			r.log.Warn("bars are stale", zap.String("symbol", symbol), zap.Time("last_bar", last.Time))
			return nil
		}
	}

	// сначала закрываем бумажные позиции по последнему бару
	for _, c := range r.book.Mark(symbol, last) {
		r.log.Info("paper position closed", zap.String("symbol", symbol), zap.String("by", c.Status), zap.Float64("exit", c.Exit))
		r.notify("📕 %s %s закрыта по %s: %g", c.Symbol, c.Side, c.Status, c.Exit)
	}

	tc := models.TradingContext{
		Symbol:           symbol,
		Timeframe:        tf,
		AvailableBalance: coin.StartDepositUSDT,
		Now:              now,
	}
	positions := r.book.Open()

	out, err := strat.Run(bars, positions, tc)
	if err != nil {
		tracing.Fail(span, err)
		return errors.Wrap(err, "strategy run")
	}
	span.SetTag("kind", string(out.Kind))
	r.state.Observe(out)

	if !out.IsEntry() {
		span.SetTag("reason", out.Reason)
		r.log.Debug("no signal", zap.String("symbol", symbol), zap.String("reason", out.Reason))
		return nil
	}

	if !r.firstTime(out) {
		return nil
	}

	executable, verdict := strategy.CanExecute(strat.Live(), out, positions, tc, r.limits)
	span.SetTag("verdict", verdict)

	if err := r.jr.Save(ctx, journal.Record{Outcome: out, Executable: executable, Verdict: verdict}); err != nil {
		r.log.Error("journal save failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if executable {
		r.book.Add(out, last.Time)
	}

	r.log.Info("entry signal",
		zap.String("symbol", symbol),
		zap.Stringer("direction", out.Direction),
		zap.Float64("entry", out.Entry),
		zap.Float64("sl", out.StopLoss),
		zap.Float64("tp", out.TakeProfit),
		zap.Float64("qty", out.Quantity),
		zap.String("verdict", verdict),
	)
	r.notify("%s", notify.FormatSignal(out, verdict))
	return nil
}

// firstTime: один свинг даёт одно уведомление и одну запись, пока z2 считается свежим.
func (r *Runner) firstTime(o models.SignalOutcome) bool {
	key := o.Direction.String()
	if o.Z2Time != nil {
		key += "|" + o.Z2Time.Format(time.RFC3339)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notified[o.Symbol] == key {
		return false
	}
	r.notified[o.Symbol] = key
	return true
}

func (r *Runner) notify(format string, args ...any) {
	if r.n == nil {
		return
	}
	r.n.Sendf(format, args...)
}
