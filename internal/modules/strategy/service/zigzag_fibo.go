package service

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
)

const DefaultName = "zigzag_fibo"

// TargetConfig уровень из fibonacci_levels, помеченный как частичный тейк.
type TargetConfig struct {
	Level   float64
	Volume  float64
	TP      bool
	ToBreak bool
}

// Config читается один раз при создании стратегии и дальше не меняется.
type Config struct {
	Name      string
	Symbol    string
	Timeframe string

	MinBars     int
	LiveEnabled bool
	DryRun      bool

	TickSz       float64
	RiskFraction float64 // 0.01 => 1% баланса на сделку

	ZigZag  ZigZagConfig
	Entry   EntryConfig
	Targets []TargetConfig
}

// ZigZagFibo стратегия ZigZag + Fibonacci: вход от уровня 78.6 последнего свинга.
// Состояния между вызовами нет, один экземпляр можно дергать из разных горутин.
type ZigZagFibo struct {
	cfg        Config
	log        *zap.Logger
	detector   PivotDetector
	entry      EntryEvaluator
	sizer      Sizer
	conditions []Condition
	ratios     []float64
}

type Option func(*ZigZagFibo)

func WithDetector(d PivotDetector) Option { return func(s *ZigZagFibo) { s.detector = d } }

func WithEntryEvaluator(e EntryEvaluator) Option { return func(s *ZigZagFibo) { s.entry = e } }

func WithSizer(sz Sizer) Option { return func(s *ZigZagFibo) { s.sizer = sz } }

// WithConditions добавляет фильтры, которые проверяются до расчёта свинга.
func WithConditions(c ...Condition) Option {
	return func(s *ZigZagFibo) { s.conditions = append(s.conditions, c...) }
}

func NewZigZagFibo(cfg Config, rm RiskManager, log *zap.Logger, opts ...Option) *ZigZagFibo {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	cfg.Entry = cfg.Entry.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	s := &ZigZagFibo{
		cfg:      cfg,
		log:      log.With(zap.String("strategy", cfg.Name)),
		detector: NewZigZag(cfg.ZigZag),
		entry:    NewFiboEntry(cfg.Entry),
		sizer:    NewRiskSizer(rm, cfg.RiskFraction),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ratios = cfg.Entry.Ratios()
	for _, t := range cfg.Targets {
		s.ratios = append(s.ratios, t.Level)
	}
	return s
}

func (s *ZigZagFibo) Name() string { return s.cfg.Name }

func (s *ZigZagFibo) Config() Config { return s.cfg }

func (s *ZigZagFibo) Live() models.StrategyLive {
	return models.StrategyLive{LiveEnabled: s.cfg.LiveEnabled, DryRun: s.cfg.DryRun}
}

// Run entry или no_signal. Ошибка только при битых входных данных.
// Открытые позиции не смотрим: конфликты решает валидатор на стороне раннера.
func (s *ZigZagFibo) Run(bars models.Bars, positions []models.Position, tc models.TradingContext) (models.SignalOutcome, error) {
	out, err := s.Evaluate(bars, tc)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, models.ErrMalformedBars) {
		return models.SignalOutcome{}, err
	}

	reason := Reason(err)
	s.log.Debug("no signal",
		zap.String("symbol", s.symbol(tc)),
		zap.String("reason", reason),
		zap.Int("bars", len(bars)),
		zap.Int("positions", len(positions)),
		zap.Error(err),
	)
	ns := models.NoSignal(s.cfg.Name, reason)
	ns.Symbol = s.symbol(tc)
	ns.Timeframe = s.timeframe(tc)
	ns.Live = s.Live()
	ns.CreatedAt = tc.Now
	return ns, nil
}

// Evaluate прогоняет конвейер и возвращает классифицированную причину отказа.
func (s *ZigZagFibo) Evaluate(bars models.Bars, tc models.TradingContext) (models.SignalOutcome, error) {
	if err := bars.Validate(); err != nil {
		return models.SignalOutcome{}, err
	}
	if len(bars) < max(s.cfg.MinBars, 2) {
		return models.SignalOutcome{}, errors.Wrapf(ErrInsufficientData, "have %d bars, need %d", len(bars), max(s.cfg.MinBars, 2))
	}

	for i, cond := range s.conditions {
		if !cond(bars, tc) {
			return models.SignalOutcome{}, errors.Wrapf(ErrConditionFailed, "condition #%d", i)
		}
	}

	swing, ok := LastSwing(s.detector, bars)
	if !ok {
		return models.SignalOutcome{}, errors.Wrap(ErrInsufficientData, "less than 2 pivots")
	}
	levels := ComputeLevels(swing, s.ratios...)

	d, err := s.entry.Evaluate(bars, swing, levels, len(bars)-1)
	if err != nil {
		return models.SignalOutcome{}, err
	}

	// округление к тику может схлопнуть уровни: проверяем ещё раз
	d = s.roundToTick(d)
	if err = CheckGeometry(d); err != nil {
		return models.SignalOutcome{}, err
	}

	qty, err := s.sizer.Size(d.Entry, d.StopLoss, tc.RiskContext(s.cfg.RiskFraction))
	if err != nil {
		return models.SignalOutcome{}, err
	}

	z2 := swing.Z2.Time
	return models.SignalOutcome{
		Kind:       models.OutcomeEntry,
		Source:     s.cfg.Name,
		Symbol:     s.symbol(tc),
		Timeframe:  s.timeframe(tc),
		Direction:  d.Direction,
		Entry:      d.Entry,
		StopLoss:   d.StopLoss,
		TakeProfit: d.TakeProfit,
		Quantity:   qty,
		Targets:    s.targets(levels, d),
		Z2Time:     &z2,
		Live:       s.Live(),
		CreatedAt:  tc.Now,
	}, nil
}

// roundToTick: SL и TP уводим от входа, как в calcTradeParams.
func (s *ZigZagFibo) roundToTick(d Decision) Decision {
	tick := s.cfg.TickSz
	if tick <= 0 {
		return d
	}
	d.Entry = helper.RoundToTick(d.Entry, tick)
	if d.Direction == models.DirectionLong {
		d.StopLoss = helper.RoundDownToTick(d.StopLoss, tick)
		d.TakeProfit = helper.RoundUpToTick(d.TakeProfit, tick)
	} else {
		d.StopLoss = helper.RoundUpToTick(d.StopLoss, tick)
		d.TakeProfit = helper.RoundDownToTick(d.TakeProfit, tick)
	}
	return d
}

// targets: частичные тейки из fibonacci_levels по прибыльную сторону от входа,
// от ближнего к дальнему.
func (s *ZigZagFibo) targets(levels LevelSet, d Decision) []models.Target {
	var out []models.Target
	for _, t := range s.cfg.Targets {
		if !t.TP {
			continue
		}
		px, ok := levels.Price(t.Level)
		if !ok {
			continue
		}
		if d.Direction == models.DirectionLong {
			px = helper.RoundUpToTick(px, s.cfg.TickSz)
			if px <= d.Entry {
				continue
			}
		} else {
			px = helper.RoundDownToTick(px, s.cfg.TickSz)
			if px >= d.Entry {
				continue
			}
		}
		out = append(out, models.Target{Level: t.Level, Price: px, Volume: t.Volume, ToBreak: t.ToBreak})
	}
	slices.SortFunc(out, func(a, b models.Target) int {
		da, db := math.Abs(a.Price-d.Entry), math.Abs(b.Price-d.Entry)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		default:
			return 0
		}
	})
	return out
}

func (s *ZigZagFibo) symbol(tc models.TradingContext) string {
	if tc.Symbol != "" {
		return tc.Symbol
	}
	return s.cfg.Symbol
}

func (s *ZigZagFibo) timeframe(tc models.TradingContext) string {
	if tc.Timeframe != "" {
		return tc.Timeframe
	}
	return s.cfg.Timeframe
}
