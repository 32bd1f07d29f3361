package service

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"fibo_bot/internal/helper"
	"fibo_bot/internal/models"
	"fibo_bot/internal/modules/config"
)

const strategySection = "STRATEGY_SETTINGS"

// BuildConfig собирает конфиг стратегии для одной монеты.
// Имя, минимум баров, offset и live-флаги берутся через Provider, чтобы их можно было перекрыть env.
func BuildConfig(app *config.Config, coin config.Coin, p config.Provider) (Config, error) {
	s := app.Strategy

	name, minBars, offset := s.Name, s.MinBars, s.Z2Offset
	live, dryRun := s.LiveEnabled, s.DryRun
	if p != nil {
		var err error
		if name, err = config.StringSetting(p, strategySection, "STRATEGY_NAME", name); err != nil {
			return Config{}, err
		}
		if minBars, err = config.IntSetting(p, strategySection, "MINIMUM_BARS_FOR_STRATEGY_CALCULATION", minBars); err != nil {
			return Config{}, err
		}
		if offset, err = config.IntSetting(p, strategySection, "Z2_INDEX_OFFSET", offset); err != nil {
			return Config{}, err
		}
		if live, err = config.BoolSetting(p, strategySection, "LIVE_ENABLED", live); err != nil {
			return Config{}, err
		}
		if dryRun, err = config.BoolSetting(p, strategySection, "DRY_RUN", dryRun); err != nil {
			return Config{}, err
		}
	}
	if offset < 0 {
		return Config{}, errors.Errorf("z2 index offset must be >= 0, got %d", offset)
	}
	if offset < s.ZigZagBackstep {
		return Config{}, errors.Errorf("z2 index offset %d is below zigzag backstep %d", offset, s.ZigZagBackstep)
	}

	entry := EntryConfig{
		Z2Offset:        offset,
		Z2ExactOffset:   s.Z2ExactOffset,
		GoldenRatio:     s.GoldenLevel,
		StopRatio:       s.StopLossLevel,
		TakeProfitRatio: s.TakeProfitLevel,
		EntryAtLevel:    s.EntryAtLevel,
	}

	var targets []TargetConfig
	for _, lvl := range s.FibonacciLevels {
		// уровень с флагом sl перекрывает stop_loss_level
		if lvl.SL {
			entry.StopRatio = lvl.Level
		}
		if lvl.TP {
			targets = append(targets, TargetConfig{
				Level:   lvl.Level,
				Volume:  lvl.Volume,
				TP:      true,
				ToBreak: lvl.TPToBreak,
			})
		}
	}

	return Config{
		Name:         name,
		Symbol:       coin.Pair(),
		Timeframe:    helper.NormTF(coin.Timeframe),
		MinBars:      minBars,
		LiveEnabled:  live && coin.AutoTrading,
		DryRun:       dryRun,
		TickSz:       coin.MinimalTickSize,
		RiskFraction: app.Risk.RiskPct / 100,
		ZigZag: ZigZagConfig{
			Depth:        s.ZigZagDepth,
			Backstep:     s.ZigZagBackstep,
			DeviationPct: s.ZigZagDeviation,
			ATRPeriod:    s.ATRPeriod,
			ATRMult:      s.ATRMult,
		},
		Entry:   entry,
		Targets: targets,
	}, nil
}

// InstrumentFor ограничения сайзера из описания монеты.
func InstrumentFor(coin config.Coin) models.Instrument {
	return models.Instrument{
		InstID:   coin.Pair(),
		TickSz:   coin.MinimalTickSize,
		LotSz:    coin.LotSize,
		MinSz:    coin.VolumeSize,
		MaxMktSz: coin.MaxMktSize,
		CtVal:    coin.CtVal,
		Leverage: coin.Leverage,
	}
}

// LimitsFor лимиты валидатора из risk_settings.
func LimitsFor(app *config.Config) Limits {
	allowed := make([]string, 0, len(app.Risk.AllowedSymbols))
	for _, s := range app.Risk.AllowedSymbols {
		allowed = append(allowed, config.Coin{Symbol: s}.Pair())
	}
	return Limits{
		AllowedSymbols:  allowed,
		MaxPositions:    app.Risk.MaxPositions,
		MaxNotional:     app.Risk.MaxNotional,
		MaxRiskFraction: app.Risk.MaxRiskPct / 100,
	}
}

// NewStrategy фабрика по имени стратегии, как strategy_loader.
func NewStrategy(app *config.Config, coin config.Coin, p config.Provider, log *zap.Logger, opts ...Option) (*ZigZagFibo, error) {
	cfg, err := BuildConfig(app, coin, p)
	if err != nil {
		return nil, errors.Wrapf(err, "build strategy config for %s", coin.Symbol)
	}
	switch strings.ToLower(cfg.Name) {
	case DefaultName, "zigzagfibo", "zigzag_fibo_strategy":
	default:
		return nil, errors.Errorf("unknown strategy %q", cfg.Name)
	}

	if app.Strategy.MinBalanceUSDT > 0 {
		opts = append([]Option{WithConditions(MinBalanceCondition(app.Strategy.MinBalanceUSDT))}, opts...)
	}
	return NewZigZagFibo(cfg, NewStaticRiskManager(InstrumentFor(coin)), log, opts...), nil
}

// Registry стратегии по паре монеты.
type Registry struct {
	bySymbol map[string]*ZigZagFibo
	order    []string
}

func NewRegistry(app *config.Config, p config.Provider, log *zap.Logger) (*Registry, error) {
	r := &Registry{bySymbol: make(map[string]*ZigZagFibo, len(app.Coins))}
	for _, coin := range app.Coins {
		s, err := NewStrategy(app, coin, p, log)
		if err != nil {
			return nil, err
		}
		pair := coin.Pair()
		if _, dup := r.bySymbol[pair]; dup {
			return nil, errors.Errorf("duplicate coin %s", pair)
		}
		r.bySymbol[pair] = s
		r.order = append(r.order, pair)
	}
	return r, nil
}

func (r *Registry) Get(symbol string) (*ZigZagFibo, bool) {
	s, ok := r.bySymbol[config.Coin{Symbol: symbol}.Pair()]
	return s, ok
}

// Symbols в порядке из конфига.
func (r *Registry) Symbols() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
