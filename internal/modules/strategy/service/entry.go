package service

import (
	"github.com/pkg/errors"

	"fibo_bot/internal/models"
)

type EntryConfig struct {
	// z2 свежий, если он на текущем баре или не дальше Z2Offset баров назад
	Z2Offset int
	// только current или ровно current-Z2Offset (сравнение по таймстемпу в оригинале)
	Z2ExactOffset bool

	GoldenRatio     float64 // 0.786
	StopRatio       float64 // 1.0 => z1
	TakeProfitRatio float64 // -0.272 => расширение за z2
	EntryAtLevel    bool    // вход по цене уровня, а не по close
}

func (c EntryConfig) withDefaults() EntryConfig {
	if c.GoldenRatio == 0 {
		c.GoldenRatio = GoldenRatio
	}
	if c.StopRatio == 0 {
		c.StopRatio = 1.0
	}
	return c
}

// Ratios уровни, которые должны быть в LevelSet для этих правил.
func (c EntryConfig) Ratios() []float64 {
	c = c.withDefaults()
	return []float64{c.GoldenRatio, c.StopRatio, c.TakeProfitRatio}
}

// FiboEntry правила входа от уровня 78.6. Без состояния между вызовами.
type FiboEntry struct {
	cfg EntryConfig
}

func NewFiboEntry(cfg EntryConfig) *FiboEntry {
	return &FiboEntry{cfg: cfg.withDefaults()}
}

func (e *FiboEntry) Evaluate(bars models.Bars, swing models.Swing, levels LevelSet, current int) (Decision, error) {
	if current < 0 || current >= len(bars) {
		return Decision{}, errors.Wrapf(ErrInsufficientData, "current index %d out of %d bars", current, len(bars))
	}

	// 1) свежесть z2
	age := current - swing.Z2.Index
	if !e.fresh(age) {
		return Decision{}, errors.Wrapf(ErrStaleSwing, "z2 is %d bars old (offset %d)", age, e.cfg.Z2Offset)
	}

	golden, ok := levels.Price(e.cfg.GoldenRatio)
	if !ok {
		return Decision{}, errors.Wrapf(ErrInvalidLevelGeometry, "level %.3f is missing", e.cfg.GoldenRatio)
	}

	// 2) направление
	closePx := bars[current].Close
	var dir models.Direction
	switch {
	case swing.Up() && closePx < golden:
		dir = models.DirectionLong
	case !swing.Up() && closePx > golden:
		dir = models.DirectionShort
	default:
		return Decision{}, errors.Wrapf(ErrNoRetracement, "close %.8f vs level %.8f (up=%v)", closePx, golden, swing.Up())
	}

	// 3) уровни
	sl, okSL := levels.Price(e.cfg.StopRatio)
	tp, okTP := levels.Price(e.cfg.TakeProfitRatio)
	if !okSL || !okTP {
		return Decision{}, errors.Wrap(ErrInvalidLevelGeometry, "sl/tp level is missing")
	}
	entry := closePx
	if e.cfg.EntryAtLevel {
		entry = golden
	}

	d := Decision{Direction: dir, Entry: entry, StopLoss: sl, TakeProfit: tp}
	// 4) sanity
	if err := CheckGeometry(d); err != nil {
		return Decision{}, err
	}
	return d, nil
}

func (e *FiboEntry) fresh(age int) bool {
	if age < 0 {
		return false
	}
	if age == 0 {
		return true
	}
	if e.cfg.Z2ExactOffset {
		return age == e.cfg.Z2Offset
	}
	return age <= e.cfg.Z2Offset
}

// CheckGeometry long sl < entry < tp, short tp < entry < sl.
func CheckGeometry(d Decision) error {
	switch d.Direction {
	case models.DirectionLong:
		if d.StopLoss < d.Entry && d.Entry < d.TakeProfit {
			return nil
		}
	case models.DirectionShort:
		if d.TakeProfit < d.Entry && d.Entry < d.StopLoss {
			return nil
		}
	}
	return errors.Wrapf(ErrInvalidLevelGeometry, "%s sl=%.8f entry=%.8f tp=%.8f",
		d.Direction, d.StopLoss, d.Entry, d.TakeProfit)
}
