package service

import (
	"iter"

	"fibo_bot/internal/models"
)

// PivotDetector отдаёт чередующиеся пивоты по всей истории.
type PivotDetector interface {
	Pivots(bars models.Bars) iter.Seq[models.Pivot]
}

// Decision результат правил входа.
type Decision struct {
	Direction  models.Direction
	Entry      float64
	StopLoss   float64
	TakeProfit float64
}

// EntryEvaluator решает направление и SL/TP по текущему свингу.
type EntryEvaluator interface {
	Evaluate(bars models.Bars, swing models.Swing, levels LevelSet, current int) (Decision, error)
}

// Sizer переводит риск в объём ордера.
type Sizer interface {
	Size(entry, stopLoss float64, rc models.RiskContext) (float64, error)
}

// RiskManager внешний коллаборатор: ограничения символа (minSz, lotSz, плечо).
type RiskManager interface {
	Constraints(rc models.RiskContext) (models.Instrument, error)
}

// Condition дополнительный фильтр перед расчётом; false => no_signal.
type Condition func(bars models.Bars, tc models.TradingContext) bool

// Strategy то, что дергает раннер.
type Strategy interface {
	Name() string
	Live() models.StrategyLive
	Run(bars models.Bars, positions []models.Position, tc models.TradingContext) (models.SignalOutcome, error)
}
