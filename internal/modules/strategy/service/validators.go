package service

import (
	"math"
	"slices"

	"fibo_bot/internal/models"
)

const ReasonOK = "ok"

// Limits ограничения live-исполнения из секции risk.
type Limits struct {
	AllowedSymbols  []string // пусто => любые
	MaxPositions    int      // 0 => без лимита
	MaxNotional     float64  // 0 => без лимита
	MaxRiskFraction float64  // notional <= balance * fraction; 0 => без лимита
}

// CanExecute решает, можно ли отправить entry-сигнал в рынок.
// Возвращает (true, "ok") или (false, код причины).
func CanExecute(live models.StrategyLive, sig models.SignalOutcome, positions []models.Position, tc models.TradingContext, lim Limits) (bool, string) {
	if !sig.IsEntry() {
		return false, "no_signal"
	}
	if !live.LiveEnabled {
		return false, "strategy_live_disabled"
	}
	if live.DryRun {
		return false, "dry_run_enabled"
	}

	symbol := tc.Symbol
	if symbol == "" {
		symbol = sig.Symbol
	}
	if len(lim.AllowedSymbols) > 0 && symbol != "" && !slices.Contains(lim.AllowedSymbols, symbol) {
		return false, "symbol_not_allowed:" + symbol
	}

	open := 0
	for _, p := range positions {
		if !p.Open() {
			continue
		}
		open++
		if p.Symbol == symbol {
			return false, "position_conflict:" + symbol
		}
	}
	if lim.MaxPositions > 0 && open >= lim.MaxPositions {
		return false, "max_positions_reached"
	}

	notional := sig.Notional()
	if math.IsNaN(notional) || math.IsInf(notional, 0) || notional <= 0 {
		return false, "validation_error"
	}
	if lim.MaxNotional > 0 && notional > lim.MaxNotional {
		return false, "notional_exceeds_max_notional"
	}
	if lim.MaxRiskFraction > 0 && tc.AvailableBalance > 0 && notional > tc.AvailableBalance*lim.MaxRiskFraction {
		return false, "notional_exceeds_max_risk_fraction"
	}

	return true, ReasonOK
}
