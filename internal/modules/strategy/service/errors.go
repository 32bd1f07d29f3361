package service

import (
	"github.com/pkg/errors"

	"fibo_bot/internal/models"
)

// Рыночные условия: Run превращает их в no_signal.
var (
	ErrInsufficientData       = errors.New("insufficient data")
	ErrStaleSwing             = errors.New("stale swing")
	ErrNoRetracement          = errors.New("no retracement")
	ErrInvalidLevelGeometry   = errors.New("invalid level geometry")
	ErrInsufficientRiskBudget = errors.New("insufficient risk budget")
	ErrConditionFailed        = errors.New("condition failed")
)

// Reason короткий код причины для no_signal и журнала.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrStaleSwing):
		return "stale_swing"
	case errors.Is(err, ErrNoRetracement):
		return "no_retracement"
	case errors.Is(err, ErrInvalidLevelGeometry):
		return "invalid_level_geometry"
	case errors.Is(err, ErrInsufficientRiskBudget):
		return "insufficient_risk_budget"
	case errors.Is(err, ErrConditionFailed):
		return "condition_failed"
	case errors.Is(err, models.ErrMalformedBars):
		return "malformed_bars"
	default:
		return "error"
	}
}

// IsMarketCondition ожидаемая ситуация рынка, а не ошибка вызывающего.
func IsMarketCondition(err error) bool {
	switch Reason(err) {
	case "", "malformed_bars", "error":
		return false
	default:
		return true
	}
}
