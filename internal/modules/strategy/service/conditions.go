package service

import (
	"fibo_bot/internal/models"
)

// MinBalanceCondition на счёте есть хотя бы minBalance.
func MinBalanceCondition(minBalance float64) Condition {
	return func(_ models.Bars, tc models.TradingContext) bool {
		return tc.AvailableBalance >= minBalance
	}
}
