package models

import "time"

// TradingContext то, что раннер знает о счёте на момент вызова.
type TradingContext struct {
	Symbol           string
	Timeframe        string
	AvailableBalance float64
	Now              time.Time
}

// RiskContext вход сайзера. RiskFraction=0 значит "взять из конфига стратегии".
type RiskContext struct {
	Symbol       string
	Timeframe    string
	Balance      float64
	RiskFraction float64
}

func (tc TradingContext) RiskContext(riskFraction float64) RiskContext {
	return RiskContext{
		Symbol:       tc.Symbol,
		Timeframe:    tc.Timeframe,
		Balance:      tc.AvailableBalance,
		RiskFraction: riskFraction,
	}
}
