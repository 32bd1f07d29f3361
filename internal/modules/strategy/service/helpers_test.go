package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fibo_bot/internal/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// ohlc: {open, high, low, close}, часовые бары от t0.
func mkBars(t *testing.T, rows ...[4]float64) models.Bars {
	t.Helper()
	bars := make(models.Bars, len(rows))
	for i, r := range rows {
		bars[i] = models.Bar{
			Time:  t0.Add(time.Duration(i) * time.Hour),
			Open:  r[0],
			High:  r[1],
			Low:   r[2],
			Close: r[3],
		}
	}
	require.NoError(t, bars.Validate())
	return bars
}

// longSetup: low 100 на баре 2, high 120 на баре 5, последний close 104 ниже 78.6 (104.28).
func longSetup(t *testing.T) models.Bars {
	return mkBars(t,
		[4]float64{108, 110, 105, 106},
		[4]float64{106, 108, 103, 104},
		[4]float64{104, 104, 100, 102},
		[4]float64{102, 109, 102, 108},
		[4]float64{108, 114, 107, 113},
		[4]float64{113, 120, 112, 118},
		[4]float64{112, 113, 103.5, 104},
	)
}

// shortSetup: зеркально: high 100 на баре 2, low 80 на баре 5, close 96 выше 95.72.
func shortSetup(t *testing.T) models.Bars {
	return mkBars(t,
		[4]float64{92, 95, 90, 94},
		[4]float64{94, 97, 92, 96},
		[4]float64{97, 100, 96, 98},
		[4]float64{97, 98, 91, 92},
		[4]float64{92, 93, 86, 87},
		[4]float64{87, 88, 80, 82},
		[4]float64{88, 96.5, 87, 96},
	)
}

// staleSetup: тот же свинг, но после z2 ещё четыре бара без новых пивотов.
func staleSetup(t *testing.T) models.Bars {
	return mkBars(t,
		[4]float64{108, 110, 105, 106},
		[4]float64{106, 108, 103, 104},
		[4]float64{104, 104, 100, 102},
		[4]float64{102, 109, 102, 108},
		[4]float64{108, 114, 107, 113},
		[4]float64{113, 120, 112, 118},
		[4]float64{117, 118, 115, 116},
		[4]float64{116, 119, 116, 117},
		[4]float64{117, 118.5, 116.5, 117},
		[4]float64{117, 118, 116, 117},
	)
}

func testZigZag() ZigZagConfig {
	return ZigZagConfig{Depth: 2, Backstep: 1, DeviationPct: 5}
}

func testConfig() Config {
	return Config{
		Name:         DefaultName,
		Symbol:       "BTC/USDT",
		Timeframe:    "1h",
		RiskFraction: 0.01,
		ZigZag:       testZigZag(),
		Entry: EntryConfig{
			Z2Offset:        1,
			TakeProfitRatio: -0.272,
		},
	}
}

func testContext() models.TradingContext {
	return models.TradingContext{
		Symbol:           "BTC/USDT",
		Timeframe:        "1h",
		AvailableBalance: 1000,
		Now:              t0.Add(100 * time.Hour),
	}
}
