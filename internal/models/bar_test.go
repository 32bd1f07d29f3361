package models

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestBarsValidate(t *testing.T) {
	good := Bars{
		{Time: t0, Open: 10, High: 11, Low: 9, Close: 10.5},
		{Time: t0.Add(time.Hour), Open: 10.5, High: 12, Low: 10, Close: 11},
	}
	require.NoError(t, good.Validate())
	require.NoError(t, Bars(nil).Validate())

	cases := map[string]func(b Bars){
		"high below low":   func(b Bars) { b[1].High = 9 },
		"zero price":       func(b Bars) { b[0].Close = 0 },
		"negative price":   func(b Bars) { b[0].Low = -1 },
		"duplicate time":   func(b Bars) { b[1].Time = t0 },
		"unordered time":   func(b Bars) { b[1].Time = t0.Add(-time.Hour) },
		"zero timestamp":   func(b Bars) { b[0].Time = time.Time{} },
		"nan close":        func(b Bars) { b[0].Close = math.NaN() },
		"inf high":         func(b Bars) { b[1].High = math.Inf(1) },
		"-inf low":         func(b Bars) { b[1].Low = math.Inf(-1) },
		"close above high": func(b Bars) { b[0].Close = 50 },
		"close below low":  func(b Bars) { b[1].Close = 9.5 },
		"open below low":   func(b Bars) { b[0].Open = 8 },
		"open above high":  func(b Bars) { b[1].Open = 12.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := make(Bars, len(good))
			copy(b, good)
			mutate(b)
			assert.True(t, errors.Is(b.Validate(), ErrMalformedBars))
		})
	}
}

func TestBarsFromColumns(t *testing.T) {
	ts := []time.Time{t0, t0.Add(time.Minute)}
	bars, err := BarsFromColumns([]float64{1, 2}, []float64{2, 3}, []float64{0.5, 1.5}, []float64{1.5, 2.5}, ts)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 3.0, bars[1].High)

	_, err = BarsFromColumns([]float64{1}, []float64{2, 3}, []float64{0.5, 1.5}, []float64{1.5, 2.5}, ts)
	assert.True(t, errors.Is(err, ErrMalformedBars))

	_, err = BarsFromColumns([]float64{1, 2}, []float64{2, 3}, []float64{0.5, 1.5}, []float64{1.5, math.NaN()}, ts)
	assert.True(t, errors.Is(err, ErrMalformedBars))

	last, ok := bars.Last()
	assert.True(t, ok)
	assert.Equal(t, 2.5, last.Close)
	_, ok = Bars(nil).Last()
	assert.False(t, ok)

	assert.Equal(t, []float64{2, 3}, bars.Highs())
	assert.Equal(t, []float64{0.5, 1.5}, bars.Lows())
	assert.Equal(t, []float64{1.5, 2.5}, bars.Closes())
}

func TestSwing(t *testing.T) {
	up := Swing{Z1: Pivot{Price: 100, Kind: PivotLow}, Z2: Pivot{Price: 120, Kind: PivotHigh}}
	down := Swing{Z1: Pivot{Price: 120, Kind: PivotHigh}, Z2: Pivot{Price: 100, Kind: PivotLow}}
	assert.True(t, up.Up())
	assert.False(t, down.Up())
	assert.Equal(t, 20.0, up.Range())
	assert.Equal(t, 20.0, down.Range())
}

func TestSignalOutcome(t *testing.T) {
	ns := NoSignal("zigzag_fibo", "stale_swing")
	assert.False(t, ns.IsEntry())
	assert.Equal(t, OutcomeNoSignal, ns.Kind)
	assert.Equal(t, DirectionNone, ns.Direction)

	e := SignalOutcome{Kind: OutcomeEntry, Entry: 104, Quantity: 2.5}
	assert.True(t, e.IsEntry())
	assert.Equal(t, 260.0, e.Notional())

	assert.Equal(t, SideBuy, DirectionLong.Side())
	assert.Equal(t, SideSell, DirectionShort.Side())
	assert.Equal(t, SideNone, DirectionNone.Side())
	txt, _ := DirectionShort.MarshalText()
	assert.Equal(t, "SHORT", string(txt))
}

func TestTradingContextRisk(t *testing.T) {
	tc := TradingContext{Symbol: "BTC/USDT", Timeframe: "1h", AvailableBalance: 1000}
	rc := tc.RiskContext(0.02)
	assert.Equal(t, RiskContext{Symbol: "BTC/USDT", Timeframe: "1h", Balance: 1000, RiskFraction: 0.02}, rc)

	assert.True(t, Position{}.Open())
	assert.False(t, Position{Status: "CLOSED"}.Open())
}
