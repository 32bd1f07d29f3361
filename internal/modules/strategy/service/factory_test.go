package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fibo_bot/internal/modules/config"
)

func appConfig() *config.Config {
	return &config.Config{
		Strategy: config.StrategySettings{
			Name:            DefaultName,
			MinBars:         5,
			Z2Offset:        1,
			ZigZagDepth:     2,
			ZigZagDeviation: 5,
			ZigZagBackstep:  1,
			GoldenLevel:     0.786,
			StopLossLevel:   1.0,
			TakeProfitLevel: -0.272,
			LiveEnabled:     true,
			FibonacciLevels: []config.FiboLevel{
				{Level: 0.5, Volume: 0.5, TP: true, TPToBreak: true},
				{Level: 0.9, SL: true},
			},
		},
		Risk: config.RiskSettings{RiskPct: 1, MaxPositions: 2, MaxRiskPct: 50, AllowedSymbols: []string{"btc"}},
		Coins: []config.Coin{
			{Symbol: "BTC", Timeframe: "60", AutoTrading: true, MinimalTickSize: 0.1, VolumeSize: 0.001, Leverage: 5},
			{Symbol: "ETH", Timeframe: "15m"},
		},
	}
}

const settingsYAML = `
strategy_settings:
  strategy_name: zigzag_fibo
  minimum_bars_for_strategy_calculation: 20
  z2_index_offset: 3
  dry_run: "true"
`

func TestBuildConfig(t *testing.T) {
	app := appConfig()
	cfg, err := BuildConfig(app, app.Coins[0], nil)
	require.NoError(t, err)

	assert.Equal(t, "BTC/USDT", cfg.Symbol)
	assert.Equal(t, "1h", cfg.Timeframe)
	assert.Equal(t, 5, cfg.MinBars)
	assert.True(t, cfg.LiveEnabled)
	assert.InDelta(t, 0.01, cfg.RiskFraction, 1e-12)
	assert.Equal(t, 0.1, cfg.TickSz)
	assert.Equal(t, 0.9, cfg.Entry.StopRatio)
	assert.Equal(t, []TargetConfig{{Level: 0.5, Volume: 0.5, TP: true, ToBreak: true}}, cfg.Targets)

	// у ETH auto_trading выключен
	cfg, err = BuildConfig(app, app.Coins[1], nil)
	require.NoError(t, err)
	assert.False(t, cfg.LiveEnabled)
}

func TestBuildConfigReadsProvider(t *testing.T) {
	p, err := config.NewSettingsFromReader(strings.NewReader(settingsYAML), "yaml")
	require.NoError(t, err)

	app := appConfig()
	cfg, err := BuildConfig(app, app.Coins[0], p)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MinBars)
	assert.Equal(t, 3, cfg.Entry.Z2Offset)
	assert.Equal(t, DefaultName, cfg.Name)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.LiveEnabled)
}

func TestBuildConfigOffsetBelowBackstep(t *testing.T) {
	app := appConfig()
	app.Strategy.ZigZagBackstep = 3
	_, err := BuildConfig(app, app.Coins[0], nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "below zigzag backstep")

	// env/viper не должен пробить ту же проверку
	p, err := config.NewSettingsFromReader(strings.NewReader("strategy_settings:\n  z2_index_offset: 0\n"), "yaml")
	require.NoError(t, err)
	_, err = BuildConfig(appConfig(), app.Coins[0], p)
	assert.Error(t, err)
}

func TestNewStrategyUnknownName(t *testing.T) {
	app := appConfig()
	app.Strategy.Name = "rsi_scale_in"
	_, err := NewStrategy(app, app.Coins[0], nil, zap.NewNop())
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	app := appConfig()
	reg, err := NewRegistry(app, nil, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT"}, reg.Symbols())
	s, ok := reg.Get("btc")
	require.True(t, ok)
	assert.Equal(t, DefaultName, s.Name())
	_, ok = reg.Get("SOL")
	assert.False(t, ok)

	app.Coins = append(app.Coins, config.Coin{Symbol: "BTC/USDT", Timeframe: "1h"})
	_, err = NewRegistry(app, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestLimitsFor(t *testing.T) {
	lim := LimitsFor(appConfig())
	assert.Equal(t, []string{"BTC/USDT"}, lim.AllowedSymbols)
	assert.Equal(t, 2, lim.MaxPositions)
	assert.InDelta(t, 0.5, lim.MaxRiskFraction, 1e-12)
}
