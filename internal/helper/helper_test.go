package helper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormTF(t *testing.T) {
	assert.Equal(t, "1h", NormTF("60"))
	assert.Equal(t, "1h", NormTF(" 1H "))
	assert.Equal(t, "15m", NormTF("candle15m"))
	assert.Equal(t, "1m", NormTF(""))
	assert.Equal(t, "4h", NormTF("4h"))
}

func TestTFDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1m":  time.Minute,
		"15":  15 * time.Minute,
		"60":  time.Hour,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
		"240": 240 * time.Minute,
	}
	for raw, want := range cases {
		got, ok := TFDuration(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, bad := range []string{"h", "xh", "1y", "-5"} {
		_, ok := TFDuration(bad)
		assert.False(t, ok, bad)
	}
}

func TestShiftTimestamp(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got, ok := ShiftTimestamp(t0, 3, "1h", -1)
	assert.True(t, ok)
	assert.Equal(t, t0.Add(-3*time.Hour), got)

	got, ok = ShiftTimestamp(t0, 2, "15m", 1)
	assert.True(t, ok)
	assert.Equal(t, t0.Add(30*time.Minute), got)

	_, ok = ShiftTimestamp(t0, 1, "bogus", 1)
	assert.False(t, ok)
}

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 104.0, RoundDownToTick(104.28, 0.5), 1e-9)
	assert.InDelta(t, 104.5, RoundUpToTick(104.28, 0.5), 1e-9)
	assert.InDelta(t, 104.5, RoundToTick(104.3, 0.5), 1e-9)
	assert.InDelta(t, 100.0, RoundDownToTick(100, 0.1), 1e-9)
	assert.InDelta(t, 100.0, RoundUpToTick(100, 0.1), 1e-9)
	assert.Equal(t, 1.2345, RoundToTick(1.2345, 0))
}
