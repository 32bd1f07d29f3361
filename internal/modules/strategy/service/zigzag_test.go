package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibo_bot/internal/models"
)

func TestZigZagLongSwing(t *testing.T) {
	zz := NewZigZag(testZigZag())
	pivots := DetectPivots(zz, longSetup(t))

	require.Len(t, pivots, 2)
	assert.Equal(t, models.PivotLow, pivots[0].Kind)
	assert.Equal(t, 2, pivots[0].Index)
	assert.Equal(t, 100.0, pivots[0].Price)
	assert.Equal(t, models.PivotHigh, pivots[1].Kind)
	assert.Equal(t, 5, pivots[1].Index)
	assert.Equal(t, 120.0, pivots[1].Price)
	assert.Equal(t, t0.Add(5*time.Hour), pivots[1].Time)
}

func TestZigZagRepivotKeepsMoreExtreme(t *testing.T) {
	bars := mkBars(t,
		[4]float64{104, 106, 102, 103},
		[4]float64{103, 104, 101, 102},
		[4]float64{102, 103, 100, 102},
		[4]float64{102, 106, 102, 105},
		[4]float64{105, 108, 104, 107},
		[4]float64{107, 110, 106, 109},
		[4]float64{109, 109, 106.5, 107},
		[4]float64{107, 108, 106, 107},
		[4]float64{107, 112, 107, 111},
		[4]float64{111, 115, 110, 114},
		[4]float64{113, 113, 109, 110},
	)
	pivots := DetectPivots(NewZigZag(testZigZag()), bars)

	// откат до 106 меньше 5% от 110, новый хай 115 заменяет 110
	require.Len(t, pivots, 2)
	assert.Equal(t, 100.0, pivots[0].Price)
	assert.Equal(t, 115.0, pivots[1].Price)
	assert.Equal(t, 9, pivots[1].Index)
}

func TestZigZagEqualExtremeKeepsOlder(t *testing.T) {
	bars := mkBars(t,
		[4]float64{104, 106, 102, 103},
		[4]float64{103, 104, 101, 102},
		[4]float64{102, 103, 100, 102},
		[4]float64{102, 106, 102, 105},
		[4]float64{105, 108, 104, 107},
		[4]float64{107, 110, 106, 109},
		[4]float64{109, 110, 107, 108},
		[4]float64{108, 108, 107, 107.5},
	)
	pivots := DetectPivots(NewZigZag(testZigZag()), bars)

	require.Len(t, pivots, 2)
	assert.Equal(t, 5, pivots[1].Index)
}

func TestZigZagAlternates(t *testing.T) {
	// синусоида с размахом 20%
	var rows [][4]float64
	prices := []float64{100, 104, 110, 116, 120, 116, 110, 104, 100, 104, 110, 116, 120, 116, 110, 104, 100, 104, 110}
	for i, p := range prices {
		open := p
		if i > 0 {
			open = max(p-1, min(prices[i-1], p+1))
		}
		rows = append(rows, [4]float64{open, p + 1, p - 1, p})
	}
	bars := mkBars(t, rows...)

	pivots := DetectPivots(NewZigZag(testZigZag()), bars)
	require.GreaterOrEqual(t, len(pivots), 3)
	for i := 1; i < len(pivots); i++ {
		assert.NotEqual(t, pivots[i-1].Kind, pivots[i].Kind, "pivot %d", i)
		assert.Greater(t, pivots[i].Index, pivots[i-1].Index)
		if pivots[i].Kind == models.PivotHigh {
			assert.Greater(t, pivots[i].Price, pivots[i-1].Price)
		} else {
			assert.Less(t, pivots[i].Price, pivots[i-1].Price)
		}
	}
}

func TestZigZagNewestBarsAreNotPivots(t *testing.T) {
	bars := longSetup(t)
	for p := range NewZigZag(testZigZag()).Pivots(bars) {
		assert.Less(t, p.Index, len(bars)-1)
	}
}

func TestZigZagIteratorStopsEarly(t *testing.T) {
	count := 0
	for range NewZigZag(testZigZag()).Pivots(longSetup(t)) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestLastSwingNeedsTwoPivots(t *testing.T) {
	// монотонный рост: максимум всегда в правом окне
	var rows [][4]float64
	for i := 0; i < 10; i++ {
		p := 100 + float64(i)
		rows = append(rows, [4]float64{p, p + 0.5, p - 0.5, p + 0.2})
	}
	_, ok := LastSwing(NewZigZag(testZigZag()), mkBars(t, rows...))
	assert.False(t, ok)

	_, ok = LastSwing(NewZigZag(testZigZag()), nil)
	assert.False(t, ok)
}

func TestLastSwing(t *testing.T) {
	swing, ok := LastSwing(NewZigZag(testZigZag()), longSetup(t))
	require.True(t, ok)
	assert.True(t, swing.Up())
	assert.Equal(t, 20.0, swing.Range())
}
