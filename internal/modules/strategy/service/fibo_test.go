package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibo_bot/internal/models"
)

func upSwing() models.Swing {
	return models.Swing{
		Z1: models.Pivot{Index: 2, Price: 100, Kind: models.PivotLow},
		Z2: models.Pivot{Index: 5, Price: 120, Kind: models.PivotHigh},
	}
}

func downSwing() models.Swing {
	return models.Swing{
		Z1: models.Pivot{Index: 2, Price: 100, Kind: models.PivotHigh},
		Z2: models.Pivot{Index: 5, Price: 80, Kind: models.PivotLow},
	}
}

func TestComputeLevelsUp(t *testing.T) {
	ls := ComputeLevels(upSwing(), -0.272)

	z2, ok := ls.Price(0)
	require.True(t, ok)
	assert.Equal(t, 120.0, z2)

	z1, ok := ls.Price(1)
	require.True(t, ok)
	assert.Equal(t, 100.0, z1)

	assert.InDelta(t, 104.28, ls.Golden(), 1e-9)

	ext, ok := ls.Price(-0.272)
	require.True(t, ok)
	assert.InDelta(t, 125.44, ext, 1e-9)

	_, ok = ls.Price(0.333)
	assert.False(t, ok)
}

func TestComputeLevelsDown(t *testing.T) {
	ls := ComputeLevels(downSwing(), -0.272)

	assert.InDelta(t, 95.72, ls.Golden(), 1e-9)
	ext, _ := ls.Price(-0.272)
	assert.InDelta(t, 74.56, ext, 1e-9)
}

func TestComputeLevelsMonotonic(t *testing.T) {
	for name, swing := range map[string]models.Swing{"up": upSwing(), "down": downSwing()} {
		t.Run(name, func(t *testing.T) {
			ls := ComputeLevels(swing, -0.618, -0.272, 0.786, 1.272)
			ratios := ls.Ratios()
			require.Equal(t, ls.Len(), len(ratios))

			for i := 1; i < len(ratios); i++ {
				assert.Less(t, ratios[i-1], ratios[i])
				prev, _ := ls.Price(ratios[i-1])
				cur, _ := ls.Price(ratios[i])
				if swing.Up() {
					// чем глубже откат, тем ниже цена
					assert.Less(t, cur, prev)
				} else {
					assert.Greater(t, cur, prev)
				}
			}
		})
	}
}

func TestComputeLevelsDeduplicates(t *testing.T) {
	ls := ComputeLevels(upSwing(), 0.786, 0.5, 0.5)
	assert.Equal(t, len(DefaultRatios), ls.Len())
	assert.Equal(t, upSwing(), ls.Swing())
}
