package service

import (
	"slices"

	"fibo_bot/internal/models"
)

const GoldenRatio = 0.786

// DefaultRatios стандартная сетка откатов.
var DefaultRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, GoldenRatio, 1.0}

// LevelSet уровни фибо одного свинга. Не меняется после ComputeLevels.
type LevelSet struct {
	swing  models.Swing
	prices map[float64]float64
	ratios []float64
}

// ComputeLevels считает цены уровней. Свинг вверх (z1=low, z2=high):
// level(r) = z2 - r*(z2-z1); вниз: level(r) = z2 + r*(z1-z2).
// Отрицательные r дают расширения за z2.
func ComputeLevels(swing models.Swing, extra ...float64) LevelSet {
	ratios := make([]float64, 0, len(DefaultRatios)+len(extra))
	ratios = append(ratios, DefaultRatios...)
	ratios = append(ratios, extra...)
	slices.Sort(ratios)
	ratios = slices.Compact(ratios)

	ls := LevelSet{
		swing:  swing,
		prices: make(map[float64]float64, len(ratios)),
		ratios: ratios,
	}
	for _, r := range ratios {
		ls.prices[r] = levelPrice(swing, r)
	}
	return ls
}

func levelPrice(swing models.Swing, ratio float64) float64 {
	z1, z2 := swing.Z1.Price, swing.Z2.Price
	if swing.Up() {
		return z2 - ratio*(z2-z1)
	}
	return z2 + ratio*(z1-z2)
}

// Price цена уровня; ok=false, если ratio не посчитан.
func (l LevelSet) Price(ratio float64) (float64, bool) {
	p, ok := l.prices[ratio]
	return p, ok
}

// Golden уровень 78.6%.
func (l LevelSet) Golden() float64 { return l.prices[GoldenRatio] }

func (l LevelSet) Ratios() []float64 { return slices.Clone(l.ratios) }

func (l LevelSet) Swing() models.Swing { return l.swing }

func (l LevelSet) Len() int { return len(l.ratios) }
