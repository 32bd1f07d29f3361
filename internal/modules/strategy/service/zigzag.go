package service

import (
	"iter"
	"math"
	"slices"

	"github.com/markcheno/go-talib"

	"fibo_bot/internal/models"
)

type ZigZagConfig struct {
	Depth        int     // окно назад: бар должен быть экстремумом последних Depth баров
	Backstep     int     // окно вперёд: сколько баров после экстремума нужно для подтверждения
	DeviationPct float64 // минимальный ход от прошлого пивота, 5.0 => 5%
	ATRPeriod    int
	ATRMult      float64 // ход должен быть >= ATRMult*ATR, 0 = выкл
}

// ZigZag классический zigzag с перепивотом: два одинаковых пивота подряд
// не выдаются, остаётся более экстремальный.
type ZigZag struct {
	cfg ZigZagConfig
}

func NewZigZag(cfg ZigZagConfig) *ZigZag {
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	if cfg.Backstep < 0 {
		cfg.Backstep = 0
	}
	return &ZigZag{cfg: cfg}
}

// Pivots ленивый перезапускаемый обход: каждый range сканирует серию заново.
// Пивот отдаётся, когда его уже нельзя заменить (после него подтвердился
// противоположный), последний: в конце обхода.
func (z *ZigZag) Pivots(bars models.Bars) iter.Seq[models.Pivot] {
	return func(yield func(models.Pivot) bool) {
		n := len(bars)
		if n == 0 {
			return
		}
		highs, lows := bars.Highs(), bars.Lows()
		atr := z.atr(bars, highs, lows)

		var (
			last models.Pivot
			have bool
		)
		for i := z.cfg.Depth; i < n-z.cfg.Backstep; i++ {
			hi := isWindowHigh(highs, i, z.cfg.Depth, z.cfg.Backstep)
			lo := isWindowLow(lows, i, z.cfg.Depth, z.cfg.Backstep)
			if !hi && !lo {
				continue
			}

			// на внешнем баре сначала пробуем разворот против последнего пивота
			order := [2]models.PivotKind{models.PivotHigh, models.PivotLow}
			if have && last.Kind == models.PivotHigh {
				order = [2]models.PivotKind{models.PivotLow, models.PivotHigh}
			}

			for _, kind := range order {
				if (kind == models.PivotHigh && !hi) || (kind == models.PivotLow && !lo) {
					continue
				}
				price := highs[i]
				if kind == models.PivotLow {
					price = lows[i]
				}
				cand := models.Pivot{Index: i, Time: bars[i].Time, Price: price, Kind: kind}

				if !have {
					last, have = cand, true
					break
				}

				if last.Kind == kind {
					// перепивот: только строго экстремальнее, при равенстве остаётся старый
					if moreExtreme(cand, last) {
						last = cand
						break
					}
					continue
				}

				move := cand.Price - last.Price
				if kind == models.PivotLow {
					move = -move
				}
				if move <= 0 || move < z.threshold(last.Price, atr, i) {
					continue
				}
				if !yield(last) {
					return
				}
				last = cand
				break
			}
		}
		if have {
			yield(last)
		}
	}
}

func (z *ZigZag) atr(bars models.Bars, highs, lows []float64) []float64 {
	if z.cfg.ATRMult <= 0 || z.cfg.ATRPeriod <= 0 || len(bars) <= z.cfg.ATRPeriod+1 {
		return nil
	}
	return talib.Atr(highs, lows, bars.Closes(), z.cfg.ATRPeriod)
}

func (z *ZigZag) threshold(lastPrice float64, atr []float64, i int) float64 {
	thr := lastPrice * z.cfg.DeviationPct / 100.0
	if i < len(atr) && !math.IsNaN(atr[i]) {
		thr = math.Max(thr, z.cfg.ATRMult*atr[i])
	}
	return thr
}

func moreExtreme(cand, last models.Pivot) bool {
	if cand.Kind == models.PivotHigh {
		return cand.Price > last.Price
	}
	return cand.Price < last.Price
}

// isWindowHigh: H[i] не ниже всех баров в [i-left, i+right].
func isWindowHigh(highs []float64, i, left, right int) bool {
	for j := i - left; j <= i+right; j++ {
		if highs[j] > highs[i] {
			return false
		}
	}
	return true
}

func isWindowLow(lows []float64, i, left, right int) bool {
	for j := i - left; j <= i+right; j++ {
		if lows[j] < lows[i] {
			return false
		}
	}
	return true
}

// DetectPivots весь ряд пивотов слайсом.
func DetectPivots(d PivotDetector, bars models.Bars) []models.Pivot {
	return slices.Collect(d.Pivots(bars))
}

// LastSwing держит только два последних пивота.
func LastSwing(d PivotDetector, bars models.Bars) (models.Swing, bool) {
	var (
		prev, cur models.Pivot
		count     int
	)
	for p := range d.Pivots(bars) {
		prev, cur = cur, p
		count++
	}
	if count < 2 {
		return models.Swing{}, false
	}
	return models.Swing{Z1: prev, Z2: cur}, true
}
