package models

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// ErrMalformedBars нарушение контракта входных данных (не рыночное условие).
var ErrMalformedBars = errors.New("malformed bars")

// Bar закрытая свеча.
type Bar struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Bars упорядочены по времени, без дублей.
type Bars []Bar

// Validate проверяет контракт: цены конечные и > 0, Open/Close внутри [Low, High],
// время строго растёт.
func (b Bars) Validate() error {
	for i, bar := range b {
		if !finite(bar.Open) || !finite(bar.High) || !finite(bar.Low) || !finite(bar.Close) {
			return errors.Wrapf(ErrMalformedBars, "bar %d: non-finite price", i)
		}
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return errors.Wrapf(ErrMalformedBars, "bar %d: non-positive price", i)
		}
		if bar.High < bar.Low {
			return errors.Wrapf(ErrMalformedBars, "bar %d: high %.8f < low %.8f", i, bar.High, bar.Low)
		}
		if bar.Open < bar.Low || bar.Open > bar.High || bar.Close < bar.Low || bar.Close > bar.High {
			return errors.Wrapf(ErrMalformedBars, "bar %d: open/close outside [%.8f, %.8f]", i, bar.Low, bar.High)
		}
		if bar.Time.IsZero() {
			return errors.Wrapf(ErrMalformedBars, "bar %d: zero timestamp", i)
		}
		if i > 0 && !bar.Time.After(b[i-1].Time) {
			return errors.Wrapf(ErrMalformedBars, "bar %d: timestamp %s not after %s",
				i, bar.Time.Format(time.RFC3339), b[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// BarsFromColumns собирает Bars из колонок (open, high, low, close, timestamp).
func BarsFromColumns(open, high, low, close []float64, ts []time.Time) (Bars, error) {
	n := len(ts)
	if len(open) != n || len(high) != n || len(low) != n || len(close) != n {
		return nil, errors.Wrapf(ErrMalformedBars,
			"column length mismatch: open=%d high=%d low=%d close=%d ts=%d",
			len(open), len(high), len(low), len(close), n)
	}
	out := make(Bars, n)
	for i := range ts {
		out[i] = Bar{Time: ts[i], Open: open[i], High: high[i], Low: low[i], Close: close[i]}
	}
	return out, out.Validate()
}

func (b Bars) Highs() []float64 {
	out := make([]float64, len(b))
	for i := range b {
		out[i] = b[i].High
	}
	return out
}

func (b Bars) Lows() []float64 {
	out := make([]float64, len(b))
	for i := range b {
		out[i] = b[i].Low
	}
	return out
}

func (b Bars) Closes() []float64 {
	out := make([]float64, len(b))
	for i := range b {
		out[i] = b[i].Close
	}
	return out
}

// Last последний бар; ok=false для пустой серии.
func (b Bars) Last() (Bar, bool) {
	if len(b) == 0 {
		return Bar{}, false
	}
	return b[len(b)-1], true
}
