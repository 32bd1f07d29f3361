package helper

import (
	"math"
	"strconv"
	"strings"
	"time"
)

func NormTF(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimPrefix(s, "candle")
	switch s {
	case "60m", "1h", "60":
		return "1h"
	case "15m", "15":
		return "15m"
	case "5m", "5":
		return "5m"
	case "1m", "1", "":
		return "1m"
	default:
		return s
	}
}

// TFDuration длительность бара: "15m", "1h", "4h", "1d", "5" (минуты).
func TFDuration(raw string) (time.Duration, bool) {
	s := NormTF(raw)
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Minute, true
	}
	if len(s) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, false
	}
	switch s[len(s)-1] {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	case 'd':
		return time.Duration(n) * 24 * time.Hour, true
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// ShiftTimestamp сдвигает время на bars баров таймфрейма tf (direction -1 назад).
func ShiftTimestamp(t time.Time, bars int, tf string, direction int) (time.Time, bool) {
	d, ok := TFDuration(tf)
	if !ok {
		return time.Time{}, false
	}
	if direction < 0 {
		d = -d
	}
	return t.Add(time.Duration(bars) * d), true
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	return math.Round(px/tick) * tick
}
