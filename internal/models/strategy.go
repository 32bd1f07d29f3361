package models

import "time"

// Side как у биржи: "BUY"/"SELL" или пустая строка.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type Direction int

const (
	DirectionNone Direction = iota
	DirectionLong
	DirectionShort
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "LONG"
	case DirectionShort:
		return "SHORT"
	default:
		return "NONE"
	}
}

func (d Direction) Side() Side {
	switch d {
	case DirectionLong:
		return SideBuy
	case DirectionShort:
		return SideSell
	default:
		return SideNone
	}
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

type OutcomeKind string

const (
	OutcomeNoSignal OutcomeKind = "no_signal"
	OutcomeEntry    OutcomeKind = "entry"
)

// Target частичный тейк по уровню фибо.
type Target struct {
	Level   float64 `json:"level"`
	Price   float64 `json:"price"`
	Volume  float64 `json:"volume,omitempty"`
	ToBreak bool    `json:"tp_to_break,omitempty"`
}

// StrategyLive флаги для валидаторов.
type StrategyLive struct {
	LiveEnabled bool `json:"live_enabled"`
	DryRun      bool `json:"dry_run"`
}

// SignalOutcome результат одного вызова стратегии: no_signal или entry.
type SignalOutcome struct {
	Kind       OutcomeKind  `json:"kind"`
	Source     string       `json:"source"`
	Symbol     string       `json:"symbol,omitempty"`
	Timeframe  string       `json:"timeframe,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Direction  Direction    `json:"direction"`
	Entry      float64      `json:"entry,omitempty"`
	StopLoss   float64      `json:"stop_loss,omitempty"`
	TakeProfit float64      `json:"take_profit,omitempty"`
	Quantity   float64      `json:"quantity,omitempty"`
	Targets    []Target     `json:"targets,omitempty"`
	Z2Time     *time.Time   `json:"z2_time,omitempty"` // только для entry
	Live       StrategyLive `json:"strategy_live"`
	CreatedAt  time.Time    `json:"created_at"`
}

func NoSignal(source, reason string) SignalOutcome {
	return SignalOutcome{Kind: OutcomeNoSignal, Source: source, Reason: reason}
}

func (s SignalOutcome) IsEntry() bool { return s.Kind == OutcomeEntry }

// Notional объём в деньгах по цене входа.
func (s SignalOutcome) Notional() float64 { return s.Entry * s.Quantity }
