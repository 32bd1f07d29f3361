package models

import "time"

// PivotKind -1 минимум, 1 максимум (как direction у zigzag).
type PivotKind int

const (
	PivotLow  PivotKind = -1
	PivotHigh PivotKind = 1
)

func (k PivotKind) String() string {
	switch k {
	case PivotHigh:
		return "H"
	case PivotLow:
		return "L"
	default:
		return "?"
	}
}

// Pivot точка ZigZag (swing high / swing low).
type Pivot struct {
	Index int
	Time  time.Time
	Price float64
	Kind  PivotKind
}

// Swing два последних пивота: Z1 старший, Z2 свежий.
type Swing struct {
	Z1 Pivot
	Z2 Pivot
}

// Up восходящая нога: z1=low -> z2=high.
func (s Swing) Up() bool { return s.Z1.Kind == PivotLow && s.Z2.Kind == PivotHigh }

func (s Swing) Range() float64 {
	if s.Z2.Price > s.Z1.Price {
		return s.Z2.Price - s.Z1.Price
	}
	return s.Z1.Price - s.Z2.Price
}
