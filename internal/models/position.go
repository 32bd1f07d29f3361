package models

import "time"

// Position снимок открытой позиции (только вход для валидатора).
type Position struct {
	Symbol  string
	Side    Side
	Qty     float64
	Entry   float64
	SL      float64
	TP      float64
	Status  string // OPEN/CLOSED
	Updated time.Time
}

func (p Position) Open() bool { return p.Status == "" || p.Status == "OPEN" }
