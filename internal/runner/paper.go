package runner

import (
	"sync"
	"time"

	"fibo_bot/internal/models"
)

// Closed позиция, выбитая по SL или TP.
type Closed struct {
	models.Position
	Exit float64
}

// PaperBook бумажные позиции по исполнимым сигналам. Нужен валидатору
// (конфликт символа, лимит позиций), пока ордера не уходят на биржу.
type PaperBook struct {
	mu        sync.Mutex
	positions map[string]models.Position
}

func NewPaperBook() *PaperBook {
	return &PaperBook{positions: make(map[string]models.Position)}
}

// Add открывает позицию; at: время бара сигнала, Mark смотрит только бары после него.
func (b *PaperBook) Add(o models.SignalOutcome, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[o.Symbol] = models.Position{
		Symbol:  o.Symbol,
		Side:    o.Direction.Side(),
		Qty:     o.Quantity,
		Entry:   o.Entry,
		SL:      o.StopLoss,
		TP:      o.TakeProfit,
		Status:  "OPEN",
		Updated: at,
	}
}

func (b *PaperBook) Open() []models.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	return out
}

// Mark проверяет позицию символа по бару. Если бар задел и SL, и TP: считаем SL.
func (b *PaperBook) Mark(symbol string, bar models.Bar) []Closed {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.positions[symbol]
	if !ok || !bar.Time.After(p.Updated) {
		return nil
	}

	var (
		status string
		exit   float64
	)
	switch p.Side {
	case models.SideBuy:
		if bar.Low <= p.SL {
			status, exit = "SL", p.SL
		} else if bar.High >= p.TP {
			status, exit = "TP", p.TP
		}
	case models.SideSell:
		if bar.High >= p.SL {
			status, exit = "SL", p.SL
		} else if bar.Low <= p.TP {
			status, exit = "TP", p.TP
		}
	}
	if status == "" {
		return nil
	}

	delete(b.positions, symbol)
	p.Status = status
	p.Updated = bar.Time
	return []Closed{{Position: p, Exit: exit}}
}
