package models

// Instrument ограничения символа от риск-менеджера.
type Instrument struct {
	InstID   string  `json:"instId"`
	TickSz   float64 `json:"tickSz"`   // шаг цены
	LotSz    float64 `json:"lotSz"`    // шаг объёма
	MinSz    float64 `json:"minSz"`    // минимальный объём
	MaxMktSz float64 `json:"maxMktSz"` // 0 = без ограничения
	CtVal    float64 `json:"ctVal"`    // номинал контракта, 1 для спота
	Leverage int     `json:"leverage"`
}
