package service

import (
	"math"

	"github.com/pkg/errors"

	"fibo_bot/internal/models"
)

// RiskSizer считает объём от денежного риска:
//
//	qty = balance * riskFraction / (|entry - sl| * ctVal)
//
// затем режет по марже (плечо) и MaxMktSz, округляет вниз до lotSz.
// Если результат меньше minSz: ErrInsufficientRiskBudget, до минимума не поднимаем.
type RiskSizer struct {
	rm           RiskManager
	riskFraction float64
}

// NewRiskSizer riskFraction: доля баланса (0.01 => 1%), используется,
// если в RiskContext своя не задана.
func NewRiskSizer(rm RiskManager, riskFraction float64) *RiskSizer {
	return &RiskSizer{rm: rm, riskFraction: riskFraction}
}

func (s *RiskSizer) Size(entry, stopLoss float64, rc models.RiskContext) (float64, error) {
	if entry <= 0 || stopLoss <= 0 {
		return 0, errors.Wrap(ErrInvalidLevelGeometry, "entry/sl <= 0")
	}

	// дистанция до стопа в цене
	stopDist := math.Abs(entry - stopLoss)
	if stopDist <= 0 {
		return 0, errors.Wrap(ErrInvalidLevelGeometry, "zero stop distance")
	}

	if rc.Balance <= 0 {
		return 0, errors.Wrapf(ErrInsufficientRiskBudget, "balance %.8f <= 0", rc.Balance)
	}

	riskFraction := rc.RiskFraction
	if riskFraction <= 0 {
		riskFraction = s.riskFraction
	}
	if riskFraction <= 0 {
		return 0, errors.Wrap(ErrInsufficientRiskBudget, "riskFraction <= 0")
	}

	meta := models.Instrument{}
	if s.rm != nil {
		var err error
		meta, err = s.rm.Constraints(rc)
		if err != nil {
			return 0, errors.Wrap(err, "risk manager constraints")
		}
	}

	ctVal := meta.CtVal
	if ctVal <= 0 {
		ctVal = 1.0
	}

	// 1) размер по риску
	riskUSDT := rc.Balance * riskFraction
	sz := riskUSDT / (stopDist * ctVal)
	if sz <= 0 || math.IsNaN(sz) || math.IsInf(sz, 0) {
		return 0, errors.Wrapf(ErrInsufficientRiskBudget, "szRisk invalid: %.10f", sz)
	}

	// 2) ограничение по марже: entry * ctVal * sz / lev <= balance
	if meta.Leverage > 0 {
		maxSzByMargin := (rc.Balance * float64(meta.Leverage)) / (entry * ctVal)
		sz = math.Min(sz, maxSzByMargin)
	}

	// 3) cap по MaxMktSz
	if meta.MaxMktSz > 0 && sz > meta.MaxMktSz {
		sz = meta.MaxMktSz
	}

	// 4) округляем ВНИЗ до шага lotSz
	if meta.LotSz > 0 {
		steps := math.Floor(sz/meta.LotSz + 1e-9)
		sz = steps * meta.LotSz
	}

	if sz <= 0 || sz < meta.MinSz {
		return 0, errors.Wrapf(ErrInsufficientRiskBudget, "size %.10f below minSz %.10f", sz, meta.MinSz)
	}
	return sz, nil
}

// StaticRiskManager отдаёт одни и те же ограничения для своего символа.
type StaticRiskManager struct {
	meta models.Instrument
}

func NewStaticRiskManager(meta models.Instrument) *StaticRiskManager {
	return &StaticRiskManager{meta: meta}
}

func (m *StaticRiskManager) Constraints(rc models.RiskContext) (models.Instrument, error) {
	if m.meta.InstID != "" && rc.Symbol != "" && rc.Symbol != m.meta.InstID {
		return models.Instrument{}, errors.Errorf("no constraints for %s (have %s)", rc.Symbol, m.meta.InstID)
	}
	return m.meta, nil
}
