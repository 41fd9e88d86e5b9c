package service

import (
	"context"
	"errors"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
)

// Ошибки сервиса планирования
var (
	ErrInvalidDirection = errors.New("direction must be buy or sell")
	ErrInvalidBalance   = errors.New("account balance must be positive")
	ErrInvalidRisk      = errors.New("risk percent must be positive")
)

// PlanningService предоставляет расчет объема позиции под заданный риск.
//
// Расчет чистый и не требует подключения к терминалу, но если в запросе
// указан символ, а ограничения объема не заполнены, сервис подтягивает
// их из спецификации символа у брокера.
type PlanningService struct {
	gateway broker.Gateway
}

// NewPlanningService создает новый экземпляр PlanningService.
func NewPlanningService(gateway broker.Gateway) *PlanningService {
	return &PlanningService{gateway: gateway}
}

// CalculateRisk считает объем, суммы риска и производные величины.
//
// Возвращает ошибку только на невалидном запросе; причины по которым
// торговать нельзя (нулевой стоп, неизвестная стоимость пипса) идут
// в ответе через allowed=false.
func (s *PlanningService) CalculateRisk(ctx context.Context, req *models.RiskCalcInput) (*models.RiskCalcOutput, error) {
	if !req.Direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if req.AccountBalance <= 0 {
		return nil, ErrInvalidBalance
	}
	if req.RiskPercent <= 0 {
		return nil, ErrInvalidRisk
	}

	// Ограничения объема из терминала, если клиент их не прислал
	if req.Symbol != "" && (req.MinVolume <= 0 || req.VolumeStep <= 0) {
		if spec, err := s.gateway.SymbolSpec(ctx, req.Symbol); err == nil {
			if req.MinVolume <= 0 {
				req.MinVolume = spec.MinVolume
			}
			if req.VolumeStep <= 0 {
				req.VolumeStep = spec.VolumeStep
			}
			if req.PipInPrice <= 0 {
				req.PipInPrice = broker.PipInPriceForSpec(spec)
			}
		}
	}

	return engine.CalculateRisk(req), nil
}
