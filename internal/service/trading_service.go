package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/pkg/utils"
)

// Ошибки торгового сервиса
var (
	ErrInvalidSymbol = errors.New("symbol cannot be empty")
	ErrInvalidVolume = errors.New("volume must be positive")
	ErrInvalidTicket = errors.New("ticket must be positive")
	ErrMissingAmount = errors.New("either percent or volume must be provided")
)

// TradingService предоставляет торговые операции поверх шлюза терминала.
//
// Каждая операция проходит через сторожа исполнения: серверный флаг
// проверяется первым, потом состояние тумблера интерфейса. Отказ
// сторожа возвращается как ошибка, отказ брокера как структурный
// результат с success=false.
type TradingService struct {
	gateway broker.Gateway
	guard   *engine.ExecutionGuard
	logger  *zap.Logger
}

// NewTradingService создает новый экземпляр TradingService.
func NewTradingService(gateway broker.Gateway, guard *engine.ExecutionGuard, logger *zap.Logger) *TradingService {
	return &TradingService{
		gateway: gateway,
		guard:   guard,
		logger:  logger.Named("trading"),
	}
}

// PlaceOrder выставляет ордер после авторизации сторожем
func (s *TradingService) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.PlaceOrderResult, error) {
	if req.Symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if !req.Direction.Valid() {
		return nil, ErrInvalidDirection
	}
	if req.Volume <= 0 {
		return nil, ErrInvalidVolume
	}
	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}

	res, err := s.gateway.PlaceOrder(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &models.PlaceOrderResult{Success: res.Success}
	if res.Success {
		result.OrderTicket = res.Ticket
		// Рыночный ордер порождает позицию с тем же тикетом
		ticket := res.Ticket
		result.PositionTicket = &ticket
		s.logger.Info("order placed",
			zap.String("symbol", req.Symbol),
			zap.String("direction", string(req.Direction)),
			zap.Float64("volume", req.Volume),
			zap.Int64("ticket", res.Ticket))
	} else {
		result.Error = res.Message
		s.logger.Warn("order rejected",
			zap.String("symbol", req.Symbol),
			zap.Int("retcode", res.Retcode),
			zap.String("message", res.Message))
	}
	return result, nil
}

// OpenPositions возвращает открытые позиции терминала
func (s *TradingService) OpenPositions(ctx context.Context) ([]*models.Position, error) {
	positions, err := s.gateway.OpenPositions(ctx)
	if err != nil {
		return nil, err
	}
	if positions == nil {
		positions = []*models.Position{}
	}
	return positions, nil
}

// PartialClose закрывает часть позиции.
//
// Современная форма запроса задает процент от текущего объема, легаси
// форма задает объем в лотах напрямую. Объем в обеих формах проходит
// нормализацию под ограничения брокера; блокировка нормализатора
// возвращается структурно с причиной и ограничениями, без ошибки.
func (s *TradingService) PartialClose(ctx context.Context, req *models.PartialCloseRequest) (*models.PartialCloseResult, error) {
	ticket := req.ResolveTicket()
	if ticket <= 0 {
		return nil, ErrInvalidTicket
	}
	if req.Percent == nil && req.Volume == nil {
		return nil, ErrMissingAmount
	}
	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}

	pos, err := s.gateway.PositionByTicket(ctx, ticket)
	if err != nil {
		return nil, err
	}

	var norm *models.NormalizeResult
	spec, specErr := s.gateway.SymbolSpec(ctx, pos.Symbol)
	if specErr != nil {
		// Нормализатор доложит symbol_specs_unavailable
		norm = engine.NormalizeCloseVolume(pos.Volume, percentOrZero(req), 0, 0)
	} else if req.Percent != nil {
		norm = engine.NormalizeCloseVolume(pos.Volume, *req.Percent, spec.MinVolume, spec.VolumeStep)
	} else {
		norm = engine.NormalizeCloseByVolume(pos.Volume, *req.Volume, spec.MinVolume, spec.VolumeStep)
	}

	result := &models.PartialCloseResult{
		Ticket:          ticket,
		RequestedVolume: norm.RequestedVolume,
		CloseVolume:     norm.CloseVolume,
		RemainingVolume: norm.RemainingVolume,
		VolumeMin:       norm.VolumeMin,
		VolumeStep:      norm.VolumeStep,
	}
	if norm.Blocked() {
		result.BlockedReason = norm.BlockedReason
		s.logger.Warn("partial close blocked",
			zap.Int64("ticket", ticket),
			zap.String("reason", norm.BlockedReason))
		return result, nil
	}

	res, err := s.gateway.PartialClose(ctx, ticket, norm.CloseVolume)
	if err != nil {
		return nil, err
	}
	result.Success = res.Success
	result.ClosePrice = res.Price
	if !res.Success {
		result.Error = res.Message
		s.logger.Warn("partial close failed",
			zap.Int64("ticket", ticket),
			zap.Int("retcode", res.Retcode),
			zap.String("message", res.Message))
		return result, nil
	}

	s.logger.Info("partial close done",
		zap.Int64("ticket", ticket),
		zap.Float64("close_volume", norm.CloseVolume),
		zap.Float64("remaining_volume", norm.RemainingVolume))
	return result, nil
}

// ModifySL переносит стоп-лосс позиции на заданную цену
func (s *TradingService) ModifySL(ctx context.Context, req *models.ModifySLRequest) (*models.ModifySLResult, error) {
	if req.Ticket <= 0 {
		return nil, ErrInvalidTicket
	}
	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}

	res, err := s.gateway.ModifySL(ctx, req.Ticket, req.SLPrice)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return &models.ModifySLResult{Success: false, Error: res.Message}, nil
	}

	price := req.SLPrice
	s.logger.Info("stop loss modified",
		zap.Int64("ticket", req.Ticket),
		zap.Float64("sl_price", price))
	return &models.ModifySLResult{Success: true, SLPrice: &price}, nil
}

// MoveToBE переносит стоп в безубыток с буфером в пипсах.
//
// Цена считается от цены открытия позиции: buy выше входа, sell ниже,
// с округлением до знаков символа.
func (s *TradingService) MoveToBE(ctx context.Context, req *models.MoveToBERequest) (*models.ModifySLResult, error) {
	if req.PositionTicket <= 0 {
		return nil, ErrInvalidTicket
	}
	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}

	pos, err := s.gateway.PositionByTicket(ctx, req.PositionTicket)
	if err != nil {
		return nil, err
	}
	spec, err := s.gateway.SymbolSpec(ctx, pos.Symbol)
	if err != nil {
		return nil, err
	}

	pipInPrice := broker.PipInPriceForSpec(spec)
	var bePrice float64
	if pos.Direction == models.DirectionSell {
		bePrice = pos.PriceOpen - req.BufferPips*pipInPrice
	} else {
		bePrice = pos.PriceOpen + req.BufferPips*pipInPrice
	}
	bePrice = utils.RoundToDigits(bePrice, spec.Digits)

	res, err := s.gateway.ModifySL(ctx, req.PositionTicket, bePrice)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return &models.ModifySLResult{Success: false, Error: res.Message}, nil
	}

	s.logger.Info("stop loss moved to breakeven",
		zap.Int64("ticket", req.PositionTicket),
		zap.Float64("be_price", bePrice))
	return &models.ModifySLResult{Success: true, SLPrice: &bePrice}, nil
}

// BrokerStatus возвращает состояние подключения к терминалу
func (s *TradingService) BrokerStatus(ctx context.Context) (*models.BrokerStatus, error) {
	return s.gateway.Status(ctx)
}

func percentOrZero(req *models.PartialCloseRequest) float64 {
	if req.Percent != nil {
		return *req.Percent
	}
	return 0
}
