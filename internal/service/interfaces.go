package service

import (
	"context"

	"tradeplanner/internal/models"
)

// PlanningServiceInterface определяет интерфейс сервиса расчета риска
type PlanningServiceInterface interface {
	CalculateRisk(ctx context.Context, req *models.RiskCalcInput) (*models.RiskCalcOutput, error)
}

// TradingServiceInterface определяет интерфейс торгового сервиса
type TradingServiceInterface interface {
	PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.PlaceOrderResult, error)
	OpenPositions(ctx context.Context) ([]*models.Position, error)
	PartialClose(ctx context.Context, req *models.PartialCloseRequest) (*models.PartialCloseResult, error)
	ModifySL(ctx context.Context, req *models.ModifySLRequest) (*models.ModifySLResult, error)
	MoveToBE(ctx context.Context, req *models.MoveToBERequest) (*models.ModifySLResult, error)
	BrokerStatus(ctx context.Context) (*models.BrokerStatus, error)
}

// WatcherServiceInterface определяет интерфейс сервиса наблюдателя
type WatcherServiceInterface interface {
	Control(ctx context.Context, req *models.WatcherControlRequest) (*models.WatcherControlResult, error)
	Status(ctx context.Context) (*models.WatcherStatus, error)
	ManageTP1(ctx context.Context, req *models.TP1ManageRequest) (*models.TP1ManageResult, error)
}
