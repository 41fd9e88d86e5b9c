package handlers

import (
	"context"

	"tradeplanner/internal/models"
)

// ============ Mock PlanningService ============

type MockPlanningService struct {
	out     *models.RiskCalcOutput
	calcErr error
}

func (m *MockPlanningService) CalculateRisk(ctx context.Context, req *models.RiskCalcInput) (*models.RiskCalcOutput, error) {
	if m.calcErr != nil {
		return nil, m.calcErr
	}
	return m.out, nil
}

// ============ Mock TradingService ============

type MockTradingService struct {
	placeResult   *models.PlaceOrderResult
	placeErr      error
	positions     []*models.Position
	positionsErr  error
	partialResult *models.PartialCloseResult
	partialErr    error
	modifyResult  *models.ModifySLResult
	modifyErr     error
	beResult      *models.ModifySLResult
	beErr         error
	status        *models.BrokerStatus
	statusErr     error
}

func (m *MockTradingService) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.PlaceOrderResult, error) {
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return m.placeResult, nil
}

func (m *MockTradingService) OpenPositions(ctx context.Context) ([]*models.Position, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	return m.positions, nil
}

func (m *MockTradingService) PartialClose(ctx context.Context, req *models.PartialCloseRequest) (*models.PartialCloseResult, error) {
	if m.partialErr != nil {
		return nil, m.partialErr
	}
	return m.partialResult, nil
}

func (m *MockTradingService) ModifySL(ctx context.Context, req *models.ModifySLRequest) (*models.ModifySLResult, error) {
	if m.modifyErr != nil {
		return nil, m.modifyErr
	}
	return m.modifyResult, nil
}

func (m *MockTradingService) MoveToBE(ctx context.Context, req *models.MoveToBERequest) (*models.ModifySLResult, error) {
	if m.beErr != nil {
		return nil, m.beErr
	}
	return m.beResult, nil
}

func (m *MockTradingService) BrokerStatus(ctx context.Context) (*models.BrokerStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

// ============ Mock WatcherService ============

type MockWatcherService struct {
	controlResult *models.WatcherControlResult
	controlErr    error
	status        *models.WatcherStatus
	statusErr     error
	manageResult  *models.TP1ManageResult
	manageErr     error
	lastControl   *models.WatcherControlRequest
}

func (m *MockWatcherService) Control(ctx context.Context, req *models.WatcherControlRequest) (*models.WatcherControlResult, error) {
	m.lastControl = req
	if m.controlErr != nil {
		return nil, m.controlErr
	}
	return m.controlResult, nil
}

func (m *MockWatcherService) Status(ctx context.Context) (*models.WatcherStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

func (m *MockWatcherService) ManageTP1(ctx context.Context, req *models.TP1ManageRequest) (*models.TP1ManageResult, error) {
	if m.manageErr != nil {
		return nil, m.manageErr
	}
	return m.manageResult, nil
}
