package service

import (
	"context"
	"errors"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/models"
)

// ============ Mock Gateway ============

type MockGateway struct {
	status          *models.BrokerStatus
	statusErr       error
	positions       map[int64]*models.Position
	positionsErr    error
	specs           map[string]*models.SymbolSpec
	specErr         error
	ticks           map[string]*models.Tick
	placeResult     *models.OrderResult
	placeErr        error
	placeRequests   []*models.OrderRequest
	partialResult   *models.OrderResult
	partialErr      error
	partialVolumes  []float64
	modifyResult    *models.OrderResult
	modifyErr       error
	modifySLPrices  []float64
	modifySLTickets []int64
	profit          *float64
}

func NewMockGateway() *MockGateway {
	return &MockGateway{
		status:        &models.BrokerStatus{Connected: true, TradeAllowed: true},
		positions:     make(map[int64]*models.Position),
		specs:         make(map[string]*models.SymbolSpec),
		ticks:         make(map[string]*models.Tick),
		placeResult:   &models.OrderResult{Success: true, Ticket: 5001, Retcode: broker.RetcodeDone},
		partialResult: &models.OrderResult{Success: true, Retcode: broker.RetcodeDone, Price: 1.0860},
		modifyResult:  &models.OrderResult{Success: true, Retcode: broker.RetcodeDone},
	}
}

func (m *MockGateway) Status(ctx context.Context) (*models.BrokerStatus, error) {
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return m.status, nil
}

func (m *MockGateway) OpenPositions(ctx context.Context) ([]*models.Position, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	out := make([]*models.Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	return out, nil
}

func (m *MockGateway) PositionByTicket(ctx context.Context, ticket int64) (*models.Position, error) {
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	if p, ok := m.positions[ticket]; ok {
		return p, nil
	}
	return nil, broker.ErrPositionNotFound
}

func (m *MockGateway) SymbolSpec(ctx context.Context, symbol string) (*models.SymbolSpec, error) {
	if m.specErr != nil {
		return nil, m.specErr
	}
	if spec, ok := m.specs[symbol]; ok {
		return spec, nil
	}
	return nil, broker.ErrSymbolNotFound
}

func (m *MockGateway) Tick(ctx context.Context, symbol string) (*models.Tick, error) {
	if tick, ok := m.ticks[symbol]; ok {
		return tick, nil
	}
	return nil, errors.New("no tick data")
}

func (m *MockGateway) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error) {
	m.placeRequests = append(m.placeRequests, req)
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return m.placeResult, nil
}

func (m *MockGateway) PartialClose(ctx context.Context, ticket int64, volume float64) (*models.OrderResult, error) {
	m.partialVolumes = append(m.partialVolumes, volume)
	if m.partialErr != nil {
		return nil, m.partialErr
	}
	return m.partialResult, nil
}

func (m *MockGateway) ModifySL(ctx context.Context, ticket int64, slPrice float64) (*models.OrderResult, error) {
	m.modifySLTickets = append(m.modifySLTickets, ticket)
	m.modifySLPrices = append(m.modifySLPrices, slPrice)
	if m.modifyErr != nil {
		return nil, m.modifyErr
	}
	return m.modifyResult, nil
}

func (m *MockGateway) CalcProfit(ctx context.Context, symbol string, direction models.Direction, volume, openPrice, closePrice float64) (*float64, error) {
	if m.profit == nil {
		return nil, errors.New("profit unavailable")
	}
	return m.profit, nil
}

func (m *MockGateway) Close() error { return nil }

// Проверяем, что мок реализует интерфейс шлюза
var _ broker.Gateway = (*MockGateway)(nil)

// ============ Общие помощники ============

func boolPtr(v bool) *bool { return &v }

func floatPtr(v float64) *float64 { return &v }

func eurusdSpec() *models.SymbolSpec {
	return &models.SymbolSpec{
		Symbol:     "EURUSD",
		Digits:     5,
		MinVolume:  0.01,
		MaxVolume:  100,
		VolumeStep: 0.01,
		PipInPrice: 0.0001,
	}
}

func buyPosition(ticket int64, volume float64) *models.Position {
	return &models.Position{
		Ticket:    ticket,
		Symbol:    "EURUSD",
		Direction: models.DirectionBuy,
		Volume:    volume,
		PriceOpen: 1.0850,
		StopLoss:  1.0820,
		Comment:   "POI-Tracker",
		Magic:     123456,
	}
}
