package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/internal/service"
)

// ============ TradeHandler Tests ============

func TestTradeHandler_PlaceOrder(t *testing.T) {
	t.Run("successfully places order", func(t *testing.T) {
		ticket := int64(5001)
		mockSvc := &MockTradingService{
			placeResult: &models.PlaceOrderResult{
				Success:        true,
				OrderTicket:    5001,
				PositionTicket: &ticket,
			},
		}
		handler := NewTradeHandler(mockSvc)

		body, _ := json.Marshal(models.OrderRequest{
			Symbol:    "EURUSD",
			Direction: models.DirectionBuy,
			Volume:    0.10,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
		}

		var response models.PlaceOrderResult
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !response.Success || response.OrderTicket != 5001 {
			t.Errorf("unexpected response: %+v", response)
		}
	})

	t.Run("returns 403 when execution disabled", func(t *testing.T) {
		mockSvc := &MockTradingService{placeErr: engine.ErrExecutionDisabled}
		handler := NewTradeHandler(mockSvc)

		body, _ := json.Marshal(models.OrderRequest{
			Symbol:    "EURUSD",
			Direction: models.DirectionBuy,
			Volume:    0.10,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusForbidden {
			t.Errorf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
	})

	t.Run("returns 400 on invalid body", func(t *testing.T) {
		handler := NewTradeHandler(&MockTradingService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{broken")))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		mockSvc := &MockTradingService{placeErr: service.ErrInvalidVolume}
		handler := NewTradeHandler(mockSvc)

		body, _ := json.Marshal(models.OrderRequest{Symbol: "EURUSD", Direction: models.DirectionBuy})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.PlaceOrder(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestTradeHandler_PartialClose(t *testing.T) {
	t.Run("returns blocked close as 200 with reason", func(t *testing.T) {
		mockSvc := &MockTradingService{
			partialResult: &models.PartialCloseResult{
				Success:         false,
				Ticket:          1001,
				RequestedVolume: 0.005,
				BlockedReason:   "requested_close_below_min_lot",
				VolumeMin:       0.01,
				VolumeStep:      0.01,
			},
		}
		handler := NewTradeHandler(mockSvc)

		body, _ := json.Marshal(models.PartialCloseRequest{PositionTicket: 1001})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/partial-close", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.PartialClose(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		var response models.PartialCloseResult
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.BlockedReason != "requested_close_below_min_lot" {
			t.Errorf("expected blocked reason in response, got %+v", response)
		}
		if response.VolumeMin != 0.01 {
			t.Errorf("expected broker constraints echoed, got %+v", response)
		}
	})

	t.Run("returns 404 for unknown position", func(t *testing.T) {
		mockSvc := &MockTradingService{partialErr: broker.ErrPositionNotFound}
		handler := NewTradeHandler(mockSvc)

		body, _ := json.Marshal(models.PartialCloseRequest{PositionTicket: 404})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/partial-close", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.PartialClose(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestTradeHandler_GetPositions(t *testing.T) {
	mockSvc := &MockTradingService{
		positions: []*models.Position{
			{Ticket: 1, Symbol: "EURUSD", Direction: models.DirectionBuy, Volume: 0.1},
			{Ticket: 2, Symbol: "XAUUSD", Direction: models.DirectionSell, Volume: 0.5},
		},
	}
	handler := NewTradeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	w := httptest.NewRecorder()

	handler.GetPositions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var response struct {
		Positions []*models.Position `json:"positions"`
		Total     int                `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Total != 2 || len(response.Positions) != 2 {
		t.Errorf("expected 2 positions, got %+v", response)
	}
}

func TestTradeHandler_MoveToBE(t *testing.T) {
	bePrice := 1.0852
	mockSvc := &MockTradingService{
		beResult: &models.ModifySLResult{Success: true, SLPrice: &bePrice},
	}
	handler := NewTradeHandler(mockSvc)

	body, _ := json.Marshal(models.MoveToBERequest{PositionTicket: 3001, BufferPips: 2})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/positions/move-to-be", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.MoveToBE(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var response models.ModifySLResult
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Success || response.SLPrice == nil || *response.SLPrice != 1.0852 {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestTradeHandler_BrokerStatus(t *testing.T) {
	mockSvc := &MockTradingService{
		status: &models.BrokerStatus{Connected: true, TradeAllowed: true, AccountLogin: 112233},
	}
	handler := NewTradeHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/broker/status", nil)
	w := httptest.NewRecorder()

	handler.BrokerStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var response models.BrokerStatus
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !response.Connected || response.AccountLogin != 112233 {
		t.Errorf("unexpected response: %+v", response)
	}
}
