package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradeplanner/internal/models"
	"tradeplanner/internal/service"
)

// ============ CalcHandler Tests ============

func TestCalcHandler_Calculate(t *testing.T) {
	t.Run("returns calculation result", func(t *testing.T) {
		mockSvc := &MockPlanningService{
			out: &models.RiskCalcOutput{
				Allowed:           true,
				Volume:            0.5,
				TargetRiskAmount:  100,
				ActualRiskAmount:  100,
				TargetRiskPercent: 1,
				ActualRiskPercent: 1,
				Warnings:          []string{},
			},
		}
		handler := NewCalcHandler(mockSvc)

		body, _ := json.Marshal(models.RiskCalcInput{
			AccountBalance: 10000,
			RiskPercent:    1,
			Direction:      models.DirectionBuy,
			StopPips:       20,
			PipValuePerLot: 10,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/calc", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
		var response models.RiskCalcOutput
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !response.Allowed || response.Volume != 0.5 {
			t.Errorf("unexpected response: %+v", response)
		}
	})

	t.Run("returns 400 on invalid body", func(t *testing.T) {
		handler := NewCalcHandler(&MockPlanningService{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/calc", bytes.NewReader([]byte("not json")))
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("returns 400 on validation error", func(t *testing.T) {
		mockSvc := &MockPlanningService{calcErr: service.ErrInvalidBalance}
		handler := NewCalcHandler(mockSvc)

		body, _ := json.Marshal(models.RiskCalcInput{Direction: models.DirectionBuy})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/calc", bytes.NewReader(body))
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
		var response ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.Error == "" {
			t.Error("expected error message in response")
		}
	})
}
