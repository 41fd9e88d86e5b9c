package handlers

import (
	"errors"
	"net/http"

	"tradeplanner/internal/models"
	"tradeplanner/internal/service"
)

// CalcHandler отвечает за расчет риска и объема позиции
//
// Расчет только читает, торговых действий не производит, поэтому
// не требует ни состояния ARMED, ни серверного флага исполнения.
type CalcHandler struct {
	planning service.PlanningServiceInterface
}

// NewCalcHandler создает новый CalcHandler
func NewCalcHandler(planning service.PlanningServiceInterface) *CalcHandler {
	return &CalcHandler{planning: planning}
}

// Calculate считает объем под заданный риск
// POST /api/v1/calc
func (h *CalcHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req models.RiskCalcInput
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	out, err := h.planning.CalculateRisk(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDirection) ||
			errors.Is(err, service.ErrInvalidBalance) ||
			errors.Is(err, service.ErrInvalidRisk) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, out)
}
