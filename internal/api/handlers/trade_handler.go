package handlers

import (
	"errors"
	"net/http"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/internal/service"
)

// TradeHandler отвечает за торговые операции
//
// Все мутирующие операции проходят через сторожа исполнения внутри
// сервиса; его отказ транслируется в 403. Отказ брокера приходит
// внутри структурного результата с кодом 200: для фронтенда это
// не ошибка транспорта, а исход сделки.
type TradeHandler struct {
	trading service.TradingServiceInterface
}

// NewTradeHandler создает новый TradeHandler
func NewTradeHandler(trading service.TradingServiceInterface) *TradeHandler {
	return &TradeHandler{trading: trading}
}

// mapTradeError переводит ошибку сервиса в HTTP статус
func mapTradeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrExecutionDisabled) || errors.Is(err, engine.ErrUINotArmed):
		respondWithError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, broker.ErrPositionNotFound) || errors.Is(err, broker.ErrSymbolNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidSymbol) ||
		errors.Is(err, service.ErrInvalidDirection) ||
		errors.Is(err, service.ErrInvalidVolume) ||
		errors.Is(err, service.ErrInvalidTicket) ||
		errors.Is(err, service.ErrMissingAmount):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		respondWithError(w, http.StatusBadGateway, err.Error())
	}
}

// PlaceOrder выставляет ордер
// POST /api/v1/orders
func (h *TradeHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.trading.PlaceOrder(r.Context(), &req)
	if err != nil {
		mapTradeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// GetPositions возвращает открытые позиции
// GET /api/v1/positions
func (h *TradeHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.trading.OpenPositions(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
		"total":     len(positions),
	})
}

// PartialClose закрывает часть позиции
// POST /api/v1/positions/partial-close
func (h *TradeHandler) PartialClose(w http.ResponseWriter, r *http.Request) {
	var req models.PartialCloseRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.trading.PartialClose(r.Context(), &req)
	if err != nil {
		mapTradeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// ModifySL переносит стоп-лосс
// POST /api/v1/positions/modify-sl
func (h *TradeHandler) ModifySL(w http.ResponseWriter, r *http.Request) {
	var req models.ModifySLRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.trading.ModifySL(r.Context(), &req)
	if err != nil {
		mapTradeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// MoveToBE переносит стоп в безубыток
// POST /api/v1/positions/move-to-be
func (h *TradeHandler) MoveToBE(w http.ResponseWriter, r *http.Request) {
	var req models.MoveToBERequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.trading.MoveToBE(r.Context(), &req)
	if err != nil {
		mapTradeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// BrokerStatus возвращает состояние подключения к терминалу
// GET /api/v1/broker/status
func (h *TradeHandler) BrokerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.trading.BrokerStatus(r.Context())
	if err != nil {
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}
