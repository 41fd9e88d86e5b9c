package handlers

import (
	"errors"
	"net/http"

	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/internal/service"
)

// WatcherHandler отвечает за управление наблюдателем первого тейка
type WatcherHandler struct {
	watcher service.WatcherServiceInterface
}

// NewWatcherHandler создает новый WatcherHandler
func NewWatcherHandler(watcher service.WatcherServiceInterface) *WatcherHandler {
	return &WatcherHandler{watcher: watcher}
}

// Control включает или выключает наблюдатель
// POST /api/v1/watcher
//
// Отказ из-за живого лизинга другого процесса не является ошибкой:
// ответ несет running=false, locked=true и идентичность владельца.
func (h *WatcherHandler) Control(w http.ResponseWriter, r *http.Request) {
	var req models.WatcherControlRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.watcher.Control(r.Context(), &req)
	if err != nil {
		if errors.Is(err, engine.ErrExecutionDisabled) || errors.Is(err, engine.ErrUINotArmed) {
			respondWithError(w, http.StatusForbidden, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Status возвращает состояние наблюдателя
// GET /api/v1/watcher/status
func (h *WatcherHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.watcher.Status(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, status)
}

// ManageTP1 проводит разовое сопровождение первого тейка
// POST /api/v1/positions/tp1
func (h *WatcherHandler) ManageTP1(w http.ResponseWriter, r *http.Request) {
	var req models.TP1ManageRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := h.watcher.ManageTP1(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrExecutionDisabled) || errors.Is(err, engine.ErrUINotArmed):
			respondWithError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrInvalidTicket):
			respondWithError(w, http.StatusBadRequest, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}
