package handlers

import (
	"net/http"

	"tradeplanner/internal/engine"
)

// GuardBroadcaster раздаёт смену состояния шлюза подключенным клиентам
// Реализуется websocket.Hub, nil допустим
type GuardBroadcaster interface {
	BroadcastGuardState(armed, executionEnabled bool)
}

// GuardHandler отвечает за двухуровневый шлюз авторизации исполнения
//
// Тумблер ARMED переключается оператором из интерфейса свободно.
// Серверный флаг исполнения - административный рубильник, его endpoint
// закрывается Basic Auth на уровне маршрутизации.
type GuardHandler struct {
	guard *engine.ExecutionGuard
	hub   GuardBroadcaster
}

// NewGuardHandler создает новый GuardHandler. hub может быть nil.
func NewGuardHandler(guard *engine.ExecutionGuard, hub GuardBroadcaster) *GuardHandler {
	return &GuardHandler{guard: guard, hub: hub}
}

type armedState struct {
	Armed            bool `json:"armed"`
	ExecutionEnabled bool `json:"execution_enabled"`
}

type armedRequest struct {
	Armed bool `json:"armed"`
}

type executionRequest struct {
	Armed bool `json:"armed"`
}

type executionState struct {
	BackendEnabled bool `json:"backend_enabled"`
}

func (h *GuardHandler) broadcastState() {
	if h.hub != nil {
		h.hub.BroadcastGuardState(h.guard.Armed(), h.guard.ExecutionEnabled())
	}
}

// GetArmed возвращает состояние шлюза
// GET /api/v1/armed
func (h *GuardHandler) GetArmed(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, armedState{
		Armed:            h.guard.Armed(),
		ExecutionEnabled: h.guard.ExecutionEnabled(),
	})
}

// SetArmed переключает тумблер ARMED
// POST /api/v1/armed
func (h *GuardHandler) SetArmed(w http.ResponseWriter, r *http.Request) {
	var req armedRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.guard.SetArmed(req.Armed)
	h.broadcastState()
	respondWithJSON(w, http.StatusOK, armedState{
		Armed:            h.guard.Armed(),
		ExecutionEnabled: h.guard.ExecutionEnabled(),
	})
}

// SetExecutionEnabled переключает серверный флаг исполнения
// POST /api/v1/execution-enable
func (h *GuardHandler) SetExecutionEnabled(w http.ResponseWriter, r *http.Request) {
	var req executionRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.guard.SetExecutionEnabled(req.Armed)
	h.broadcastState()
	respondWithJSON(w, http.StatusOK, executionState{
		BackendEnabled: h.guard.ExecutionEnabled(),
	})
}

// Health - лёгкая проверка живости процесса
// GET /health
func (h *GuardHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
