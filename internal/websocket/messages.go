package websocket

import (
	"tradeplanner/internal/models"
)

// Типизированные сообщения: сериализация без рефлексии по map

// TP1EventMessage - сработал первый тейк
type TP1EventMessage struct {
	Type string           `json:"type"`
	Data *models.TP1Event `json:"data"`
}

// SLEventMessage - обнаружено закрытие по стопу
type SLEventMessage struct {
	Type string          `json:"type"`
	Data *models.SLEvent `json:"data"`
}

// WatcherStateMessage - изменение состояния наблюдателя
type WatcherStateMessage struct {
	Type string                `json:"type"`
	Data *models.WatcherStatus `json:"data"`
}

// GuardStateMessage - изменение состояния шлюза авторизации
type GuardStateMessage struct {
	Type             string `json:"type"`
	Armed            bool   `json:"armed"`
	ExecutionEnabled bool   `json:"execution_enabled"`
}
