package engine

import (
	"errors"
	"sync"
)

// Ошибки авторизации исполнения
var (
	// ErrExecutionDisabled - серверный флаг исполнения выключен
	ErrExecutionDisabled = errors.New("backend execution is disabled")

	// ErrUINotArmed - тумблер ARMED в интерфейсе выключен
	ErrUINotArmed = errors.New("UI is not armed")
)

// ExecutionGuard - шлюз двойной авторизации торговых операций
//
// Любая операция изменяющая ордера требует двух независимых разрешений:
// серверного флага исполнения (включается администратором) и тумблера
// ARMED в интерфейсе (приходит с запросом или хранится от последнего
// переключения). Отсутствие любого из них закрывает шлюз.
//
// Состояние флагов живёт в процессе и не кэшируется вызывающими:
// Authorize вычисляется непосредственно перед каждой операцией,
// так как оба флага могут измениться между запросами.
type ExecutionGuard struct {
	mu               sync.RWMutex
	uiArmed          bool
	executionEnabled bool
}

// NewExecutionGuard создаёт шлюз с обоими флагами в выключенном состоянии
//
// executionEnabled обычно приходит из конфигурации при старте процесса.
func NewExecutionGuard(executionEnabled bool) *ExecutionGuard {
	return &ExecutionGuard{executionEnabled: executionEnabled}
}

// Authorize проверяет двойную авторизацию перед торговой операцией
//
// uiArmed nil означает "в запросе не передан", тогда используется
// сохранённое состояние тумблера. Проверки идут в фиксированном
// порядке: сначала серверный флаг, затем интерфейсный.
func (g *ExecutionGuard) Authorize(uiArmed *bool) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if !g.executionEnabled {
		return ErrExecutionDisabled
	}

	armed := g.uiArmed
	if uiArmed != nil && *uiArmed {
		armed = true
	}
	if !armed {
		return ErrUINotArmed
	}

	return nil
}

// SetArmed переключает сохранённое состояние тумблера ARMED
func (g *ExecutionGuard) SetArmed(armed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.uiArmed = armed
}

// Armed возвращает сохранённое состояние тумблера ARMED
func (g *ExecutionGuard) Armed() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.uiArmed
}

// SetExecutionEnabled переключает серверный флаг исполнения
// Административная операция, требует отдельной аутентификации на API
func (g *ExecutionGuard) SetExecutionEnabled(enabled bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.executionEnabled = enabled
}

// ExecutionEnabled возвращает состояние серверного флага
func (g *ExecutionGuard) ExecutionEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.executionEnabled
}
