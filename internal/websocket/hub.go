package websocket

import (
	"bytes"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"tradeplanner/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пул буферов сериализации: Broadcast не аллоцирует на каждое событие
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями
//
// Раздает события наблюдателя (первый тейк, закрытие по стопу) и смену
// состояний всем подключенным пультам без поллинга. Медленный клиент
// не тормозит раздачу: его буфер переполнился - соединение закрывается.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger

	mu       sync.RWMutex
	stopOnce sync.Once
	dropped  atomic.Int64
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("websocket"),
	}
}

// Run запускает главный цикл Hub
//
// Запускается в отдельной горутине: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			// Список копируется под коротким RLock, отправка идет
			// без блокировки чтобы не задерживать register/unregister
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				h.logger.Warn("removed slow clients", zap.Int("count", len(toRemove)))
			}
		}
	}
}

// Broadcast сериализует сообщение и отправляет всем клиентам
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.logger.Error("broadcast marshal failed", zap.Error(err))
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	// Наблюдатель не должен вставать из-за переполненной раздачи
	select {
	case h.broadcast <- msgCopy:
	default:
		h.dropped.Add(1)
	}
}

// Stop останавливает цикл Hub и закрывает все соединения
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// DroppedMessages возвращает число сообщений потерянных из-за
// переполнения канала раздачи
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}

// BroadcastTP1Event отправляет событие первого тейка
func (h *Hub) BroadcastTP1Event(ev *models.TP1Event) {
	h.Broadcast(&TP1EventMessage{Type: "tp1_event", Data: ev})
}

// BroadcastSLEvent отправляет событие закрытия по стопу
func (h *Hub) BroadcastSLEvent(ev *models.SLEvent) {
	h.Broadcast(&SLEventMessage{Type: "sl_event", Data: ev})
}

// BroadcastWatcherState отправляет снимок состояния наблюдателя
func (h *Hub) BroadcastWatcherState(status *models.WatcherStatus) {
	h.Broadcast(&WatcherStateMessage{Type: "watcher_state", Data: status})
}

// BroadcastGuardState отправляет состояние шлюза авторизации
func (h *Hub) BroadcastGuardState(armed, executionEnabled bool) {
	h.Broadcast(&GuardStateMessage{
		Type:             "guard_state",
		Armed:            armed,
		ExecutionEnabled: executionEnabled,
	})
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
