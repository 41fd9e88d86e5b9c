package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tradeplanner/internal/api/handlers"
	"tradeplanner/internal/api/middleware"
	"tradeplanner/internal/config"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/service"
	"tradeplanner/internal/websocket"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	PlanningService service.PlanningServiceInterface
	TradingService  service.TradingServiceInterface
	WatcherService  service.WatcherServiceInterface
	Guard           *engine.ExecutionGuard
	Hub             *websocket.Hub
	Security        config.SecurityConfig
	Logger          *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── POST /calc - расчет риска и объема
//	├── POST /orders - выставление ордера
//	├── /positions/
//	│   ├── GET / - открытые позиции
//	│   ├── POST /partial-close - частичное закрытие
//	│   ├── POST /modify-sl - перенос стоп-лосса
//	│   ├── POST /move-to-be - перенос стопа в безубыток
//	│   └── POST /tp1 - ручное сопровождение первого тейка
//	├── /watcher/
//	│   ├── POST / - включение/выключение наблюдателя
//	│   └── GET /status - состояние наблюдателя
//	├── GET|POST /armed - тумблер ARMED
//	├── POST /execution-enable - серверный флаг исполнения (Basic Auth)
//	└── GET /broker/status - состояние подключения к терминалу
//
// /ws/events - WebSocket с событиями наблюдателя
// /health - проверка живости
// /metrics - Prometheus метрики
//
// Middleware в порядке применения: Recovery, Logging, CORS;
// AdminAuth только на административном маршруте.
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	v1 := router.PathPrefix("/api/v1").Subrouter()

	if deps.PlanningService != nil {
		calcHandler := handlers.NewCalcHandler(deps.PlanningService)
		v1.HandleFunc("/calc", calcHandler.Calculate).Methods(http.MethodPost, http.MethodOptions)
	}

	if deps.TradingService != nil {
		tradeHandler := handlers.NewTradeHandler(deps.TradingService)
		v1.HandleFunc("/orders", tradeHandler.PlaceOrder).Methods(http.MethodPost, http.MethodOptions)
		v1.HandleFunc("/positions", tradeHandler.GetPositions).Methods(http.MethodGet)
		v1.HandleFunc("/positions/partial-close", tradeHandler.PartialClose).Methods(http.MethodPost, http.MethodOptions)
		v1.HandleFunc("/positions/modify-sl", tradeHandler.ModifySL).Methods(http.MethodPost, http.MethodOptions)
		v1.HandleFunc("/positions/move-to-be", tradeHandler.MoveToBE).Methods(http.MethodPost, http.MethodOptions)
		v1.HandleFunc("/broker/status", tradeHandler.BrokerStatus).Methods(http.MethodGet)
	}

	if deps.WatcherService != nil {
		watcherHandler := handlers.NewWatcherHandler(deps.WatcherService)
		v1.HandleFunc("/watcher", watcherHandler.Control).Methods(http.MethodPost, http.MethodOptions)
		v1.HandleFunc("/watcher/status", watcherHandler.Status).Methods(http.MethodGet)
		v1.HandleFunc("/positions/tp1", watcherHandler.ManageTP1).Methods(http.MethodPost, http.MethodOptions)
	}

	if deps.Guard != nil {
		var guardSink handlers.GuardBroadcaster
		if deps.Hub != nil {
			guardSink = deps.Hub
		}
		guardHandler := handlers.NewGuardHandler(deps.Guard, guardSink)
		v1.HandleFunc("/armed", guardHandler.GetArmed).Methods(http.MethodGet)
		v1.HandleFunc("/armed", guardHandler.SetArmed).Methods(http.MethodPost, http.MethodOptions)

		// Административный рубильник закрыт Basic Auth
		admin := v1.PathPrefix("/execution-enable").Subrouter()
		admin.Use(middleware.AdminAuth(deps.Security.AdminUser, deps.Security.AdminPasswordHash))
		admin.HandleFunc("", guardHandler.SetExecutionEnabled).Methods(http.MethodPost, http.MethodOptions)

		router.HandleFunc("/health", guardHandler.Health).Methods(http.MethodGet)
	}

	if deps.Hub != nil {
		router.HandleFunc("/ws/events", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(deps.Hub, w, r)
		})
	}

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return router
}
