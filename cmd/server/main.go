package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradeplanner/internal/api"
	"tradeplanner/internal/broker"
	"tradeplanner/internal/config"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/repository"
	"tradeplanner/internal/service"
	"tradeplanner/internal/watcher"
	"tradeplanner/internal/websocket"
	"tradeplanner/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database", zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Лизинг наблюдателя - единственное durable состояние системы
	leaseRepo := repository.NewLeaseRepository(db)
	if err := leaseRepo.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("failed to ensure lease schema", zap.Error(err))
	}

	// Шлюз к терминальному мосту
	gateway := broker.NewBridgeClient(broker.BridgeConfig{
		BaseURL:      cfg.Broker.BridgeURL,
		CallTimeout:  cfg.Broker.CallTimeout,
		MaxRetries:   cfg.Broker.MaxRetries,
		RetryBackoff: cfg.Broker.RetryBackoff,
		RateLimit:    cfg.Broker.RateLimit,
		Magic:        int64(cfg.Broker.Magic),
		OrderComment: cfg.Broker.OrderComment,
	}, logger)
	defer gateway.Close()

	// Сторож исполнения: сервер стартует с выключенным исполнением,
	// включение - осознанное административное действие
	guard := engine.NewExecutionGuard(false)

	// WebSocket hub для раздачи событий пультам
	hub := websocket.NewHub(logger)
	go hub.Run()
	defer hub.Stop()

	// Наблюдатель первого тейка
	tp1Watcher := watcher.New(watcher.Config{
		PollInterval:  cfg.Watcher.PollInterval,
		LockStaleness: cfg.Watcher.LockStaleness,
		TP1Pips:       cfg.Watcher.TP1Pips,
		TP1Percent:    cfg.Watcher.TP1Percent,
		BEBufferPips:  cfg.Watcher.BEBufferPips,
		Magic:         int64(cfg.Broker.Magic),
		OrderComment:  cfg.Broker.OrderComment,
	}, gateway, guard, leaseRepo, hub, logger)

	// Инициализация сервисов
	planningService := service.NewPlanningService(gateway)
	tradingService := service.NewTradingService(gateway, guard, logger)
	watcherService := service.NewWatcherService(tp1Watcher, guard)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		PlanningService: planningService,
		TradingService:  tradingService,
		WatcherService:  watcherService,
		Guard:           guard,
		Hub:             hub,
		Security:        cfg.Security,
		Logger:          logger,
	}

	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Сначала наблюдатель: он должен освободить лизинг и не оставить
	// торговую последовательность на середине
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 15*time.Second)
	tp1Watcher.Stop(stopCtx)
	stopCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
