package service

import (
	"context"

	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/internal/watcher"
)

// WatcherService управляет жизненным циклом наблюдателя первого тейка.
//
// Запуск и ручное сопровождение требуют авторизации сторожем исполнения;
// остановка и чтение статуса доступны всегда.
type WatcherService struct {
	watcher *watcher.Watcher
	guard   *engine.ExecutionGuard
}

// NewWatcherService создает новый экземпляр WatcherService.
func NewWatcherService(w *watcher.Watcher, guard *engine.ExecutionGuard) *WatcherService {
	return &WatcherService{watcher: w, guard: guard}
}

// Control включает или выключает наблюдатель
func (s *WatcherService) Control(ctx context.Context, req *models.WatcherControlRequest) (*models.WatcherControlResult, error) {
	if !req.Enabled {
		return s.watcher.Stop(ctx), nil
	}

	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}

	armed := s.guard.Armed()
	if req.UIArmed != nil {
		armed = *req.UIArmed
	}
	return s.watcher.Start(ctx, armed), nil
}

// Status возвращает снимок состояния наблюдателя
func (s *WatcherService) Status(ctx context.Context) (*models.WatcherStatus, error) {
	return s.watcher.Status(ctx), nil
}

// ManageTP1 проводит разовое сопровождение первого тейка по тикету
func (s *WatcherService) ManageTP1(ctx context.Context, req *models.TP1ManageRequest) (*models.TP1ManageResult, error) {
	if req.Ticket <= 0 {
		return nil, ErrInvalidTicket
	}
	if err := s.guard.Authorize(req.UIArmed); err != nil {
		return nil, err
	}
	return s.watcher.ManageTP1(ctx, req), nil
}
