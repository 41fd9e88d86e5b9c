package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"tradeplanner/internal/broker"
	"tradeplanner/internal/engine"
	"tradeplanner/internal/models"
	"tradeplanner/pkg/utils"
)

// Config - параметры наблюдателя
type Config struct {
	PollInterval  time.Duration // период опроса позиций
	LockStaleness time.Duration // порог протухания лизинга
	TP1Pips       float64       // дистанция первого тейка в пипсах
	TP1Percent    float64       // доля позиции закрываемая на первом тейке
	BEBufferPips  float64       // буфер безубытка в пипсах
	Magic         int64         // метка ордеров планировщика
	OrderComment  string        // префикс комментария ордеров планировщика
}

// EventSink получает события наблюдателя для раздачи клиентам
// Реализуется websocket.Hub, nil допустим
type EventSink interface {
	BroadcastTP1Event(ev *models.TP1Event)
	BroadcastSLEvent(ev *models.SLEvent)
	BroadcastWatcherState(status *models.WatcherStatus)
}

// tradeSequenceTimeout ограничивает торговую последовательность одного
// тикета, когда она отвязана от контекста цикла
const tradeSequenceTimeout = 30 * time.Second

// trackedPosition - внутреннее состояние отслеживаемой позиции
//
// tp1Price вычисляется один раз при регистрации и дальше не меняется,
// даже если конфигурация пипсов изменится позже.
type trackedPosition struct {
	ticket     int64
	symbol     string
	direction  models.Direction
	entry      float64
	stopLoss   float64
	volume     float64
	pipInPrice float64
	digits     int
	volumeMin  float64
	volumeStep float64
	tp1Price   float64
	tp1Done    bool
	createdAt  time.Time
}

func (tp *trackedPosition) isBuy() bool {
	return tp.direction == models.DirectionBuy
}

// Watcher - одиночный фоновый наблюдатель первого тейка
//
// Цикл с фиксированным периодом: опрашивает открытые позиции терминала,
// для своих позиций (magic + комментарий) проверяет достижение первого
// тейка и проводит частичное закрытие с переносом стопа в безубыток.
// Исчезнувшие без тейка позиции трактуются как закрытие по стопу.
//
// Межпроцессная единственность обеспечивается лизингом: запуск требует
// захвата, каждый проход цикла продлевает, остановка освобождает.
//
// Состояние (набор позиций, слоты последних событий, последняя ошибка)
// защищено одним мьютексом; торговые последовательности одного тикета
// (частичное закрытие, затем перенос стопа) сериализуются отдельным
// мьютексом между циклом и ручными запросами.
type Watcher struct {
	cfg     Config
	gateway broker.Gateway
	guard   *engine.ExecutionGuard
	leases  LeaseStore
	sink    EventSink
	logger  *zap.Logger
	clock   func() time.Time

	// opMu сериализует торговые действия между циклом и ручным ManageTP1
	opMu sync.Mutex

	mu          sync.Mutex
	running     bool
	uiArmed     bool
	owner       string
	ownerPID    int
	cancel      context.CancelFunc
	done        chan struct{}
	tracked     map[int64]*trackedPosition
	lastTP1     *models.TP1Event
	lastSL      *models.SLEvent
	lastError   string
	lastEventAt time.Time
}

// New создаёт наблюдатель. sink может быть nil.
func New(cfg Config, gateway broker.Gateway, guard *engine.ExecutionGuard, leases LeaseStore, sink EventSink, logger *zap.Logger) *Watcher {
	return &Watcher{
		cfg:     cfg,
		gateway: gateway,
		guard:   guard,
		leases:  leases,
		sink:    sink,
		logger:  logger.Named("watcher"),
		clock:   time.Now,
		tracked: make(map[int64]*trackedPosition),
	}
}

// Start запускает цикл наблюдателя
//
// Требует захвата лизинга: живой чужой лизинг даёт отказ с locked=true
// и идентичностью владельца, протухший перехватывается. Повторный запуск
// в работающем процессе возвращает текущее состояние без ошибки.
func (w *Watcher) Start(ctx context.Context, uiArmed bool) *models.WatcherControlResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		pid := w.ownerPID
		return &models.WatcherControlResult{
			Running: true,
			Locked:  true,
			Owner:   w.owner,
			Pid:     &pid,
			Reason:  "already_running",
		}
	}

	lease := NewLease(w.clock())
	current, acquired, err := w.leases.TryAcquire(ctx, lease, w.cfg.LockStaleness)
	if err != nil {
		w.logger.Error("lease acquire failed", zap.Error(err))
		return &models.WatcherControlResult{
			Running: false,
			Locked:  false,
			Reason:  "lease store error: " + err.Error(),
		}
	}
	if !acquired {
		result := &models.WatcherControlResult{
			Running: false,
			Locked:  true,
			Reason:  "already_running_elsewhere",
		}
		if current != nil {
			pid := current.PID
			result.Owner = current.Owner
			result.Pid = &pid
		}
		return result
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	w.running = true
	w.uiArmed = uiArmed
	w.owner = lease.Owner
	w.ownerPID = lease.PID
	w.lastError = ""

	go w.run(loopCtx, w.done)

	w.logger.Info("watcher started",
		zap.String("owner", lease.Owner),
		zap.Duration("poll_interval", w.cfg.PollInterval))

	pid := lease.PID
	return &models.WatcherControlResult{Running: true, Locked: true, Owner: lease.Owner, Pid: &pid}
}

// Stop останавливает цикл на ближайшей границе итерации и освобождает лизинг
//
// Кооперативно: никогда не прерывает запрос к брокеру в полёте.
func (w *Watcher) Stop(ctx context.Context) *models.WatcherControlResult {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return &models.WatcherControlResult{Running: false, Locked: false}
	}
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}

	return &models.WatcherControlResult{Running: false, Locked: false}
}

// run - основной цикл; завершает done при выходе
func (w *Watcher) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	WatcherRunning.Set(1)
	defer WatcherRunning.Set(0)

	w.broadcastState(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return
		case <-ticker.C:
			started := w.clock()
			err := w.tick(ctx)
			TickDuration.Observe(float64(w.clock().Sub(started).Milliseconds()))

			if err != nil {
				TicksTotal.WithLabelValues("error").Inc()
				w.setLastError(err.Error())
				w.logger.Warn("watcher tick failed", zap.Error(err))
			} else {
				TicksTotal.WithLabelValues("ok").Inc()
			}

			if err := w.leases.Renew(ctx, w.ownerIdentity()); err != nil && ctx.Err() == nil {
				LeaseRenewalsFailed.Inc()
				w.logger.Warn("lease renewal failed", zap.Error(err))
			}
		}
	}
}

// shutdown освобождает лизинг и сбрасывает флаг работы
func (w *Watcher) shutdown() {
	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.leases.Release(releaseCtx, w.ownerIdentity()); err != nil {
		w.logger.Warn("lease release failed", zap.Error(err))
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.broadcastState(releaseCtx)
	w.logger.Info("watcher stopped")
}

// broadcastState отправляет клиентам снимок состояния наблюдателя
func (w *Watcher) broadcastState(ctx context.Context) {
	if w.sink == nil {
		return
	}
	w.sink.BroadcastWatcherState(w.Status(ctx))
}

func (w *Watcher) ownerIdentity() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.owner
}

// tick - один проход цикла: сверка набора и проверка триггеров
func (w *Watcher) tick(ctx context.Context) error {
	positions, err := w.gateway.OpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("poll positions: %w", err)
	}

	// Только свои позиции: метка и префикс комментария
	live := make(map[int64]*models.Position, len(positions))
	for _, p := range positions {
		if p.Magic != w.cfg.Magic {
			continue
		}
		if w.cfg.OrderComment != "" && !strings.HasPrefix(p.Comment, w.cfg.OrderComment) {
			continue
		}
		live[p.Ticket] = p
	}

	// Сверка снимков: тикеты пропавшие из терминала покидают наблюдение.
	// Пропавшие без сработавшего тейка трактуются как закрытие по стопу.
	w.mu.Lock()
	var gone []*trackedPosition
	for ticket, tp := range w.tracked {
		if _, ok := live[ticket]; !ok {
			gone = append(gone, tp)
			delete(w.tracked, ticket)
		}
	}
	w.mu.Unlock()

	for _, tp := range gone {
		if !tp.tp1Done {
			w.emitSLEvent(ctx, tp)
		}
	}

	// Проверка триггеров; сбой одной позиции не трогает остальные
	for _, p := range live {
		if err := w.processPosition(ctx, p); err != nil {
			w.setLastError(fmt.Sprintf("position %d: %s", p.Ticket, err))
			w.logger.Warn("position processing failed",
				zap.Int64("ticket", p.Ticket),
				zap.String("symbol", p.Symbol),
				zap.Error(err))
		}
	}

	w.mu.Lock()
	watching := 0
	for _, tp := range w.tracked {
		if !tp.tp1Done {
			watching++
		}
	}
	w.mu.Unlock()
	WatchedPositions.Set(float64(watching))

	return nil
}

// processPosition регистрирует позицию и проверяет достижение первого тейка
func (w *Watcher) processPosition(ctx context.Context, p *models.Position) error {
	w.mu.Lock()
	tp, known := w.tracked[p.Ticket]
	if known {
		// Обновляем кэш живых полей для детекта стопа
		tp.volume = p.Volume
		tp.stopLoss = p.StopLoss
		done := tp.tp1Done
		w.mu.Unlock()
		if done {
			return nil
		}
	} else {
		w.mu.Unlock()

		spec, err := w.gateway.SymbolSpec(ctx, p.Symbol)
		if err != nil {
			return fmt.Errorf("symbol spec: %w", err)
		}
		pipInPrice := broker.PipInPriceForSpec(spec)

		candidate := &trackedPosition{
			ticket:     p.Ticket,
			symbol:     p.Symbol,
			direction:  p.Direction,
			entry:      p.PriceOpen,
			stopLoss:   p.StopLoss,
			volume:     p.Volume,
			pipInPrice: pipInPrice,
			digits:     spec.Digits,
			volumeMin:  spec.MinVolume,
			volumeStep: spec.VolumeStep,
			createdAt:  w.clock(),
		}
		// Цена тейка кэшируется один раз при регистрации
		if candidate.isBuy() {
			candidate.tp1Price = p.PriceOpen + w.cfg.TP1Pips*pipInPrice
		} else {
			candidate.tp1Price = p.PriceOpen - w.cfg.TP1Pips*pipInPrice
		}

		w.mu.Lock()
		if existing, ok := w.tracked[p.Ticket]; ok {
			tp = existing
		} else {
			w.tracked[p.Ticket] = candidate
			tp = candidate
		}
		done := tp.tp1Done
		w.mu.Unlock()
		if done {
			return nil
		}
	}

	tick, err := w.gateway.Tick(ctx, tp.symbol)
	if err != nil {
		return fmt.Errorf("tick: %w", err)
	}

	// Триггер с учётом спреда: buy закрывается по bid, sell по ask
	var hit bool
	if tp.isBuy() {
		hit = tick.Bid >= tp.tp1Price
	} else {
		hit = tick.Ask <= tp.tp1Price
	}
	if !hit {
		return nil
	}

	// Двойная авторизация перед каждым действием, не кэшируется
	w.mu.Lock()
	armed := w.uiArmed
	w.mu.Unlock()
	if err := w.guard.Authorize(&armed); err != nil {
		w.logger.Warn("TP1 trigger blocked by execution guard",
			zap.Int64("ticket", tp.ticket),
			zap.Error(err))
		return nil
	}

	w.logger.Info("TP1 triggered",
		zap.Int64("ticket", tp.ticket),
		zap.String("symbol", tp.symbol),
		zap.String("direction", string(tp.direction)),
		zap.Float64("entry", tp.entry),
		zap.Float64("tp1_price", tp.tp1Price))

	return w.executeTP1(ctx, tp, tick)
}

// executeTP1 проводит частичное закрытие и перенос стопа в безубыток
//
// Последовательность строго упорядочена для одного тикета: перенос стопа
// начинается только после известного исхода закрытия. Неудачный перенос
// не откатывает закрытие и не мешает пометке TP1Done.
func (w *Watcher) executeTP1(ctx context.Context, tp *trackedPosition, tick *models.Tick) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	// Пока ждали очередь, ручной запрос мог уже закрыть этот тикет
	w.mu.Lock()
	if tp.tp1Done {
		w.mu.Unlock()
		return nil
	}
	liveVolume := tp.volume
	w.mu.Unlock()

	// Остановка цикла не прерывает начатую торговую последовательность:
	// закрытие и перенос стопа довершаются на собственном таймауте
	tradeCtx, cancelTrade := context.WithTimeout(context.WithoutCancel(ctx), tradeSequenceTimeout)
	defer cancelTrade()

	// Ограничения брокера перечитываются перед каждой попыткой:
	// заблокированное закрытие может пройти после смены min/step
	var volumeMin, volumeStep float64
	if spec, err := w.gateway.SymbolSpec(tradeCtx, tp.symbol); err == nil {
		volumeMin = spec.MinVolume
		volumeStep = spec.VolumeStep
		w.mu.Lock()
		tp.volumeMin = spec.MinVolume
		tp.volumeStep = spec.VolumeStep
		tp.digits = spec.Digits
		w.mu.Unlock()
	}

	norm := engine.NormalizeCloseVolume(liveVolume, w.cfg.TP1Percent, volumeMin, volumeStep)
	if norm.Blocked() {
		// Позиция остаётся под наблюдением: ограничения или объём
		// могут измениться к следующему проходу
		TP1Triggered.WithLabelValues(tp.symbol, "blocked").Inc()
		w.setLastError(fmt.Sprintf("partial close blocked #%d: %s", tp.ticket, norm.BlockedReason))
		return nil
	}

	res, err := w.gateway.PartialClose(tradeCtx, tp.ticket, norm.CloseVolume)
	if err != nil {
		TP1Triggered.WithLabelValues(tp.symbol, "failed").Inc()
		return fmt.Errorf("partial close: %w", err)
	}
	if !res.Success {
		TP1Triggered.WithLabelValues(tp.symbol, "failed").Inc()
		w.setLastError(fmt.Sprintf("partial close failed #%d: %s", tp.ticket, res.Message))
		return nil
	}

	var closePrice float64
	if tp.isBuy() {
		closePrice = tick.Bid
	} else {
		closePrice = tick.Ask
	}

	var pipsProfit float64
	if tp.pipInPrice > 0 {
		if tp.isBuy() {
			pipsProfit = (closePrice - tp.entry) / tp.pipInPrice
		} else {
			pipsProfit = (tp.entry - closePrice) / tp.pipInPrice
		}
	}

	profit, err := w.gateway.CalcProfit(tradeCtx, tp.symbol, tp.direction, norm.CloseVolume, tp.entry, closePrice)
	if err != nil {
		profit = nil
	}

	w.logger.Info("TP1 partial close done",
		zap.Int64("ticket", tp.ticket),
		zap.Float64("close_volume", norm.CloseVolume),
		zap.Float64("pips_profit", pipsProfit))

	// Шаг 2: перенос стопа в безубыток, исход фиксируется независимо
	beStatus := "ok"
	bePrice := w.breakevenPrice(tp)
	if beRes, err := w.gateway.ModifySL(tradeCtx, tp.ticket, bePrice); err != nil {
		beStatus = "failed: " + err.Error()
		w.setLastError(fmt.Sprintf("BE move failed #%d: %s", tp.ticket, err))
	} else if !beRes.Success {
		beStatus = "failed: " + beRes.Message
		w.setLastError(fmt.Sprintf("BE move failed #%d: %s", tp.ticket, beRes.Message))
	}

	TP1Triggered.WithLabelValues(tp.symbol, "closed").Inc()

	// Пометка TP1Done: триггер для этого тикета больше никогда не сработает
	w.mu.Lock()
	tp.tp1Done = true
	ev := &models.TP1Event{
		Ticket:      tp.ticket,
		Symbol:      tp.symbol,
		Direction:   tp.direction,
		Entry:       tp.entry,
		TP1Price:    tp.tp1Price,
		ClosePrice:  closePrice,
		CloseVolume: norm.CloseVolume,
		PipsProfit:  utils.RoundToDigits(pipsProfit, 1),
		ProfitMoney: profit,
		BEStatus:    beStatus,
		Timestamp:   w.nextEventTimeLocked(),
	}
	w.lastTP1 = ev
	w.mu.Unlock()

	if w.sink != nil {
		w.sink.BroadcastTP1Event(ev)
	}
	return nil
}

// breakevenPrice считает цену стопа безубытка с округлением до знаков символа
func (w *Watcher) breakevenPrice(tp *trackedPosition) float64 {
	var price float64
	if tp.isBuy() {
		price = tp.entry + w.cfg.BEBufferPips*tp.pipInPrice
	} else {
		price = tp.entry - w.cfg.BEBufferPips*tp.pipInPrice
	}
	return utils.RoundToDigits(price, tp.digits)
}

// emitSLEvent публикует событие закрытия по стопу для исчезнувшей позиции
func (w *Watcher) emitSLEvent(ctx context.Context, tp *trackedPosition) {
	SLDetected.WithLabelValues(tp.symbol).Inc()

	var profit *float64
	if tp.stopLoss > 0 {
		if p, err := w.gateway.CalcProfit(ctx, tp.symbol, tp.direction, tp.volume, tp.entry, tp.stopLoss); err == nil {
			profit = p
		}
	}

	var pipsLoss float64
	if tp.stopLoss > 0 && tp.pipInPrice > 0 {
		if tp.isBuy() {
			pipsLoss = (tp.entry - tp.stopLoss) / tp.pipInPrice
		} else {
			pipsLoss = (tp.stopLoss - tp.entry) / tp.pipInPrice
		}
		if pipsLoss < 0 {
			pipsLoss = -pipsLoss
		}
	}

	w.mu.Lock()
	ev := &models.SLEvent{
		Ticket:      tp.ticket,
		Symbol:      tp.symbol,
		Direction:   tp.direction,
		Entry:       tp.entry,
		SLPrice:     tp.stopLoss,
		Volume:      tp.volume,
		PipsLoss:    utils.RoundToDigits(pipsLoss, 1),
		ProfitMoney: profit,
		Timestamp:   w.nextEventTimeLocked(),
	}
	w.lastSL = ev
	w.mu.Unlock()

	w.logger.Info("SL closure detected",
		zap.Int64("ticket", tp.ticket),
		zap.String("symbol", tp.symbol),
		zap.Float64("sl_price", tp.stopLoss))

	if w.sink != nil {
		w.sink.BroadcastSLEvent(ev)
	}
}

// nextEventTimeLocked возвращает строго возрастающую временную метку
// ВАЖНО: вызывается под w.mu
func (w *Watcher) nextEventTimeLocked() time.Time {
	now := w.clock()
	if !now.After(w.lastEventAt) {
		now = w.lastEventAt.Add(time.Nanosecond)
	}
	w.lastEventAt = now
	return now
}

func (w *Watcher) setLastError(msg string) {
	w.mu.Lock()
	w.lastError = msg
	w.mu.Unlock()
}

// Status возвращает снимок состояния наблюдателя
func (w *Watcher) Status(ctx context.Context) *models.WatcherStatus {
	lease, err := w.leases.Current(ctx)
	if err != nil {
		w.logger.Warn("lease read failed", zap.Error(err))
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	watching := 0
	doneCount := 0
	for _, tp := range w.tracked {
		if tp.tp1Done {
			doneCount++
		} else {
			watching++
		}
	}

	status := &models.WatcherStatus{
		Running:          w.running,
		WatchedPositions: watching,
		TP1DoneCount:     doneCount,
		LastError:        w.lastError,
		LastTP1Event:     w.lastTP1,
		LastSLEvent:      w.lastSL,
	}
	if lease != nil {
		status.LockOwner = lease.Owner
		age := lease.Age(w.clock()).Seconds()
		status.LockAgeSeconds = &age
	}
	return status
}

// ManageTP1 - разовое ручное сопровождение: частичное закрытие с переносом
// стопа, с той же пометкой TP1Done что и автоматический триггер
//
// Идемпотентно: повторный вызов для тикета с уже сработавшим тейком
// возвращает прежний исход и ничего не закрывает.
func (w *Watcher) ManageTP1(ctx context.Context, req *models.TP1ManageRequest) *models.TP1ManageResult {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	w.mu.Lock()
	if tp, ok := w.tracked[req.Ticket]; ok && tp.tp1Done {
		prior := w.lastTP1
		w.mu.Unlock()
		result := &models.TP1ManageResult{
			Success:        true,
			PositionTicket: req.Ticket,
			Error:          "tp1_already_done",
		}
		if prior != nil && prior.Ticket == req.Ticket {
			result.ClosedVolumeRequested = prior.CloseVolume
			result.ClosedVolumeNormalized = prior.CloseVolume
		}
		return result
	}
	w.mu.Unlock()

	pos, err := w.gateway.PositionByTicket(ctx, req.Ticket)
	if err != nil {
		return &models.TP1ManageResult{
			Success:        false,
			PositionTicket: req.Ticket,
			Error:          err.Error(),
		}
	}

	spec, err := w.gateway.SymbolSpec(ctx, pos.Symbol)
	if err != nil {
		return &models.TP1ManageResult{
			Success:        false,
			PositionTicket: req.Ticket,
			Error:          "symbol specs unavailable: " + err.Error(),
		}
	}
	pipInPrice := broker.PipInPriceForSpec(spec)

	norm := engine.NormalizeCloseVolume(pos.Volume, req.PartialPercent, spec.MinVolume, spec.VolumeStep)
	if norm.Blocked() {
		return &models.TP1ManageResult{
			Success:               false,
			PositionTicket:        req.Ticket,
			ClosedVolumeRequested: norm.RequestedVolume,
			Error:                 norm.BlockedReason,
		}
	}

	// Обрыв HTTP-запроса не прерывает последовательность закрытие + стоп
	tradeCtx, cancelTrade := context.WithTimeout(context.WithoutCancel(ctx), tradeSequenceTimeout)
	defer cancelTrade()

	res, err := w.gateway.PartialClose(tradeCtx, req.Ticket, norm.CloseVolume)
	if err != nil {
		return &models.TP1ManageResult{
			Success:               false,
			PositionTicket:        req.Ticket,
			ClosedVolumeRequested: norm.RequestedVolume,
			Error:                 err.Error(),
		}
	}
	if !res.Success {
		return &models.TP1ManageResult{
			Success:               false,
			PositionTicket:        req.Ticket,
			ClosedVolumeRequested: norm.RequestedVolume,
			Error:                 res.Message,
		}
	}

	result := &models.TP1ManageResult{
		Success:                true,
		PositionTicket:         req.Ticket,
		ClosedVolumeRequested:  norm.RequestedVolume,
		ClosedVolumeNormalized: norm.CloseVolume,
	}

	// Перенос стопа независим от исхода закрытия
	if req.MoveToBEEnabled {
		var bePrice float64
		if pos.Direction == models.DirectionSell {
			bePrice = pos.PriceOpen - req.BEBufferPips*pipInPrice
		} else {
			bePrice = pos.PriceOpen + req.BEBufferPips*pipInPrice
		}
		bePrice = utils.RoundToDigits(bePrice, spec.Digits)

		if beRes, err := w.gateway.ModifySL(tradeCtx, req.Ticket, bePrice); err != nil {
			result.Error = "be move failed: " + err.Error()
		} else if !beRes.Success {
			result.Error = "be move failed: " + beRes.Message
		} else {
			result.SLPriceSet = &bePrice
		}
	}

	// Регистрация с пометкой: автоматический триггер не повторит закрытие
	w.mu.Lock()
	tp, ok := w.tracked[req.Ticket]
	if !ok {
		tp = &trackedPosition{
			ticket:     req.Ticket,
			symbol:     pos.Symbol,
			direction:  pos.Direction,
			entry:      pos.PriceOpen,
			stopLoss:   pos.StopLoss,
			volume:     pos.Volume,
			pipInPrice: pipInPrice,
			digits:     spec.Digits,
			volumeMin:  spec.MinVolume,
			volumeStep: spec.VolumeStep,
			createdAt:  w.clock(),
		}
		if tp.isBuy() {
			tp.tp1Price = pos.PriceOpen + w.cfg.TP1Pips*pipInPrice
		} else {
			tp.tp1Price = pos.PriceOpen - w.cfg.TP1Pips*pipInPrice
		}
		w.tracked[req.Ticket] = tp
	}
	tp.tp1Done = true

	var closePrice float64
	if res.Price > 0 {
		closePrice = res.Price
	}
	var pipsProfit float64
	if pipInPrice > 0 && closePrice > 0 {
		if tp.isBuy() {
			pipsProfit = (closePrice - tp.entry) / pipInPrice
		} else {
			pipsProfit = (tp.entry - closePrice) / pipInPrice
		}
	}
	beStatus := "skipped"
	if req.MoveToBEEnabled {
		if result.SLPriceSet != nil {
			beStatus = "ok"
		} else {
			beStatus = result.Error
		}
	}
	ev := &models.TP1Event{
		Ticket:      tp.ticket,
		Symbol:      tp.symbol,
		Direction:   tp.direction,
		Entry:       tp.entry,
		TP1Price:    tp.tp1Price,
		ClosePrice:  closePrice,
		CloseVolume: norm.CloseVolume,
		PipsProfit:  utils.RoundToDigits(pipsProfit, 1),
		BEStatus:    beStatus,
		Timestamp:   w.nextEventTimeLocked(),
	}
	w.lastTP1 = ev
	w.mu.Unlock()

	if w.sink != nil {
		w.sink.BroadcastTP1Event(ev)
	}

	return result
}

// Running сообщает работает ли цикл наблюдателя
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
