package models

import "time"

// TP1ManageRequest - разовый запрос сопровождения позиции до первого тейка
type TP1ManageRequest struct {
	Ticket          int64   `json:"ticket"`
	PartialPercent  float64 `json:"partial_percent"`
	MoveToBEEnabled bool    `json:"move_to_be_enabled"`
	BEBufferPips    float64 `json:"be_buffer_pips"`
	UIArmed         *bool   `json:"ui_armed,omitempty"`
}

// TP1ManageResult - исход разового сопровождения
type TP1ManageResult struct {
	Success                bool     `json:"success"`
	PositionTicket         int64    `json:"position_ticket"`
	ClosedVolumeRequested  float64  `json:"closed_volume_requested"`
	ClosedVolumeNormalized float64  `json:"closed_volume_normalized"`
	SLPriceSet             *float64 `json:"sl_price_set,omitempty"`
	Error                  string   `json:"error,omitempty"`
}

// WatcherControlRequest - запрос запуска или остановки наблюдателя
type WatcherControlRequest struct {
	Enabled bool  `json:"enabled"`
	UIArmed *bool `json:"ui_armed,omitempty"`
}

// WatcherControlResult - исход запуска или остановки наблюдателя
type WatcherControlResult struct {
	Running bool   `json:"running"`
	Locked  bool   `json:"locked"`
	Owner   string `json:"owner,omitempty"`
	Pid     *int   `json:"pid,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// TP1Event - событие срабатывания первого тейка
//
// Временные метки строго возрастают между событиями одного вида,
// поэтому клиент определяет "новое с прошлого опроса" одним сравнением.
type TP1Event struct {
	Ticket      int64     `json:"ticket"`
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction"`
	Entry       float64   `json:"entry"`
	TP1Price    float64   `json:"tp1_price"`
	ClosePrice  float64   `json:"close_price"`
	CloseVolume float64   `json:"close_volume"`
	PipsProfit  float64   `json:"pips_profit"`
	ProfitMoney *float64  `json:"profit_money,omitempty"`
	BEStatus    string    `json:"be_status"`
	Timestamp   time.Time `json:"timestamp"`
}

// SLEvent - событие исчезновения отслеживаемой позиции без первого тейка
// Трактуется как срабатывание стоп-лосса
type SLEvent struct {
	Ticket      int64     `json:"ticket"`
	Symbol      string    `json:"symbol"`
	Direction   Direction `json:"direction"`
	Entry       float64   `json:"entry"`
	SLPrice     float64   `json:"sl_price"`
	Volume      float64   `json:"volume"`
	PipsLoss    float64   `json:"pips_loss"`
	ProfitMoney *float64  `json:"profit_money,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// WatcherStatus - снимок состояния наблюдателя для опроса клиентами
type WatcherStatus struct {
	Running          bool      `json:"running"`
	LockOwner        string    `json:"lock_owner,omitempty"`
	LockAgeSeconds   *float64  `json:"lock_age_seconds,omitempty"`
	WatchedPositions int       `json:"watched_positions"`
	TP1DoneCount     int       `json:"tp1_done_count"`
	LastError        string    `json:"last_error,omitempty"`
	LastTP1Event     *TP1Event `json:"last_tp1_event,omitempty"`
	LastSLEvent      *SLEvent  `json:"last_sl_event,omitempty"`
}

// Position - открытая позиция в терминале брокера
type Position struct {
	Ticket     int64     `json:"ticket"`
	Symbol     string    `json:"symbol"`
	Direction  Direction `json:"direction"`
	Volume     float64   `json:"volume"`
	PriceOpen  float64   `json:"price_open"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Profit     float64   `json:"profit,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	Magic      int64     `json:"magic,omitempty"`
	OpenedAt   time.Time `json:"opened_at,omitempty"`
}

// SymbolSpec - торговые характеристики символа
type SymbolSpec struct {
	Symbol     string  `json:"symbol"`
	Digits     int     `json:"digits"`
	MinVolume  float64 `json:"min_volume"`
	MaxVolume  float64 `json:"max_volume"`
	VolumeStep float64 `json:"volume_step"`
	PipInPrice float64 `json:"pip_in_price,omitempty"`
}

// Tick - последняя котировка символа
type Tick struct {
	Symbol string  `json:"symbol"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
}

// BrokerStatus - состояние подключения к терминалу
type BrokerStatus struct {
	Connected      bool    `json:"connected"`
	TradeAllowed   bool    `json:"trade_allowed"`
	AccountLogin   int64   `json:"account_login,omitempty"`
	AccountBalance float64 `json:"account_balance,omitempty"`
	Currency       string  `json:"currency,omitempty"`
	Server         string  `json:"server,omitempty"`
	Message        string  `json:"message,omitempty"`
}
