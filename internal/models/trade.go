package models

// OrderRequest - запрос на выставление ордера
// Price nil означает рыночное исполнение
type OrderRequest struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Volume    float64   `json:"volume"`
	Price     *float64  `json:"price,omitempty"`
	SLPrice   *float64  `json:"sl_price,omitempty"`
	TPPrice   *float64  `json:"tp_price,omitempty"`
	UIArmed   *bool     `json:"ui_armed,omitempty"`
	Comment   string    `json:"comment,omitempty"`
}

// PlaceOrderResult - исход выставления ордера на уровне API
type PlaceOrderResult struct {
	Success        bool   `json:"success"`
	OrderTicket    int64  `json:"order_ticket,omitempty"`
	PositionTicket *int64 `json:"position_ticket,omitempty"`
	Error          string `json:"error,omitempty"`
}

// OrderResult - исход торговой операции на стороне брокера
type OrderResult struct {
	Success bool    `json:"success"`
	Ticket  int64   `json:"ticket,omitempty"`
	Price   float64 `json:"price,omitempty"`
	Volume  float64 `json:"volume,omitempty"`
	Retcode int     `json:"retcode,omitempty"`
	Message string  `json:"message,omitempty"`
}

// PartialCloseRequest - запрос частичного закрытия позиции
//
// Современная форма задаёт процент от текущего объёма позиции,
// легаси-форма (ticket + volume) задаёт объём в лотах напрямую.
type PartialCloseRequest struct {
	PositionTicket int64    `json:"position_ticket,omitempty"`
	Percent        *float64 `json:"percent,omitempty"`
	Ticket         int64    `json:"ticket,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	UIArmed        *bool    `json:"ui_armed,omitempty"`
}

// ResolveTicket возвращает тикет из современной или легаси формы
func (r *PartialCloseRequest) ResolveTicket() int64 {
	if r.PositionTicket != 0 {
		return r.PositionTicket
	}
	return r.Ticket
}

// PartialCloseResult - исход частичного закрытия
//
// При блокировке нормализатором содержит достаточно деталей
// (запрошенный и нормализованный объёмы, ограничения брокера)
// чтобы оператор мог поправить параметры.
type PartialCloseResult struct {
	Success         bool    `json:"success"`
	Ticket          int64   `json:"ticket"`
	RequestedVolume float64 `json:"requested_volume"`
	CloseVolume     float64 `json:"close_volume"`
	RemainingVolume float64 `json:"remaining_volume"`
	BlockedReason   string  `json:"blocked_reason,omitempty"`
	VolumeMin       float64 `json:"volume_min"`
	VolumeStep      float64 `json:"volume_step"`
	ClosePrice      float64 `json:"close_price,omitempty"`
	Error           string  `json:"error,omitempty"`
}

// ModifySLRequest - запрос переноса стоп-лосса
type ModifySLRequest struct {
	Ticket  int64   `json:"ticket"`
	SLPrice float64 `json:"sl_price"`
	UIArmed *bool   `json:"ui_armed,omitempty"`
}

// MoveToBERequest - запрос переноса стопа в безубыток
type MoveToBERequest struct {
	PositionTicket int64   `json:"position_ticket"`
	BufferPips     float64 `json:"buffer_pips"`
	UIArmed        *bool   `json:"ui_armed,omitempty"`
}

// ModifySLResult - исход модификации стоп-лосса
type ModifySLResult struct {
	Success bool     `json:"success"`
	SLPrice *float64 `json:"sl_price,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// NormalizeResult - нормализованный объем частичного закрытия
type NormalizeResult struct {
	RequestedVolume float64 `json:"requested_volume"`
	CloseVolume     float64 `json:"close_volume"`
	RemainingVolume float64 `json:"remaining_volume"`
	BlockedReason   string  `json:"blocked_reason,omitempty"`
	VolumeMin       float64 `json:"volume_min"`
	VolumeStep      float64 `json:"volume_step"`
}

// Blocked сообщает была ли нормализация заблокирована
func (r *NormalizeResult) Blocked() bool {
	return r.BlockedReason != ""
}
