package models

// Direction - направление сделки
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Valid проверяет что направление одно из двух допустимых
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// RiskCalcInput - входные параметры расчета риска/объема
//
// Конструируется на каждый запрос и не мутируется. Все цены в валюте
// котировки, дистанции в пипсах, баланс и риск в валюте счета.
type RiskCalcInput struct {
	AccountBalance  float64   `json:"account_balance"`
	RiskPercent     float64   `json:"risk_percent"`
	Symbol          string    `json:"symbol"`
	Direction       Direction `json:"direction"`
	EntryPrice      float64   `json:"entry_price"`
	StopPips        float64   `json:"stop_pips"`
	MaxStopPips     float64   `json:"max_stop_pips"`
	TP1Pips         *float64  `json:"tp1_pips,omitempty"`
	PartialPercent  float64   `json:"partial_percent"`
	MoveToBEEnabled bool      `json:"move_to_be_enabled"`
	BEBufferPips    float64   `json:"be_buffer_pips"`
	PipValuePerLot  float64   `json:"pip_value_per_1_lot"`

	// PipInPrice - размер пипса в ценовых единицах символа; нужен только
	// для расчета be_sl_price, при нуле буфер трактуется в ценовых единицах
	PipInPrice float64 `json:"pip_in_price,omitempty"`

	// Брокерские ограничения объема
	MinVolume  float64 `json:"min_volume"`
	VolumeStep float64 `json:"volume_step"`
}

// RiskCalcOutput - результат расчета риска/объема
//
// Производный объект, после создания не меняется. Денежные значения
// округлены только для отображения, внутренний расчет велся в полной
// точности.
type RiskCalcOutput struct {
	Allowed           bool     `json:"allowed"`
	VolumeRaw         float64  `json:"volume_raw"`
	Volume            float64  `json:"volume"`
	TargetRiskAmount  float64  `json:"target_risk_amount"`
	ActualRiskAmount  float64  `json:"actual_risk_amount"`
	TargetRiskPercent float64  `json:"target_risk_percent"`
	ActualRiskPercent float64  `json:"actual_risk_percent"`
	TP1Pips           *float64 `json:"tp1_pips,omitempty"`
	PartialPercent    float64  `json:"partial_percent"`
	RemainingVolume   float64  `json:"remaining_volume"`
	BESLPrice         *float64 `json:"be_sl_price,omitempty"`
	Warnings          []string `json:"warnings"`
}
