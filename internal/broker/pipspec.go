package broker

import (
	"strings"

	"tradeplanner/internal/models"
)

// PipInPrice возвращает размер одного пипса в ценовых единицах символа
//
// Терминал отдаёт только point и digits, а понятие "пипс" у трейдеров
// зависит от инструмента. Эвристика повторяет общепринятые конвенции:
//   - золото (XAUUSD и варианты): пипс = 0.10
//   - биткоин (BTCUSD, XBTUSD): пипс = 1.0
//   - 3 знака (JPY-пары): пипс = 0.01
//   - 5 знаков (мажоры): пипс = 0.0001
//   - 2 знака (индексы, некоторые CFD): пипс = 0.01
//   - иначе: пипс = 0.0001
func PipInPrice(symbol string, digits int) float64 {
	s := strings.ToUpper(symbol)

	if strings.Contains(s, "XAU") || strings.Contains(s, "GOLD") {
		return 0.10
	}
	if strings.Contains(s, "BTC") || strings.Contains(s, "XBT") {
		return 1.0
	}

	switch digits {
	case 3:
		return 0.01
	case 5:
		return 0.0001
	case 2:
		return 0.01
	default:
		return 0.0001
	}
}

// PipInPriceForSpec выбирает размер пипса для характеристик символа
//
// Если мост сам сообщил pip_in_price, его значение приоритетнее эвристики.
func PipInPriceForSpec(spec *models.SymbolSpec) float64 {
	if spec.PipInPrice > 0 {
		return spec.PipInPrice
	}
	return PipInPrice(spec.Symbol, spec.Digits)
}
