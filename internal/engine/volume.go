// Package engine содержит чистую расчётную логику планировщика:
// нормализацию объёмов, расчёт риска и шлюз авторизации.
// Никакого I/O, все функции детерминированы и тестируются без брокера.
package engine

import (
	"math"

	"tradeplanner/internal/models"
	"tradeplanner/pkg/utils"
)

// volumeEpsilon гасит дрейф представления float64 при сравнении объёмов
const volumeEpsilon = 1e-12

// Причины блокировки нормализатора. Строки являются wire-контрактом,
// фронтенд сопоставляет их с подсказками оператору.
const (
	ReasonPositionVolumeInvalid  = "position_volume_invalid"
	ReasonSymbolSpecsUnavailable = "symbol_specs_unavailable"
	ReasonRequestedBelowMinLot   = "requested_close_below_min_lot"
	ReasonRemainingBelowMinLot   = "remaining_below_min_lot"
	ReasonWouldCloseFullPosition = "would_close_full_position"
)

// FloorVolumeToStep квантует объём вниз до шага лота брокера
//
// Никогда не округляет вверх: закрыть меньше запрошенного безопасно,
// закрыть больше - нет.
func FloorVolumeToStep(value, step float64) float64 {
	if step <= 0 {
		return 0
	}
	steps := math.Floor((value + volumeEpsilon) / step)
	return steps * step
}

// NormalizeCloseVolume вычисляет безопасный для брокера объём частичного закрытия
//
// Используется одинаково калькулятором риска, ручным частичным закрытием
// и наблюдателем. Запрос на 100% закрывает позицию целиком без квантования.
// Небезопасные случаи блокируются с указанием причины:
//   - позиция с нулевым или отрицательным объёмом
//   - брокер не отдал min_volume или volume_step
//   - квантованный объём меньше минимального лота
//   - после закрытия останется пыль меньше минимального лота
//   - частичный запрос (< 100%) съел бы позицию целиком
func NormalizeCloseVolume(positionVolume, percent, volumeMin, volumeStep float64) *models.NormalizeResult {
	requested := positionVolume * (percent / 100.0)

	var closeVolume float64
	if percent >= 100.0 {
		closeVolume = positionVolume
	} else {
		closeVolume = FloorVolumeToStep(requested, volumeStep)
	}

	remaining := positionVolume - closeVolume

	var reason string
	switch {
	case positionVolume <= 0:
		reason = ReasonPositionVolumeInvalid
	case volumeMin <= 0 || volumeStep <= 0:
		reason = ReasonSymbolSpecsUnavailable
	case percent < 100.0 && closeVolume < volumeMin-volumeEpsilon:
		reason = ReasonRequestedBelowMinLot
	case remaining > volumeEpsilon && remaining < volumeMin-volumeEpsilon:
		reason = ReasonRemainingBelowMinLot
	case percent < 100.0 && closeVolume >= positionVolume-volumeEpsilon:
		reason = ReasonWouldCloseFullPosition
	}

	if remaining < 0 {
		remaining = 0
	}

	// Дрейф представления (0.3 - 0.1 = 0.19999999999999998) не должен
	// утекать в wire-ответы
	return &models.NormalizeResult{
		RequestedVolume: utils.RoundToDigits(requested, 8),
		CloseVolume:     utils.RoundToDigits(closeVolume, 8),
		RemainingVolume: utils.RoundToDigits(remaining, 8),
		BlockedReason:   reason,
		VolumeMin:       volumeMin,
		VolumeStep:      volumeStep,
	}
}

// NormalizeCloseByVolume нормализует закрытие заданное объёмом, а не процентом
//
// Легаси-форма запроса частичного закрытия (ticket+volume). Объём
// переводится в процент от текущего объёма позиции и проходит те же
// проверки что и процентная форма.
func NormalizeCloseByVolume(positionVolume, closeVolume, volumeMin, volumeStep float64) *models.NormalizeResult {
	if positionVolume <= 0 {
		return &models.NormalizeResult{
			BlockedReason: ReasonPositionVolumeInvalid,
			VolumeMin:     volumeMin,
			VolumeStep:    volumeStep,
		}
	}
	percent := closeVolume / positionVolume * 100.0
	return NormalizeCloseVolume(positionVolume, percent, volumeMin, volumeStep)
}
