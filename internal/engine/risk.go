package engine

import (
	"fmt"
	"math"

	"tradeplanner/internal/models"
	"tradeplanner/pkg/utils"
)

// CalculateRisk превращает торговые параметры в рекомендованный объём
// и сводку риска
//
// Чистая функция: не ходит в брокера и никогда не возвращает ошибку,
// все невалидные входы дают allowed=false плюс человекочитаемое
// предупреждение. Расчёт ведётся в полной точности, округление
// только на выходе для отображения.
//
// Формула:
//
//	target_risk = balance * risk_percent / 100
//	volume_raw  = target_risk / (stop_pips * pip_value_per_1_lot)
//	volume      = floor_to_step(volume_raw), но не ниже минимального лота
func CalculateRisk(in *models.RiskCalcInput) *models.RiskCalcOutput {
	out := &models.RiskCalcOutput{
		TargetRiskPercent: in.RiskPercent,
		TP1Pips:           in.TP1Pips,
		PartialPercent:    in.PartialPercent,
		Warnings:          []string{},
	}

	targetRisk := in.AccountBalance * in.RiskPercent / 100.0

	var volumeRaw float64
	if in.PipValuePerLot > 0 && in.StopPips > 0 {
		volumeRaw = targetRisk / (in.StopPips * in.PipValuePerLot)
	}

	// Квантуем вниз до шага, минимальный лот поднимаем вверх до
	// ближайшего валидного шага
	step := in.VolumeStep
	if step <= 0 {
		step = 0.01
	}
	stepped := FloorVolumeToStep(volumeRaw, step)
	minValid := utils.CeilToStep(in.MinVolume, step)

	volume := stepped
	if volume < minValid {
		volume = minValid
	}
	volume = FloorVolumeToStep(volume, step)

	actualRisk := volume * in.StopPips * in.PipValuePerLot
	actualRiskPercent := 0.0
	if in.AccountBalance > 0 {
		actualRiskPercent = actualRisk / in.AccountBalance * 100.0
	}

	// Разрешение сделки: стоп в пределах лимита, пипс-стоимость
	// положительна, объём конечен
	allowed := true
	if in.StopPips > in.MaxStopPips {
		allowed = false
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"Stop loss (%g pips) exceeds maximum allowed (%g pips)",
			in.StopPips, in.MaxStopPips))
	}
	if in.PipValuePerLot <= 0 {
		allowed = false
		out.Warnings = append(out.Warnings, "Pip value per 1 lot must be positive")
	}
	if math.IsInf(volumeRaw, 0) || math.IsNaN(volumeRaw) {
		allowed = false
		volumeRaw = 0
		out.Warnings = append(out.Warnings, "Volume calculation produced a non-finite result")
	}

	if allowed && volume <= minValid && volumeRaw < minValid {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"Volume floored to minimum (%g). Actual risk exceeds target.", minValid))
	}
	if allowed && in.RiskPercent > 0 && actualRiskPercent > in.RiskPercent*1.1 {
		out.Warnings = append(out.Warnings, fmt.Sprintf(
			"Actual risk (%.2f%%) significantly exceeds target (%g%%)",
			actualRiskPercent, in.RiskPercent))
	}

	// Остаток после частичного закрытия считается тем же нормализатором
	// что применит наблюдатель, чтобы превью совпало с фактом
	remaining := volume
	if in.TP1Pips != nil && *in.TP1Pips > 0 && in.PartialPercent > 0 {
		norm := NormalizeCloseVolume(volume, in.PartialPercent, in.MinVolume, step)
		if !norm.Blocked() {
			remaining = norm.RemainingVolume
		}
	}

	// Цена безубытка: вход плюс-минус буфер в пипсах
	if in.MoveToBEEnabled && in.TP1Pips != nil && in.EntryPrice > 0 {
		pipSize := in.PipInPrice
		if pipSize <= 0 {
			// Размер пипса неизвестен, буфер трактуем в ценовых единицах
			pipSize = 1.0
		}
		var bePrice float64
		if in.Direction == models.DirectionSell {
			bePrice = in.EntryPrice - in.BEBufferPips*pipSize
		} else {
			bePrice = in.EntryPrice + in.BEBufferPips*pipSize
		}
		out.BESLPrice = &bePrice
	}

	out.Allowed = allowed
	out.VolumeRaw = math.Floor(volumeRaw*10000) / 10000
	out.Volume = volume
	out.TargetRiskAmount = utils.RoundToDigits(targetRisk, 2)
	out.ActualRiskAmount = utils.RoundToDigits(actualRisk, 2)
	out.ActualRiskPercent = utils.RoundToDigits(actualRiskPercent, 2)
	out.RemainingVolume = utils.RoundToDigits(remaining, 2)

	return out
}
