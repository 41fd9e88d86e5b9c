package utils

import (
	"math"
)

// math.go - математические утилиты для работы с объёмами и ценами
//
// Назначение:
// Вспомогательные математические функции для торговых операций.
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - FloorToStep: округление объёма вниз до шага лота брокера
// - CeilToStep: округление объёма вверх до шага лота
// - RoundToStep: округление к ближайшему кратному шага
// - RoundToDigits: округление цены до знаков символа

// FloorToStep округляет значение ВНИЗ до ближайшего кратного step.
//
// Используется для округления объёма до шага лота брокера.
// Округление вниз гарантирует, что мы не закроем больше чем просили
// и не превысим целевой риск.
//
// Параметры:
//   - value: исходное значение (объём в лотах)
//   - step: шаг изменения объёма у брокера
//
// Возвращает:
//   - Округлённое значение, кратное step
//   - Если step <= 0, возвращает исходное значение
//
// Примеры:
//   - FloorToStep(0.123456, 0.01) = 0.12
//   - FloorToStep(1.999, 0.01) = 1.99
//   - FloorToStep(100.5, 1.0) = 100.0
func FloorToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	// Малая добавка гасит ошибку представления float64,
	// иначе 0.3/0.1 даёт 2.9999... и floor съедает шаг
	return math.Floor(value/step+1e-9) * step
}

// CeilToStep округляет значение ВВЕРХ до ближайшего кратного step.
//
// Используется когда нужно гарантировать минимальный объём.
func CeilToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Ceil(value/step-1e-9) * step
}

// RoundToStep округляет к ближайшему кратному step.
func RoundToStep(value, step float64) float64 {
	if step <= 0 {
		return value
	}
	return math.Round(value/step) * step
}

// RoundToDigits округляет цену до указанного числа знаков после запятой.
//
// Используется перед отправкой цен стопов брокеру, чтобы не получить
// отказ из-за лишней точности.
//
// Примеры:
//   - RoundToDigits(1.234567, 5) = 1.23457
//   - RoundToDigits(1950.123, 2) = 1950.12
func RoundToDigits(value float64, digits int) float64 {
	if digits < 0 {
		return value
	}
	pow := math.Pow(10, float64(digits))
	return math.Round(value*pow) / pow
}
