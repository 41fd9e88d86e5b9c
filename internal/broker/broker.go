// Package broker предоставляет унифицированный интерфейс к торговому терминалу MT5.
package broker

import (
	"context"
	"errors"
	"strconv"

	"tradeplanner/internal/models"
)

// Ошибки брокерского слоя
var (
	// ErrNotConnected - мост не подключен к терминалу
	ErrNotConnected = errors.New("broker bridge is not connected")

	// ErrPositionNotFound - позиция с указанным тикетом не существует
	ErrPositionNotFound = errors.New("position not found")

	// ErrSymbolNotFound - символ неизвестен терминалу
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Gateway определяет унифицированный интерфейс к терминалу
//
// Реализации: BridgeClient (HTTP мост к живому терминалу)
// и фейки в тестах.
type Gateway interface {
	// Status возвращает состояние подключения и счёта
	Status(ctx context.Context) (*models.BrokerStatus, error)

	// OpenPositions возвращает открытые позиции терминала
	OpenPositions(ctx context.Context) ([]*models.Position, error)

	// PositionByTicket возвращает позицию по тикету
	// Возвращает ErrPositionNotFound если позиция закрыта или не существует
	PositionByTicket(ctx context.Context, ticket int64) (*models.Position, error)

	// SymbolSpec возвращает торговые характеристики символа
	SymbolSpec(ctx context.Context, symbol string) (*models.SymbolSpec, error)

	// Tick возвращает последнюю котировку символа
	Tick(ctx context.Context, symbol string) (*models.Tick, error)

	// PlaceOrder выставляет рыночный ордер
	PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error)

	// PartialClose закрывает часть позиции встречным рыночным ордером
	// volume уже нормализован до шага лота
	PartialClose(ctx context.Context, ticket int64, volume float64) (*models.OrderResult, error)

	// ModifySL переносит стоп-лосс позиции
	ModifySL(ctx context.Context, ticket int64, slPrice float64) (*models.OrderResult, error)

	// CalcProfit оценивает прибыль сделки в валюте счёта
	// nil без ошибки означает что терминал не смог посчитать
	CalcProfit(ctx context.Context, symbol string, direction models.Direction, volume, openPrice, closePrice float64) (*float64, error)

	// Close закрывает соединения с мостом
	Close() error
}

// retcodeMessages - расшифровка кодов возврата торгового сервера MT5
//
// Коды из документации MqlTradeResult, сюда вынесены только те
// что реально встречаются при рыночных операциях.
var retcodeMessages = map[int]string{
	10004: "Requote",
	10006: "Request rejected",
	10007: "Request canceled by trader",
	10008: "Order placed",
	10009: "Request completed",
	10010: "Only part of the request was completed",
	10011: "Request processing error",
	10012: "Request canceled by timeout",
	10013: "Invalid request",
	10014: "Invalid volume in the request",
	10015: "Invalid price in the request",
	10016: "Invalid stops in the request",
	10017: "Trade is disabled",
	10018: "Market is closed",
	10019: "There is not enough money to complete the request",
	10020: "Prices changed",
	10021: "There are no quotes to process the request",
	10022: "Invalid order expiration date in the request",
	10023: "Order state changed",
	10024: "Too frequent requests",
	10025: "No changes in request",
	10026: "Autotrading disabled by server",
	10027: "Autotrading disabled by client terminal",
	10028: "Request locked for processing",
	10029: "Order or position frozen",
	10030: "Invalid order filling type",
	10031: "No connection with the trade server",
	10032: "Operation is allowed only for live accounts",
	10033: "The number of pending orders has reached the limit",
	10034: "The volume of orders and positions for the symbol has reached the limit",
}

// RetcodeDone - успешное завершение торгового запроса
const RetcodeDone = 10009

// RetcodeMessage возвращает человекочитаемую расшифровку кода возврата
func RetcodeMessage(retcode int) string {
	if msg, ok := retcodeMessages[retcode]; ok {
		return msg
	}
	return "Unknown retcode " + strconv.Itoa(retcode)
}

// IsRetryableRetcode сообщает стоит ли повторять запрос после данного кода
//
// Реквоты, изменившиеся цены и перегрузка сервера временные,
// отказ по деньгам или стопам повторять бессмысленно.
func IsRetryableRetcode(retcode int) bool {
	switch retcode {
	case 10004, 10020, 10021, 10024, 10028, 10031:
		return true
	default:
		return false
	}
}

// BrokerError представляет ошибку торговой операции
type BrokerError struct {
	Op       string // операция ("place_order", "partial_close", "modify_sl")
	Retcode  int    // код возврата торгового сервера, 0 если ошибка транспортная
	Message  string
	Original error
}

func (e *BrokerError) Error() string {
	if e.Retcode != 0 {
		return e.Op + ": " + e.Message + " (retcode " + strconv.Itoa(e.Retcode) + ")"
	}
	return e.Op + ": " + e.Message
}

// Unwrap возвращает оригинальную ошибку для поддержки errors.Is() и errors.As()
func (e *BrokerError) Unwrap() error {
	return e.Original
}

// asBrokerError распаковывает BrokerError из цепочки ошибок
func asBrokerError(err error, target **BrokerError) bool {
	return errors.As(err, target)
}

// Retryable сообщает можно ли повторить операцию
func (e *BrokerError) Retryable() bool {
	if e.Retcode != 0 {
		return IsRetryableRetcode(e.Retcode)
	}
	// Транспортные ошибки повторяем
	return true
}
