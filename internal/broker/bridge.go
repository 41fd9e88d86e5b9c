package broker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"tradeplanner/internal/models"
	"tradeplanner/pkg/ratelimit"
	"tradeplanner/pkg/retry"
)

var bridgeJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// BridgeConfig содержит настройки клиента моста терминала
type BridgeConfig struct {
	BaseURL      string        // адрес моста (http://127.0.0.1:6542)
	CallTimeout  time.Duration // таймаут одного запроса
	MaxRetries   int           // попытки для торговых операций
	RetryBackoff time.Duration // начальная задержка повтора
	RateLimit    float64       // запросов в секунду к мосту
	Magic        int64         // magic для ордеров планировщика
	OrderComment string        // комментарий ордеров планировщика
}

// BridgeClient - HTTP клиент моста MT5, реализует Gateway
//
// Мост это тонкий слушатель рядом с терминалом, транслирующий запросы
// в вызовы торгового API. Клиент держит пул соединений, дросселирует
// частоту запросов и повторяет временные сбои.
type BridgeClient struct {
	cfg     BridgeConfig
	client  *http.Client
	limiter *ratelimit.RateLimiter
	logger  *zap.Logger
}

// NewBridgeClient создаёт клиента моста
//
// Параметры пула подобраны под локальный мост: хост один,
// соединений нужно немного, но keep-alive обязателен.
func NewBridgeClient(cfg BridgeConfig, logger *zap.Logger) *BridgeClient {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 20
	}

	dialer := &net.Dialer{
		Timeout:   2 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       10,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: cfg.CallTimeout,
	}

	return &BridgeClient{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.CallTimeout,
		},
		limiter: ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateLimit*2),
		logger:  logger.Named("bridge"),
	}
}

// bridgeResponse - конверт ответа моста
type bridgeResponse struct {
	Success bool                `json:"success"`
	Retcode int                 `json:"retcode,omitempty"`
	Message string              `json:"message,omitempty"`
	Data    jsoniter.RawMessage `json:"data,omitempty"`
}

// doRequest выполняет один HTTP запрос к мосту без повторов
func (c *BridgeClient) doRequest(ctx context.Context, method, endpoint string, payload interface{}) (*bridgeResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := bridgeJSON.Marshal(payload)
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("marshal bridge request: %w", err))
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, body)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, retry.Temporary(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Temporary(err)
	}

	if resp.StatusCode >= 500 {
		return nil, retry.Temporary(fmt.Errorf("bridge returned %d: %s", resp.StatusCode, raw))
	}
	if resp.StatusCode >= 400 {
		return nil, retry.Permanent(fmt.Errorf("bridge returned %d: %s", resp.StatusCode, raw))
	}

	var br bridgeResponse
	if err := bridgeJSON.Unmarshal(raw, &br); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode bridge response: %w", err))
	}

	return &br, nil
}

// call выполняет запрос-чтение с ретраями и декодирует data в out
func (c *BridgeClient) call(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	cfg := retry.DefaultConfig()
	cfg.MaxRetries = c.cfg.MaxRetries
	cfg.InitialDelay = c.cfg.RetryBackoff
	cfg.RetryIf = retry.IsRetryable
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("bridge call retry",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	br, err := retry.DoWithResult(ctx, func() (*bridgeResponse, error) {
		resp, err := c.doRequest(ctx, method, endpoint, payload)
		if err != nil {
			return nil, err
		}
		if !resp.Success {
			berr := &BrokerError{
				Op:      method + " " + endpoint,
				Retcode: resp.Retcode,
				Message: resp.Message,
			}
			if !berr.Retryable() {
				return nil, retry.Permanent(berr)
			}
			return nil, berr
		}
		return resp, nil
	}, cfg)
	if err != nil {
		return err
	}

	if out != nil && len(br.Data) > 0 {
		if err := bridgeJSON.Unmarshal(br.Data, out); err != nil {
			return fmt.Errorf("decode bridge data: %w", err)
		}
	}
	return nil
}

// Status возвращает состояние подключения и счёта
func (c *BridgeClient) Status(ctx context.Context) (*models.BrokerStatus, error) {
	var status models.BrokerStatus
	if err := c.call(ctx, http.MethodGet, "/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// OpenPositions возвращает открытые позиции терминала
func (c *BridgeClient) OpenPositions(ctx context.Context) ([]*models.Position, error) {
	endpoint := "/positions"
	if c.cfg.Magic != 0 {
		// Мост отдаёт только позиции планировщика
		endpoint = fmt.Sprintf("/positions?magic=%d", c.cfg.Magic)
	}

	var positions []*models.Position
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// PositionByTicket возвращает позицию по тикету
func (c *BridgeClient) PositionByTicket(ctx context.Context, ticket int64) (*models.Position, error) {
	var position models.Position
	err := c.call(ctx, http.MethodGet, "/positions/"+strconv.FormatInt(ticket, 10), nil, &position)
	if err != nil {
		var berr *BrokerError
		if asBrokerError(err, &berr) && berr.Message == "position not found" {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return &position, nil
}

// SymbolSpec возвращает торговые характеристики символа
func (c *BridgeClient) SymbolSpec(ctx context.Context, symbol string) (*models.SymbolSpec, error) {
	var spec models.SymbolSpec
	err := c.call(ctx, http.MethodGet, "/symbols/"+symbol, nil, &spec)
	if err != nil {
		var berr *BrokerError
		if asBrokerError(err, &berr) && berr.Message == "symbol not found" {
			return nil, ErrSymbolNotFound
		}
		return nil, err
	}
	return &spec, nil
}

// Tick возвращает последнюю котировку символа
func (c *BridgeClient) Tick(ctx context.Context, symbol string) (*models.Tick, error) {
	var tick models.Tick
	if err := c.call(ctx, http.MethodGet, "/ticks/"+symbol, nil, &tick); err != nil {
		return nil, err
	}
	return &tick, nil
}

// bridgeOrderRequest - тело торгового запроса к мосту
type bridgeOrderRequest struct {
	Symbol    string  `json:"symbol,omitempty"`
	Direction string  `json:"direction,omitempty"`
	Volume    float64 `json:"volume,omitempty"`
	Price     float64 `json:"price,omitempty"`
	SLPrice   float64 `json:"sl_price,omitempty"`
	TPPrice   float64 `json:"tp_price,omitempty"`
	Ticket    int64   `json:"ticket,omitempty"`
	Magic     int64   `json:"magic,omitempty"`
	Comment   string  `json:"comment,omitempty"`
}

// PlaceOrder выставляет рыночный ордер
//
// Торговые операции возвращают результат даже при отказе сервера:
// retcode и его расшифровка нужны вызывающему для структурного ответа.
func (c *BridgeClient) PlaceOrder(ctx context.Context, req *models.OrderRequest) (*models.OrderResult, error) {
	body := bridgeOrderRequest{
		Symbol:    req.Symbol,
		Direction: string(req.Direction),
		Volume:    req.Volume,
		Magic:     c.cfg.Magic,
		Comment:   req.Comment,
	}
	if body.Comment == "" {
		body.Comment = c.cfg.OrderComment
	}
	if req.Price != nil {
		body.Price = *req.Price
	}
	if req.SLPrice != nil {
		body.SLPrice = *req.SLPrice
	}
	if req.TPPrice != nil {
		body.TPPrice = *req.TPPrice
	}

	return c.trade(ctx, "place_order", "/order", body)
}

// PartialClose закрывает часть позиции встречным рыночным ордером
func (c *BridgeClient) PartialClose(ctx context.Context, ticket int64, volume float64) (*models.OrderResult, error) {
	return c.trade(ctx, "partial_close", "/close", bridgeOrderRequest{
		Ticket:  ticket,
		Volume:  volume,
		Magic:   c.cfg.Magic,
		Comment: c.cfg.OrderComment,
	})
}

// ModifySL переносит стоп-лосс позиции
func (c *BridgeClient) ModifySL(ctx context.Context, ticket int64, slPrice float64) (*models.OrderResult, error) {
	return c.trade(ctx, "modify_sl", "/modify", bridgeOrderRequest{
		Ticket:  ticket,
		SLPrice: slPrice,
	})
}

// CalcProfit оценивает прибыль сделки в валюте счёта через терминал
//
// Ошибка расчёта не критична для вызывающих: возвращается nil
// и событие публикуется без денежной оценки.
func (c *BridgeClient) CalcProfit(ctx context.Context, symbol string, direction models.Direction, volume, openPrice, closePrice float64) (*float64, error) {
	var data struct {
		Profit *float64 `json:"profit"`
	}
	err := c.call(ctx, http.MethodPost, "/calc-profit", map[string]interface{}{
		"symbol":      symbol,
		"direction":   string(direction),
		"volume":      volume,
		"open_price":  openPrice,
		"close_price": closePrice,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Profit, nil
}

// trade выполняет торговый запрос с агрессивными ретраями временных кодов
func (c *BridgeClient) trade(ctx context.Context, op, endpoint string, body bridgeOrderRequest) (*models.OrderResult, error) {
	cfg := retry.AggressiveConfig()
	if c.cfg.MaxRetries > 0 {
		cfg.MaxRetries = c.cfg.MaxRetries
	}
	if c.cfg.RetryBackoff > 0 {
		cfg.InitialDelay = c.cfg.RetryBackoff
	}
	cfg.RetryIf = retry.IsRetryable
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("trade request retry",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	result, err := retry.DoWithResult(ctx, func() (*models.OrderResult, error) {
		resp, err := c.doRequest(ctx, http.MethodPost, endpoint, body)
		if err != nil {
			return nil, err
		}

		result := &models.OrderResult{
			Success: resp.Success,
			Retcode: resp.Retcode,
			Message: resp.Message,
		}
		if len(resp.Data) > 0 {
			if err := bridgeJSON.Unmarshal(resp.Data, result); err != nil {
				return nil, retry.Permanent(fmt.Errorf("decode trade result: %w", err))
			}
			result.Success = resp.Success
		}

		if !resp.Success {
			if result.Message == "" {
				result.Message = RetcodeMessage(resp.Retcode)
			}
			berr := &BrokerError{Op: op, Retcode: resp.Retcode, Message: result.Message}
			if !berr.Retryable() {
				// Отказ окончательный, отдаём структурный результат без ошибки
				return result, nil
			}
			return nil, berr
		}

		return result, nil
	}, cfg)
	if err != nil {
		// После исчерпания попыток тоже отдаём структурный результат
		var berr *BrokerError
		if asBrokerError(err, &berr) {
			return &models.OrderResult{
				Success: false,
				Retcode: berr.Retcode,
				Message: berr.Message,
			}, nil
		}
		return nil, &BrokerError{Op: op, Message: err.Error(), Original: err}
	}

	return result, nil
}

// Close закрывает idle соединения с мостом
func (c *BridgeClient) Close() error {
	if transport, ok := c.client.Transport.(*http.Transport); ok {
		transport.CloseIdleConnections()
	}
	return nil
}
