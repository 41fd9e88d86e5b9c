package broker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"tradeplanner/internal/models"
)

func newTestBridge(t *testing.T, handler http.Handler) (*BridgeClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewBridgeClient(BridgeConfig{
		BaseURL:      server.URL,
		CallTimeout:  2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		RateLimit:    1000,
		Magic:        123456,
		OrderComment: "POI-Tracker",
	}, zap.NewNop())
	t.Cleanup(func() { client.Close() })

	return client, server
}

func TestBridgeClientStatus(t *testing.T) {
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"connected":       true,
				"trade_allowed":   true,
				"account_login":   12345678,
				"account_balance": 10000.0,
				"currency":        "USD",
			},
		})
	}))

	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Connected || !status.TradeAllowed {
		t.Errorf("Status() = %+v, want connected and trade_allowed", status)
	}
	if status.AccountBalance != 10000.0 {
		t.Errorf("AccountBalance = %v, want 10000", status.AccountBalance)
	}
}

func TestBridgeClientOpenPositions(t *testing.T) {
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("magic"); got != "123456" {
			t.Errorf("magic query = %q, want 123456", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"ticket": 1001, "symbol": "EURUSD", "direction": "buy", "volume": 0.12, "price_open": 1.1000},
				{"ticket": 1002, "symbol": "XAUUSD", "direction": "sell", "volume": 0.05, "price_open": 1950.0},
			},
		})
	}))

	positions, err := client.OpenPositions(context.Background())
	if err != nil {
		t.Fatalf("OpenPositions() error = %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}
	if positions[0].Ticket != 1001 || positions[0].Direction != models.DirectionBuy {
		t.Errorf("unexpected first position: %+v", positions[0])
	}
}

func TestBridgeClientPositionNotFound(t *testing.T) {
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "position not found",
		})
	}))

	_, err := client.PositionByTicket(context.Background(), 9999)
	if !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("error = %v, want ErrPositionNotFound", err)
	}
}

func TestBridgeClientRetriesTransientErrors(t *testing.T) {
	var calls int32
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"symbol": "EURUSD", "bid": 1.1000, "ask": 1.1002},
		})
	}))

	tick, err := client.Tick(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if tick.Bid != 1.1000 {
		t.Errorf("Bid = %v, want 1.1", tick.Bid)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("bridge called %d times, want 3", got)
	}
}

func TestBridgeClientTradeRetcodeRequote(t *testing.T) {
	// Реквот временный: клиент повторяет и вторая попытка проходит
	var calls int32
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"retcode": 10004,
				"message": "Requote",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"retcode": 10009,
			"data":    map[string]interface{}{"ticket": 1001, "price": 1.1001, "volume": 0.06},
		})
	}))

	result, err := client.PartialClose(context.Background(), 1001, 0.06)
	if err != nil {
		t.Fatalf("PartialClose() error = %v", err)
	}
	if !result.Success {
		t.Errorf("result = %+v, want success", result)
	}
	if result.Volume != 0.06 {
		t.Errorf("Volume = %v, want 0.06", result.Volume)
	}
}

func TestBridgeClientTradePermanentRetcode(t *testing.T) {
	// Отказ по деньгам окончательный: без повторов, структурный результат
	var calls int32
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"retcode": 10019,
		})
	}))

	result, err := client.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "EURUSD",
		Direction: models.DirectionBuy,
		Volume:    0.12,
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if result.Success {
		t.Error("result.Success = true, want false")
	}
	if result.Retcode != 10019 {
		t.Errorf("Retcode = %d, want 10019", result.Retcode)
	}
	if result.Message != "There is not enough money to complete the request" {
		t.Errorf("Message = %q", result.Message)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("bridge called %d times, want 1", got)
	}
}

func TestBridgeClientOrderCarriesMagicAndComment(t *testing.T) {
	client, _ := newTestBridge(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Magic   int64  `json:"magic"`
			Comment string `json:"comment"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Magic != 123456 {
			t.Errorf("magic = %d, want 123456", body.Magic)
		}
		if body.Comment != "POI-Tracker" {
			t.Errorf("comment = %q, want POI-Tracker", body.Comment)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"retcode": 10009,
			"data":    map[string]interface{}{"ticket": 2001},
		})
	}))

	result, err := client.PlaceOrder(context.Background(), &models.OrderRequest{
		Symbol:    "EURUSD",
		Direction: models.DirectionBuy,
		Volume:    0.12,
	})
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if result.Ticket != 2001 {
		t.Errorf("Ticket = %d, want 2001", result.Ticket)
	}
}
