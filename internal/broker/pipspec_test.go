package broker

import (
	"testing"

	"tradeplanner/internal/models"
)

func TestPipInPrice(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		digits   int
		expected float64
	}{
		// Металлы и крипта определяются по имени, digits игнорируется
		{"gold XAUUSD", "XAUUSD", 2, 0.10},
		{"gold with suffix", "XAUUSD.m", 2, 0.10},
		{"gold alias", "GOLD", 2, 0.10},
		{"bitcoin", "BTCUSD", 2, 1.0},
		{"bitcoin XBT", "XBTUSD", 2, 1.0},
		{"lowercase symbol", "btcusd", 2, 1.0},

		// FX по числу знаков
		{"major 5 digits", "EURUSD", 5, 0.0001},
		{"jpy 3 digits", "USDJPY", 3, 0.01},
		{"index 2 digits", "US500", 2, 0.01},
		{"legacy 4 digits", "EURUSD", 4, 0.0001},
		{"unknown digits", "EURUSD", 7, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PipInPrice(tt.symbol, tt.digits)
			if result != tt.expected {
				t.Errorf("PipInPrice(%q, %d) = %v, want %v",
					tt.symbol, tt.digits, result, tt.expected)
			}
		})
	}
}

func TestPipInPriceForSpec(t *testing.T) {
	t.Run("bridge-provided pip wins", func(t *testing.T) {
		spec := &models.SymbolSpec{Symbol: "EURUSD", Digits: 5, PipInPrice: 0.001}
		if got := PipInPriceForSpec(spec); got != 0.001 {
			t.Errorf("PipInPriceForSpec() = %v, want 0.001", got)
		}
	})

	t.Run("fallback to heuristic", func(t *testing.T) {
		spec := &models.SymbolSpec{Symbol: "USDJPY", Digits: 3}
		if got := PipInPriceForSpec(spec); got != 0.01 {
			t.Errorf("PipInPriceForSpec() = %v, want 0.01", got)
		}
	})
}

func TestRetcodeMessage(t *testing.T) {
	if msg := RetcodeMessage(10019); msg != "There is not enough money to complete the request" {
		t.Errorf("RetcodeMessage(10019) = %q", msg)
	}
	if msg := RetcodeMessage(99999); msg != "Unknown retcode 99999" {
		t.Errorf("RetcodeMessage(99999) = %q", msg)
	}
}

func TestIsRetryableRetcode(t *testing.T) {
	retryable := []int{10004, 10020, 10021, 10024, 10028, 10031}
	for _, code := range retryable {
		if !IsRetryableRetcode(code) {
			t.Errorf("IsRetryableRetcode(%d) = false, want true", code)
		}
	}

	permanent := []int{10006, 10014, 10016, 10019, 10026, 10018}
	for _, code := range permanent {
		if IsRetryableRetcode(code) {
			t.Errorf("IsRetryableRetcode(%d) = true, want false", code)
		}
	}
}
