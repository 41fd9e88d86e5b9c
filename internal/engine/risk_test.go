package engine

import (
	"math"
	"strings"
	"testing"

	"tradeplanner/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func baseRiskInput() *models.RiskCalcInput {
	return &models.RiskCalcInput{
		AccountBalance: 10000,
		RiskPercent:    1,
		Symbol:         "EURUSD",
		Direction:      models.DirectionBuy,
		EntryPrice:     1.1000,
		StopPips:       50,
		MaxStopPips:    100,
		PartialPercent: 50,
		PipValuePerLot: 10,
		MinVolume:      0.01,
		VolumeStep:     0.01,
	}
}

func TestCalculateRiskNominal(t *testing.T) {
	// balance=10000, risk=1%, stop=50, pip_value=10 -> volume 0.20, risk 100
	out := CalculateRisk(baseRiskInput())

	if !out.Allowed {
		t.Errorf("Allowed = false, want true (warnings: %v)", out.Warnings)
	}
	if math.Abs(out.Volume-0.20) > 1e-9 {
		t.Errorf("Volume = %v, want 0.20", out.Volume)
	}
	if math.Abs(out.VolumeRaw-0.2) > 1e-9 {
		t.Errorf("VolumeRaw = %v, want 0.2", out.VolumeRaw)
	}
	if out.TargetRiskAmount != 100 {
		t.Errorf("TargetRiskAmount = %v, want 100", out.TargetRiskAmount)
	}
	if out.ActualRiskAmount != 100 {
		t.Errorf("ActualRiskAmount = %v, want 100", out.ActualRiskAmount)
	}
	if out.ActualRiskPercent != 1 {
		t.Errorf("ActualRiskPercent = %v, want 1", out.ActualRiskPercent)
	}
	if len(out.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", out.Warnings)
	}
}

func TestCalculateRiskMinVolumeForcesRiskUp(t *testing.T) {
	// balance=1000, risk=0.1%, stop=500 -> raw 0.0002, floored to min 0.01
	in := baseRiskInput()
	in.AccountBalance = 1000
	in.RiskPercent = 0.1
	in.StopPips = 500
	in.MaxStopPips = 1000

	out := CalculateRisk(in)

	if !out.Allowed {
		t.Fatalf("Allowed = false, warnings: %v", out.Warnings)
	}
	if math.Abs(out.Volume-0.01) > 1e-9 {
		t.Errorf("Volume = %v, want 0.01", out.Volume)
	}
	if out.ActualRiskAmount != 50 {
		t.Errorf("ActualRiskAmount = %v, want 50", out.ActualRiskAmount)
	}

	found := false
	for _, w := range out.Warnings {
		if strings.Contains(w, "floored to minimum") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected minimum-volume warning, got %v", out.Warnings)
	}
}

func TestCalculateRiskStopExceedsMax(t *testing.T) {
	in := baseRiskInput()
	in.StopPips = 60
	in.MaxStopPips = 50

	out := CalculateRisk(in)

	if out.Allowed {
		t.Error("Allowed = true, want false")
	}
	// Объём всё равно считается для отображения
	if out.Volume <= 0 {
		t.Errorf("Volume = %v, want positive for display", out.Volume)
	}

	found := false
	for _, w := range out.Warnings {
		if strings.Contains(w, "exceeds maximum allowed") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected max-stop warning, got %v", out.Warnings)
	}
}

func TestCalculateRiskInvalidPipValue(t *testing.T) {
	in := baseRiskInput()
	in.PipValuePerLot = 0

	out := CalculateRisk(in)

	if out.Allowed {
		t.Error("Allowed = true, want false")
	}
	if len(out.Warnings) == 0 {
		t.Error("expected a warning about pip value")
	}
}

func TestCalculateRiskRemainingVolume(t *testing.T) {
	in := baseRiskInput()
	in.TP1Pips = floatPtr(30)
	in.PartialPercent = 50

	out := CalculateRisk(in)

	// volume 0.20, половина закрывается -> остаток 0.10
	if math.Abs(out.RemainingVolume-0.10) > 1e-9 {
		t.Errorf("RemainingVolume = %v, want 0.10", out.RemainingVolume)
	}
}

func TestCalculateRiskRemainingWithoutTP1(t *testing.T) {
	out := CalculateRisk(baseRiskInput())

	// Без tp1_pips частичное закрытие не планируется
	if math.Abs(out.RemainingVolume-out.Volume) > 1e-9 {
		t.Errorf("RemainingVolume = %v, want full volume %v", out.RemainingVolume, out.Volume)
	}
}

func TestCalculateRiskBreakevenPrice(t *testing.T) {
	tests := []struct {
		name      string
		direction models.Direction
		entry     float64
		buffer    float64
		pip       float64
		want      float64
	}{
		{"buy with buffer", models.DirectionBuy, 1.1000, 2, 0.0001, 1.1002},
		{"sell with buffer", models.DirectionSell, 1.1000, 2, 0.0001, 1.0998},
		{"buy zero buffer", models.DirectionBuy, 1950.0, 0, 0.10, 1950.0},
		{"gold buy", models.DirectionBuy, 1950.0, 5, 0.10, 1950.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseRiskInput()
			in.Direction = tt.direction
			in.EntryPrice = tt.entry
			in.BEBufferPips = tt.buffer
			in.PipInPrice = tt.pip
			in.MoveToBEEnabled = true
			in.TP1Pips = floatPtr(30)

			out := CalculateRisk(in)

			if out.BESLPrice == nil {
				t.Fatal("BESLPrice = nil, want value")
			}
			if math.Abs(*out.BESLPrice-tt.want) > 1e-9 {
				t.Errorf("BESLPrice = %v, want %v", *out.BESLPrice, tt.want)
			}
		})
	}

	t.Run("disabled move to BE", func(t *testing.T) {
		in := baseRiskInput()
		in.MoveToBEEnabled = false
		in.TP1Pips = floatPtr(30)

		out := CalculateRisk(in)
		if out.BESLPrice != nil {
			t.Errorf("BESLPrice = %v, want nil", *out.BESLPrice)
		}
	})
}

// Свойство: объём всегда кратен шагу, фактический риск не ниже целевого
// только когда минимальный лот заставил округлить вверх
func TestCalculateRiskProperties(t *testing.T) {
	balances := []float64{500, 1000, 10000, 250000}
	risks := []float64{0.1, 0.5, 1, 2}
	stops := []float64{10, 35, 50, 120}

	for _, balance := range balances {
		for _, risk := range risks {
			for _, stop := range stops {
				in := baseRiskInput()
				in.AccountBalance = balance
				in.RiskPercent = risk
				in.StopPips = stop
				in.MaxStopPips = 1000

				out := CalculateRisk(in)

				steps := out.Volume / in.VolumeStep
				if math.Abs(steps-math.Round(steps)) > 1e-6 {
					t.Errorf("balance=%v risk=%v stop=%v: volume %v not multiple of step",
						balance, risk, stop, out.Volume)
				}

				if out.Volume < in.MinVolume-1e-9 {
					t.Errorf("volume %v below broker minimum", out.Volume)
				}
			}
		}
	}
}
