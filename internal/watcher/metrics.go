package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики наблюдателя первого тейка
// ============================================================

// TickDuration - длительность одного прохода цикла
var TickDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "tick_duration_ms",
		Help:      "Duration of one watcher tick in milliseconds",
		Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	},
)

// TicksTotal - количество проходов цикла по исходу
var TicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "ticks_total",
		Help:      "Total number of watcher ticks",
	},
	[]string{"result"}, // ok, error
)

// TP1Triggered - срабатывания первого тейка
var TP1Triggered = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "tp1_triggered_total",
		Help:      "Total number of TP1 triggers",
	},
	[]string{"symbol", "result"}, // result: closed, blocked, failed
)

// SLDetected - обнаруженные закрытия по стопу
var SLDetected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "sl_detected_total",
		Help:      "Total number of stop loss closures detected",
	},
	[]string{"symbol"},
)

// WatchedPositions - текущее количество отслеживаемых позиций
var WatchedPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "watched_positions",
		Help:      "Current number of watched positions",
	},
)

// WatcherRunning - состояние цикла (1 работает, 0 остановлен)
var WatcherRunning = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "running",
		Help:      "Watcher loop state (1=running, 0=stopped)",
	},
)

// LeaseRenewalsFailed - неудачные продления лизинга
var LeaseRenewalsFailed = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tradeplanner",
		Subsystem: "watcher",
		Name:      "lease_renewals_failed_total",
		Help:      "Total number of failed lease renewals",
	},
)
