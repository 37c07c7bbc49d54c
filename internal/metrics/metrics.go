// Package metrics exposes prometheus instruments for the trading engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "engine_cycles_total", Help: "Quoting cycles executed"},
	)
	SkippedCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "engine_skipped_cycles_total", Help: "Cycles skipped on invalid or unavailable books"},
	)
	OrdersPlacedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "maker_orders_placed_total", Help: "Maker orders placed"},
		[]string{"side"},
	)
	OrdersCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "maker_orders_cancelled_total", Help: "Maker orders cancelled"},
	)
	PlacementsRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "maker_placements_rejected_total", Help: "Maker placements refused by the venue"},
	)
	FillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "maker_fills_total", Help: "Maker fill events reconciled"},
		[]string{"side"},
	)
	HedgeAttemptsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "hedge_attempts_total", Help: "Hedge market order attempts"},
	)
	HedgesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hedges_total", Help: "Hedge intents reaching a terminal state"},
		[]string{"result"},
	)
	UnhedgedAlarmsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "unhedged_exposure_alarms_total", Help: "Unhedged exposure alarms raised"},
	)
	RiskRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "risk_rejections_total", Help: "Maker placements rejected by risk gates"},
		[]string{"reason"},
	)
	NetInventory = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "net_inventory", Help: "Signed net inventory (maker filled minus hedged)"},
	)
	OpenMakerOrders = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "open_maker_orders", Help: "Maker orders currently tracked"},
	)
)

func init() {
	prometheus.MustRegister(
		CyclesTotal, SkippedCyclesTotal,
		OrdersPlacedTotal, OrdersCancelledTotal, PlacementsRejectedTotal,
		FillsTotal,
		HedgeAttemptsTotal, HedgesTotal, UnhedgedAlarmsTotal,
		RiskRejectionsTotal,
		NetInventory, OpenMakerOrders,
	)
}

// Serve exposes /metrics on the given address.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
