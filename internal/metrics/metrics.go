// Package metrics exposes Prometheus metrics and a health endpoint for the
// signal engine.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the signal engine.
type Metrics struct {
	TicksTotal         prometheus.Counter
	SignalsTotal       *prometheus.CounterVec // labels: strategy, type
	CrossoversTotal    *prometheus.CounterVec // labels: strategy, type
	CrossoversFiltered *prometheus.CounterVec // labels: strategy
	TradesTotal        *prometheus.CounterVec // labels: side, simulated
	ExecutionFailures  *prometheus.CounterVec // labels: strategy
	SignalRingEvicted  prometheus.Counter
	FeedReconnects     prometheus.Counter
	DroppedTicks       prometheus.Counter
	TickProcessDur     prometheus.Histogram
}

// New registers and returns all metrics.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_ticks_total",
			Help: "Total price ticks dispatched to strategies",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_signals_total",
			Help: "Trade signals emitted (by strategy and direction)",
		}, []string{"strategy", "type"}),
		CrossoversTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_crossovers_total",
			Help: "Accepted crossover events (by strategy and direction)",
		}, []string{"strategy", "type"}),
		CrossoversFiltered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_crossovers_filtered_total",
			Help: "Crossovers rejected by the movement filter",
		}, []string{"strategy"}),
		TradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_trades_total",
			Help: "Trades recorded in the ledger",
		}, []string{"side", "simulated"}),
		ExecutionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sigengine_execution_failures_total",
			Help: "Order executions that failed (insufficient funds, transport, timeout)",
		}, []string{"strategy"}),
		SignalRingEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_signal_ring_evicted_total",
			Help: "Signals overwritten in the in-memory ring",
		}),
		FeedReconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_feed_reconnects_total",
			Help: "Price feed reconnection attempts",
		}),
		DroppedTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sigengine_dropped_ticks_total",
			Help: "Ticks dropped because the dispatch channel was full",
		}),
		TickProcessDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sigengine_tick_process_duration_seconds",
			Help:    "Strategy dispatch latency per tick",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.01},
		}),
	}

	prometheus.MustRegister(
		m.TicksTotal,
		m.SignalsTotal,
		m.CrossoversTotal,
		m.CrossoversFiltered,
		m.TradesTotal,
		m.ExecutionFailures,
		m.SignalRingEvicted,
		m.FeedReconnects,
		m.DroppedTicks,
		m.TickProcessDur,
	)

	return m
}

// HealthStatus tracks liveness of the engine's collaborators.
type HealthStatus struct {
	mu sync.RWMutex

	FeedConnected  bool      `json:"feed_connected"`
	LastTickTime   time.Time `json:"last_tick_time"`
	RedisConnected bool      `json:"redis_connected"`
	JournalOK      bool      `json:"journal_ok"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

func (h *HealthStatus) SetFeedConnected(v bool) {
	h.mu.Lock()
	h.FeedConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetLastTickTime(t time.Time) {
	h.mu.Lock()
	h.LastTickTime = t
	h.mu.Unlock()
}

func (h *HealthStatus) SetRedisConnected(v bool) {
	h.mu.Lock()
	h.RedisConnected = v
	h.mu.Unlock()
}

func (h *HealthStatus) SetJournalOK(v bool) {
	h.mu.Lock()
	h.JournalOK = v
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	code := http.StatusOK
	if !h.FeedConnected {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	tickAge := ""
	if !h.LastTickTime.IsZero() {
		tickAge = time.Since(h.LastTickTime).Round(time.Millisecond).String()
	}

	payload := struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		FeedConnected  bool   `json:"feed_connected"`
		TickAge        string `json:"tick_age"`
		RedisConnected bool   `json:"redis_connected"`
		JournalOK      bool   `json:"journal_ok"`
	}{
		Status:         status,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		FeedConnected:  h.FeedConnected,
		TickAge:        tickAge,
		RedisConnected: h.RedisConnected,
		JournalOK:      h.JournalOK,
	}

	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	json.NewEncoder(w).Encode(payload)
}

// Serve runs an HTTP server exposing /metrics and /healthz on addr.
// Blocks; intended to run in its own goroutine.
func Serve(addr string, health *HealthStatus) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", health)
	return http.ListenAndServe(addr, mux)
}
