// Package metrics provides Prometheus instrumentation for the simulation engine.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal counts completed simulation ticks.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bharatvest_sim_ticks_total",
		Help: "Total number of simulation ticks",
	})

	// TradesTotal counts simulated trades, partitioned by direction.
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_trades_total",
		Help: "Total number of simulated trades applied",
	}, []string{"type"})

	// TradeRejections counts rejected trade intents by reason.
	TradeRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_trade_rejections_total",
		Help: "Trade intents rejected by the trade simulator",
	}, []string{"reason"})

	// TradeVolume tracks cumulative simulated volume in shares per symbol.
	TradeVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_trade_volume_total",
		Help: "Cumulative simulated trade volume in shares",
	}, []string{"symbol", "type"})

	// PortfolioValue is the current mark-to-market value of the holding set.
	PortfolioValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bharatvest_portfolio_value_inr",
		Help: "Current value of the simulated portfolio in INR",
	})

	// MarketOpen is 1 while the Indian market is in trading hours.
	MarketOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bharatvest_market_open",
		Help: "1 if NSE/BSE is within trading hours, else 0",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bharatvest_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// AdvisorRequests counts advisor requests by kind and outcome.
	AdvisorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_advisor_requests_total",
		Help: "Advisor requests by kind and outcome (ok, cached, error)",
	}, []string{"kind", "outcome"})

	// AdvisorLatency tracks model round-trip time by kind.
	AdvisorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bharatvest_advisor_latency_seconds",
		Help:    "Generative model latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"kind"})

	// EventsPublished counts Kafka messages written, by topic and result.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_events_published_total",
		Help: "Kafka messages published by topic and result",
	}, []string{"topic", "result"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bharatvest_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bharatvest_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// SetMarketOpen records the market-hours gauge.
func SetMarketOpen(open bool) {
	if open {
		MarketOpen.Set(1)
		return
	}
	MarketOpen.Set(0)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the route pattern for path label to avoid high cardinality.
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				path = p
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack lets websocket upgrades pass through the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
