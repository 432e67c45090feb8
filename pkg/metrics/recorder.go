package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Market data metrics
	tickCounter *prometheus.CounterVec
	tickLatency *prometheus.HistogramVec
	priceGauge  *prometheus.GaugeVec

	// Risk metrics
	riskCalcCounter    *prometheus.CounterVec
	riskCalcLatency    *prometheus.HistogramVec
	varGauge           *prometheus.GaugeVec
	cvarGauge          *prometheus.GaugeVec
	sanitizationsTotal *prometheus.CounterVec

	// Alert metrics
	alertCounter *prometheus.CounterVec

	// System metrics
	kafkaLagGauge  *prometheus.GaugeVec
	wsClientsGauge prometheus.Gauge
}

// NewRecorder creates a new metrics recorder
func NewRecorder() *Recorder {
	return &Recorder{
		// API metrics
		apiRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "defi_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "defi_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // From 1ms to ~16s
			},
			[]string{"method", "path"},
		),

		// Market data metrics
		tickCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "defi_market_ticks_total",
				Help: "The total number of processed market ticks",
			},
			[]string{"symbol"},
		),
		tickLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "defi_market_tick_latency_milliseconds",
				Help:    "Market tick processing latency in milliseconds",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 15), // From 0.1ms to ~1.6s
			},
			[]string{"symbol"},
		),
		priceGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defi_asset_price_usd",
				Help: "Latest observed asset price in USD",
			},
			[]string{"symbol"},
		),

		// Risk metrics
		riskCalcCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "defi_risk_calculations_total",
				Help: "The total number of risk calculations",
			},
			[]string{"type", "portfolio_id", "status"},
		),
		riskCalcLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "defi_risk_calc_latency_seconds",
				Help:    "Risk calculation latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // From 1ms to ~4s
			},
			[]string{"type", "portfolio_id"},
		),
		varGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defi_var_usd",
				Help: "Value at Risk (VaR) in USD",
			},
			[]string{"portfolio_id"},
		),
		cvarGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defi_cvar_usd",
				Help: "Conditional Value at Risk (CVaR) in USD",
			},
			[]string{"portfolio_id"},
		),
		sanitizationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "defi_metric_sanitizations_total",
				Help: "Non-finite metric values coerced to zero before serialization",
			},
			[]string{"field"},
		),

		// Alert metrics
		alertCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "defi_alerts_total",
				Help: "The total number of raised portfolio alerts",
			},
			[]string{"type", "severity"},
		),

		// System metrics
		kafkaLagGauge: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "defi_kafka_consumer_lag",
				Help: "Kafka consumer lag (messages)",
			},
			[]string{"topic", "group_id"},
		),
		wsClientsGauge: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "defi_ws_clients",
				Help: "Number of connected websocket clients",
			},
		),
	}
}

// RecordAPIRequest records metrics for an API request
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordTick records metrics for a processed market tick
func (r *Recorder) RecordTick(symbol string, price float64, latency time.Duration) {
	r.tickCounter.WithLabelValues(symbol).Inc()
	r.tickLatency.WithLabelValues(symbol).Observe(float64(latency.Milliseconds()))
	r.priceGauge.WithLabelValues(symbol).Set(price)
}

// RecordRiskCalculation records metrics for a risk calculation
func (r *Recorder) RecordRiskCalculation(calcType, portfolioID, status string, latency time.Duration) {
	r.riskCalcCounter.WithLabelValues(calcType, portfolioID, status).Inc()
	r.riskCalcLatency.WithLabelValues(calcType, portfolioID).Observe(latency.Seconds())
}

// RecordVaR records the current VaR value
func (r *Recorder) RecordVaR(portfolioID string, value float64) {
	r.varGauge.WithLabelValues(portfolioID).Set(value)
}

// RecordCVaR records the current CVaR value
func (r *Recorder) RecordCVaR(portfolioID string, value float64) {
	r.cvarGauge.WithLabelValues(portfolioID).Set(value)
}

// RecordSanitization records a non-finite metric value coerced to zero
func (r *Recorder) RecordSanitization(field string) {
	r.sanitizationsTotal.WithLabelValues(field).Inc()
}

// RecordAlert records a raised portfolio alert
func (r *Recorder) RecordAlert(alertType, severity string) {
	r.alertCounter.WithLabelValues(alertType, severity).Inc()
}

// RecordKafkaLag records the current consumer lag for a topic
func (r *Recorder) RecordKafkaLag(topic, groupID string, lag int64) {
	r.kafkaLagGauge.WithLabelValues(topic, groupID).Set(float64(lag))
}

// RecordWSClients records the current number of websocket clients
func (r *Recorder) RecordWSClients(count int) {
	r.wsClientsGauge.Set(float64(count))
}
