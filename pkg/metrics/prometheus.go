// Package metrics provides Prometheus metrics for the SpaceLink settlement service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the settlement service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Pass lifecycle metrics
	passesBooked      prometheus.Counter
	passesTransferred prometheus.Counter
	passesCompleted   prometheus.Counter
	passesVerified    prometheus.Counter
	passesCancelled   prometheus.Counter
	passesDisputed    prometheus.Counter
	passesSettled     prometheus.Counter
	settlementLatency prometheus.Histogram

	// Payment metrics
	paymentsRouted     *prometheus.CounterVec
	conversions        prometheus.Counter
	conversionFailures prometheus.Counter

	// Oracle metrics
	quotesAccepted prometheus.Counter
	quotesRejected prometheus.Counter
	quotePrice     *prometheus.GaugeVec

	// Credit metrics
	loansOriginated prometheus.Counter
	loansRepaid     prometheus.Counter
	loansDefaulted  prometheus.Counter
	loansOutstanding prometheus.Gauge

	// Reward metrics
	rewardsClaimed prometheus.Counter
	rewardPool     prometheus.Gauge

	// Registry metrics
	activeStations   prometheus.Gauge
	activeSatellites prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Event feed metrics
	eventSubscribers prometheus.Gauge
	eventsDropped    prometheus.Gauge

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "spacelink",
		subsystem:        "settlement",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	// Pass lifecycle metrics
	m.passesBooked = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_booked_total",
		Help:      "Total number of passes booked",
	})

	m.passesTransferred = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_transferred_total",
		Help:      "Total number of pass ownership transfers",
	})

	m.passesCompleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_completed_total",
		Help:      "Total number of passes reported complete by stations",
	})

	m.passesVerified = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_verified_total",
		Help:      "Total number of passes confirmed by verification",
	})

	m.passesCancelled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_cancelled_total",
		Help:      "Total number of passes cancelled with refund",
	})

	m.passesDisputed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_disputed_total",
		Help:      "Total number of passes rejected by verification",
	})

	m.passesSettled = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "passes_settled_total",
		Help:      "Total number of passes fully settled after reward claim",
	})

	m.settlementLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "settlement_latency_milliseconds",
		Help:      "Histogram of settlement operation latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Payment metrics
	m.paymentsRouted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "payments_routed_total",
			Help:      "Total number of payments routed by currency",
		},
		[]string{"currency"},
	)

	m.conversions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conversions_total",
		Help:      "Total number of cross-currency conversions executed",
	})

	m.conversionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "conversion_failures_total",
		Help:      "Total number of conversions rejected or refunded",
	})

	// Oracle metrics
	m.quotesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_quotes_accepted_total",
		Help:      "Total number of price quotes accepted by the oracle",
	})

	m.quotesRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_quotes_rejected_total",
		Help:      "Total number of price quotes rejected by the oracle",
	})

	m.quotePrice = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "oracle_quote_price",
			Help:      "Latest accepted quote price per asset in base units",
		},
		[]string{"asset"},
	)

	// Credit metrics
	m.loansOriginated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loans_originated_total",
		Help:      "Total number of loans originated",
	})

	m.loansRepaid = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loans_repaid_total",
		Help:      "Total number of loans fully repaid",
	})

	m.loansDefaulted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loans_defaulted_total",
		Help:      "Total number of loans marked defaulted",
	})

	m.loansOutstanding = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "loans_outstanding",
		Help:      "Number of loans currently active",
	})

	// Reward metrics
	m.rewardsClaimed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rewards_claimed_total",
		Help:      "Total number of reward claims paid out",
	})

	m.rewardPool = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reward_pool_units",
		Help:      "Current reward pool balance in base units",
	})

	// Registry metrics
	m.activeStations = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_stations",
		Help:      "Number of active ground stations",
	})

	m.activeSatellites = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "active_satellites",
		Help:      "Number of active satellites",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Event feed metrics
	m.eventSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "event_subscribers",
		Help:      "Current number of event feed subscribers",
	})

	m.eventsDropped = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_dropped_total",
		Help:      "Total number of events dropped due to slow subscribers",
	})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// Pass lifecycle functions.

// RecordPassBooked increments the booked passes counter.
func RecordPassBooked() {
	globalManager.passesBooked.Inc()
}

// RecordPassTransferred increments the transferred passes counter.
func RecordPassTransferred() {
	globalManager.passesTransferred.Inc()
}

// RecordPassCompleted increments the completed passes counter.
func RecordPassCompleted() {
	globalManager.passesCompleted.Inc()
}

// RecordPassVerified increments the verified passes counter.
func RecordPassVerified() {
	globalManager.passesVerified.Inc()
}

// RecordPassCancelled increments the cancelled passes counter.
func RecordPassCancelled() {
	globalManager.passesCancelled.Inc()
}

// RecordPassDisputed increments the disputed passes counter.
func RecordPassDisputed() {
	globalManager.passesDisputed.Inc()
}

// RecordPassSettled increments the settled passes counter.
func RecordPassSettled() {
	globalManager.passesSettled.Inc()
}

// RecordSettlementLatency records settlement operation latency in milliseconds.
func RecordSettlementLatency(latencyMs float64) {
	globalManager.settlementLatency.Observe(latencyMs)
}

// Payment functions.

// RecordPaymentRouted increments the routed payments counter for a currency.
func RecordPaymentRouted(currency string) {
	globalManager.paymentsRouted.WithLabelValues(currency).Inc()
}

// RecordConversion increments the conversions counter.
func RecordConversion() {
	globalManager.conversions.Inc()
}

// RecordConversionFailure increments the conversion failures counter.
func RecordConversionFailure() {
	globalManager.conversionFailures.Inc()
}

// Oracle functions.

// RecordQuoteAccepted increments the accepted quotes counter.
func RecordQuoteAccepted() {
	globalManager.quotesAccepted.Inc()
}

// RecordQuoteRejected increments the rejected quotes counter.
func RecordQuoteRejected() {
	globalManager.quotesRejected.Inc()
}

// UpdateQuotePrice sets the latest quote price for an asset.
func UpdateQuotePrice(asset string, price int64) {
	globalManager.quotePrice.WithLabelValues(asset).Set(float64(price))
}

// Credit functions.

// RecordLoanOriginated increments the originated loans counter.
func RecordLoanOriginated() {
	globalManager.loansOriginated.Inc()
}

// RecordLoanRepaid increments the repaid loans counter.
func RecordLoanRepaid() {
	globalManager.loansRepaid.Inc()
}

// RecordLoanDefaulted increments the defaulted loans counter.
func RecordLoanDefaulted() {
	globalManager.loansDefaulted.Inc()
}

// UpdateLoansOutstanding sets the number of currently active loans.
func UpdateLoansOutstanding(count int) {
	globalManager.loansOutstanding.Set(float64(count))
}

// Reward functions.

// RecordRewardClaimed increments the reward claims counter.
func RecordRewardClaimed() {
	globalManager.rewardsClaimed.Inc()
}

// UpdateRewardPool sets the reward pool balance gauge.
func UpdateRewardPool(units int64) {
	globalManager.rewardPool.Set(float64(units))
}

// Registry functions.

// UpdateActiveStations sets the active stations gauge.
func UpdateActiveStations(count int) {
	globalManager.activeStations.Set(float64(count))
}

// UpdateActiveSatellites sets the active satellites gauge.
func UpdateActiveSatellites(count int) {
	globalManager.activeSatellites.Set(float64(count))
}

// HTTP functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Event feed functions.

// UpdateEventSubscribers sets the event subscribers gauge.
func UpdateEventSubscribers(count int) {
	globalManager.eventSubscribers.Set(float64(count))
}

// UpdateEventsDropped sets the dropped events gauge.
func UpdateEventsDropped(count uint64) {
	globalManager.eventsDropped.Set(float64(count))
}

// System functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
