package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus instruments for the extraction pipeline.
type Metrics struct {
	messages         *prometheus.CounterVec
	rateLimitDenied  *prometheus.CounterVec
	patternRejected  *prometheus.CounterVec
	patternTests     *prometheus.CounterVec
	storageFailures  prometheus.Counter
	extractedAmounts prometheus.Histogram
}

// New registers pipeline metrics on reg. A nil registerer uses the default registry.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysignal_messages_total",
			Help: "Inbound messages by pipeline status.",
		}, []string{"status"}),
		rateLimitDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysignal_rate_limit_denied_total",
			Help: "Rate limit denials by action.",
		}, []string{"action"}),
		patternRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysignal_pattern_rejected_total",
			Help: "Patterns that failed validation before execution, by kind.",
		}, []string{"kind"}),
		patternTests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "paysignal_pattern_tests_total",
			Help: "Interactive pattern tests by result.",
		}, []string{"result"}),
		storageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "paysignal_storage_failures_total",
			Help: "Transactions that could not be handed to storage.",
		}),
		extractedAmounts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "paysignal_extracted_amount",
			Help:    "Distribution of stored transaction amounts.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000, 10000},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.messages, m.rateLimitDenied, m.patternRejected, m.patternTests, m.storageFailures, m.extractedAmounts,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ProvideDefault registers metrics on the default registry for fx.
func ProvideDefault() (*Metrics, error) {
	return New(prometheus.DefaultRegisterer)
}

func (m *Metrics) RecordMessage(status string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordRateLimitDenied(action string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordPatternRejected(kind string) {
	if m == nil {
		return
	}
	m.patternRejected.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordPatternTest(success bool) {
	if m == nil {
		return
	}
	result := "failed"
	if success {
		result = "matched"
	}
	m.patternTests.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordStorageFailure() {
	if m == nil {
		return
	}
	m.storageFailures.Inc()
}

func (m *Metrics) ObserveAmount(amount float64) {
	if m == nil {
		return
	}
	m.extractedAmounts.Observe(amount)
}
