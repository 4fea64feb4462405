package metrics

import (
	"strings"

	"github.com/gosimple/slug"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/grantgate/internal/config"
)

const (
	OutcomeAllowed = "allowed"
	OutcomeBlocked = "blocked"
	OutcomeError   = "error"
)

// Metrics exposes gating and metering instruments.
type Metrics struct {
	decisions    *prometheus.CounterVec
	usageRecords *prometheus.CounterVec
	usageResets  *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
}

// New registers the instruments on registerer. A nil registerer uses the
// prometheus default registry.
func New(registerer prometheus.Registerer, cfg config.Config) (*Metrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "grantgate"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grantgate_gate_decisions_total",
			Help:        "Feature access decisions by monetization model and outcome.",
			ConstLabels: constLabels,
		}, []string{"model", "outcome", "reason"}),
		usageRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grantgate_usage_records_total",
			Help:        "Recorded feature consumptions.",
			ConstLabels: constLabels,
		}, []string{"feature"}),
		usageResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grantgate_usage_resets_total",
			Help:        "Usage counters reset because their window elapsed.",
			ConstLabels: constLabels,
		}, []string{"feature"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "grantgate_usage_store_errors_total",
			Help:        "Usage store failures by operation.",
			ConstLabels: constLabels,
		}, []string{"op"}),
	}

	for _, c := range []prometheus.Collector{m.decisions, m.usageRecords, m.usageResets, m.storeErrors} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveDecision counts one access decision.
func (m *Metrics) ObserveDecision(model, outcome, reason string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(strings.TrimSpace(model), outcome, strings.TrimSpace(reason)).Inc()
}

func (m *Metrics) ObserveUsageRecord(feature string) {
	if m == nil {
		return
	}
	m.usageRecords.WithLabelValues(featureLabel(feature)).Inc()
}

func (m *Metrics) ObserveUsageReset(feature string) {
	if m == nil {
		return
	}
	m.usageResets.WithLabelValues(featureLabel(feature)).Inc()
}

func (m *Metrics) ObserveStoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}

// featureLabel keeps label values stable regardless of how callers space or
// capitalize feature names.
func featureLabel(feature string) string {
	return slug.Make(feature)
}
