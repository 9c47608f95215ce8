package telemetry

import (
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts record store operations. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	registry   *prometheus.Registry
}

// NewMetrics creates operation metrics registered on a fresh registry under
// the given namespace.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of record store operations by outcome",
			},
			[]string{"operation", "table", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of record store operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	m.registry.MustRegister(m.operations, m.duration)
	return m
}

// Observe records one operation with its outcome label and start time.
func (m *Metrics) Observe(operation, table, status string, start time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, table, status).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Counts gathers the operation counter into a map keyed by
// "operation table status". A nil *Metrics yields an empty map.
func (m *Metrics) Counts() (map[string]float64, error) {
	counts := make(map[string]float64)
	if m == nil {
		return counts, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	for _, family := range families {
		if !strings.HasSuffix(family.GetName(), "_operations_total") {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := make(map[string]string, len(metric.GetLabel()))
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			key := labels["operation"] + " " + labels["table"] + " " + labels["status"]
			counts[key] = metric.GetCounter().GetValue()
		}
	}
	return counts, nil
}
