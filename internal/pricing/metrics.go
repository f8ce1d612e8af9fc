package pricing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts pricing anomalies. A nil registerer yields unregistered collectors.
type Metrics struct {
	InvariantViolations prometheus.Counter
	LookupErrors        prometheus.Counter
	MissingRecords      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InvariantViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricescope_pricing_invariant_violations_total",
			Help: "Looked-up pairs that do not contain the priced token",
		}),
		LookupErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricescope_pricing_lookup_errors_total",
			Help: "Pair lookups that failed and were skipped",
		}),
		MissingRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_pricing_missing_records_total",
			Help: "Store reads that found no record, by kind",
		}, []string{"kind"}),
	}
}
