package aggregate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks replay progress. A nil registerer yields unregistered collectors.
type Metrics struct {
	Events           *prometheus.CounterVec
	TrackedVolumeUSD prometheus.Counter
	WindowsFlushed   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pricescope_aggregate_events_total",
			Help: "Replayed events by name and result",
		}, []string{"event", "result"}),
		TrackedVolumeUSD: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricescope_aggregate_tracked_volume_usd_total",
			Help: "Tracked swap volume in USD",
		}),
		WindowsFlushed: factory.NewCounter(prometheus.CounterOpts{
			Name: "pricescope_aggregate_windows_flushed_total",
			Help: "Pair windows handed to the sink",
		}),
	}
}
