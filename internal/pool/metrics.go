package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports pool activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	constructed *prometheus.CounterVec
	reused      *prometheus.CounterVec
	released    *prometheus.CounterVec
	pooled      *prometheus.GaugeVec
}

// NewMetrics creates the pool collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	labels := []string{"lane", "key"}
	m := &Metrics{
		constructed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrainstream",
			Subsystem: "pool",
			Name:      "constructed_total",
			Help:      "Segment instances constructed because the free list was empty.",
		}, labels),
		reused: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrainstream",
			Subsystem: "pool",
			Name:      "reused_total",
			Help:      "Acquisitions satisfied from the free list.",
		}, labels),
		released: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "terrainstream",
			Subsystem: "pool",
			Name:      "released_total",
			Help:      "Segment instances returned to the free list.",
		}, labels),
		pooled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "terrainstream",
			Subsystem: "pool",
			Name:      "pooled",
			Help:      "Inactive segment instances currently parked in the free list.",
		}, labels),
	}
	for _, c := range []prometheus.Collector{m.constructed, m.reused, m.released, m.pooled} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAcquire(lane, key string, reused bool, pooled int) {
	if m == nil {
		return
	}
	if reused {
		m.reused.WithLabelValues(lane, key).Inc()
	} else {
		m.constructed.WithLabelValues(lane, key).Inc()
	}
	m.pooled.WithLabelValues(lane, key).Set(float64(pooled))
}

func (m *Metrics) observeRelease(lane, key string, pooled int) {
	if m == nil {
		return
	}
	m.released.WithLabelValues(lane, key).Inc()
	m.pooled.WithLabelValues(lane, key).Set(float64(pooled))
}
