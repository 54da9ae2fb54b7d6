// Package metrics exposes prometheus collectors for the animation service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cortexface"

// Update results.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

type Metrics struct {
	Updates       *prometheus.CounterVec
	FeedErrors    *prometheus.CounterVec
	Ticks         prometheus.Counter
	TickDuration  prometheus.Histogram
	Transitioning prometheus.Gauge
	Faces         prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Updates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "updates_total",
				Help:      "Inbound face updates by kind and result",
			},
			[]string{"kind", "result"},
		),
		FeedErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_errors_total",
				Help:      "Transport failures by feed",
			},
			[]string{"feed"},
		),
		Ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticks_total",
				Help:      "Face ticks executed",
			},
		),
		TickDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tick_duration_seconds",
				Help:      "Wall time spent ticking all faces for one frame",
				Buckets:   []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
			},
		),
		Transitioning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "faces_transitioning",
				Help:      "Faces with an expression transition in flight",
			},
		),
		Faces: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "faces",
				Help:      "Faces driven by the frame loop",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Updates, m.FeedErrors, m.Ticks, m.TickDuration, m.Transitioning, m.Faces)
	}
	return m
}

func (m *Metrics) Update(kind, result string) {
	if m == nil {
		return
	}
	m.Updates.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) FeedError(feed string) {
	if m == nil {
		return
	}
	m.FeedErrors.WithLabelValues(feed).Inc()
}

// Frame records one driver frame covering n ticks.
func (m *Metrics) Frame(n, transitioning int, took time.Duration) {
	if m == nil {
		return
	}
	m.Ticks.Add(float64(n))
	m.Faces.Set(float64(n))
	m.Transitioning.Set(float64(transitioning))
	m.TickDuration.Observe(took.Seconds())
}
