// Package metrics exports eventproc processor outcomes as Prometheus
// collectors.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bjaus/eventproc"
)

// Outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeNotFound    = "not_found"
	OutcomeBadProtocol = "bad_protocol"
)

// Metrics holds the collectors fed by processor hooks.
type Metrics struct {
	events   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg. A nil reg uses
// prometheus.DefaultRegisterer.
//
// Example:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	p := eventproc.New(table, m.Options()...)
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventproc_events_total",
			Help: "Processed events by event name, version and outcome.",
		}, []string{"event", "version", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventproc_handler_duration_seconds",
			Help:    "Time spent in event handlers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"event", "version"}),
	}
	reg.MustRegister(m.events, m.duration)
	return m
}

// Options returns the processor hooks that feed the collectors. Handler
// failures are counted under their error tag.
func (m *Metrics) Options() []eventproc.Option {
	return []eventproc.Option{
		eventproc.WithOnSuccess(func(ctx context.Context, name string, version uint16, d time.Duration) {
			v := versionLabel(version)
			m.events.WithLabelValues(name, v, OutcomeSuccess).Inc()
			m.duration.WithLabelValues(name, v).Observe(d.Seconds())
		}),
		eventproc.WithOnFailure(func(ctx context.Context, name string, version uint16, err *eventproc.Error, d time.Duration) {
			v := versionLabel(version)
			m.events.WithLabelValues(name, v, err.Tag()).Inc()
			m.duration.WithLabelValues(name, v).Observe(d.Seconds())
		}),
		eventproc.WithOnNotFound(func(ctx context.Context, name string, version uint16) {
			m.events.WithLabelValues(name, versionLabel(version), OutcomeNotFound).Inc()
		}),
		eventproc.WithOnBadProtocol(func(ctx context.Context, raw []byte, err error) {
			m.events.WithLabelValues("", "", OutcomeBadProtocol).Inc()
		}),
	}
}

func versionLabel(v uint16) string {
	return strconv.FormatUint(uint64(v), 10)
}
