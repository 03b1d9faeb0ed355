package application

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects record service counters. A nil *Metrics records nothing.
type Metrics struct {
	operations          *prometheus.CounterVec
	duration            *prometheus.HistogramVec
	personsWritten      *prometheus.CounterVec
	participantsRemoved prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rgn",
			Subsystem: "records",
			Name:      "operations_total",
			Help:      "Record operations by outcome.",
		}, []string{"op", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rgn",
			Subsystem: "records",
			Name:      "operation_duration_seconds",
			Help:      "Record operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		personsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rgn",
			Subsystem: "records",
			Name:      "persons_written_total",
			Help:      "Individuals created or updated by record writes.",
		}, []string{"action"}),
		participantsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "rgn",
			Subsystem: "records",
			Name:      "participations_removed_total",
			Help:      "Participations removed by record updates.",
		}),
	}
}

func (m *Metrics) observe(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

func (m *Metrics) written(stats writeStats) {
	if m == nil {
		return
	}
	m.personsWritten.WithLabelValues("created").Add(float64(stats.created))
	m.personsWritten.WithLabelValues("updated").Add(float64(stats.updated))
	m.participantsRemoved.Add(float64(stats.removed))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case isInvalid(err):
		return "invalid"
	case isNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}
