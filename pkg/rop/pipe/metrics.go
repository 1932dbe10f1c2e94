package pipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of one pipeline
type Metrics struct {
	submitted      prometheus.Counter
	received       prometheus.Counter
	discarded      prometheus.Counter
	processed      *prometheus.CounterVec
	failed         *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	processingTime *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer, namespace, pipeline string) (*Metrics, error) {
	labels := prometheus.Labels{"pipeline": pipeline}

	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "submitted_total",
			Help:        "Messages submitted into the first link",
			ConstLabels: labels,
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "received_total",
			Help:        "Work and Skip messages delivered to the consumer",
			ConstLabels: labels,
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "discarded_total",
			Help:        "Messages dropped while draining on shutdown",
			ConstLabels: labels,
		}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stage_processed_total",
			Help:        "Items a stage transformed successfully",
			ConstLabels: labels,
		}, []string{"stage"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stage_failed_total",
			Help:        "Items a stage turned into Skip",
			ConstLabels: labels,
		}, []string{"stage"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "stage_skipped_total",
			Help:        "Skip messages a stage forwarded untouched",
			ConstLabels: labels,
		}, []string{"stage"}),
		processingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "stage_processing_duration_seconds",
			Help:        "Time spent inside stage processors",
			ConstLabels: labels,
			Buckets:     []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, []string{"stage", "status"}),
	}

	var err error
	if m.submitted, err = register(reg, m.submitted); err != nil {
		return nil, err
	}
	if m.received, err = register(reg, m.received); err != nil {
		return nil, err
	}
	if m.discarded, err = register(reg, m.discarded); err != nil {
		return nil, err
	}
	if m.processed, err = register(reg, m.processed); err != nil {
		return nil, err
	}
	if m.failed, err = register(reg, m.failed); err != nil {
		return nil, err
	}
	if m.skipped, err = register(reg, m.skipped); err != nil {
		return nil, err
	}
	if m.processingTime, err = register(reg, m.processingTime); err != nil {
		return nil, err
	}
	return m, nil
}

// register reuses an identical collector that is already registered, so a
// rebuilt pipeline with the same name keeps counting into the same series.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register pipeline metrics: %w", err)
	}
	return c, nil
}

func (m *Metrics) onSubmitted() {
	if m != nil {
		m.submitted.Inc()
	}
}

func (m *Metrics) onReceived() {
	if m != nil {
		m.received.Inc()
	}
}

func (m *Metrics) onDiscarded() {
	if m != nil {
		m.discarded.Inc()
	}
}

func (m *Metrics) onProcessed(stage string, elapsed time.Duration) {
	if m != nil {
		m.processed.WithLabelValues(stage).Inc()
		m.processingTime.WithLabelValues(stage, "success").Observe(elapsed.Seconds())
	}
}

func (m *Metrics) onFailed(stage string, elapsed time.Duration) {
	if m != nil {
		m.failed.WithLabelValues(stage).Inc()
		m.processingTime.WithLabelValues(stage, "error").Observe(elapsed.Seconds())
	}
}

func (m *Metrics) onSkipped(stage string) {
	if m != nil {
		m.skipped.WithLabelValues(stage).Inc()
	}
}
