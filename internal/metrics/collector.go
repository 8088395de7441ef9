package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ModeSerial = "serial"
	ModePool   = "pool"
)

// Collector records dispatcher activity in Prometheus. A nil *Collector is a
// valid no-op.
type Collector struct {
	evaluations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	geometries  prometheus.Counter
	workers     prometheus.Gauge
}

// NewCollector registers the potman metrics on reg. A nil reg means the
// default Prometheus registerer. Metrics already registered by an earlier
// collector are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "potman_evaluations_total",
		Help: "Potential evaluations by dispatch mode and outcome",
	}, []string{"mode", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "potman_evaluation_seconds",
		Help:    "Wall time of one batch evaluation",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"mode"})
	geometries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "potman_geometries_total",
		Help: "Geometries evaluated successfully",
	})
	workers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "potman_pool_workers",
		Help: "Workers in the active evaluation pool",
	})

	var err error
	if evaluations, err = register(reg, evaluations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if geometries, err = register(reg, geometries); err != nil {
		return nil, err
	}
	if workers, err = register(reg, workers); err != nil {
		return nil, err
	}

	return &Collector{evaluations: evaluations, duration: duration, geometries: geometries, workers: workers}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (c *Collector) ObserveEvaluation(mode string, geometries int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.evaluations.WithLabelValues(mode, outcome).Inc()
	c.duration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if err == nil {
		c.geometries.Add(float64(geometries))
	}
}

func (c *Collector) SetWorkers(n int) {
	if c == nil {
		return
	}
	c.workers.Set(float64(n))
}

// Workers exposes the pool size gauge.
func (c *Collector) Workers() prometheus.Gauge { return c.workers }

// Evaluations returns the evaluation counter for one mode and outcome.
func (c *Collector) Evaluations(mode, outcome string) prometheus.Counter {
	return c.evaluations.WithLabelValues(mode, outcome)
}
