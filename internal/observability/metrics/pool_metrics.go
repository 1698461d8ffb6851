package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics tracks the port pool and allocation outcomes.
type PoolMetrics struct {
	poolSize           *prometheus.GaugeVec
	allocationOutcomes *prometheus.CounterVec
	reassignments      prometheus.Counter
}

var (
	poolMetricsOnce sync.Once
	poolMetrics     *PoolMetrics
)

// Pool returns the process-wide pool metrics, registering them on first use.
func Pool(cfg Config) *PoolMetrics {
	poolMetricsOnce.Do(func() {
		poolMetrics = newPoolMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return poolMetrics
}

func ResetPoolMetricsForTest() {
	poolMetricsOnce = sync.Once{}
	poolMetrics = nil
}

func newPoolMetrics(registerer prometheus.Registerer, cfg Config) *PoolMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "karyalay"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	poolSize := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        "karyalay_port_pool_size",
			Help:        "Number of ports in the registry by lifecycle status.",
			ConstLabels: constLabels,
		},
		[]string{"status"},
	)

	allocationOutcomes := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "karyalay_port_allocations_total",
			Help:        "Total port allocation attempts by outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"}, // assigned | already_assigned | exhausted | failed
	)

	reassignments := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "karyalay_port_reassignments_total",
			Help:        "Total administrator-driven port reassignments.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(poolSize, allocationOutcomes, reassignments)

	return &PoolMetrics{
		poolSize:           poolSize,
		allocationOutcomes: allocationOutcomes,
		reassignments:      reassignments,
	}
}

// SetPoolSize records the current number of ports with the given status.
func (m *PoolMetrics) SetPoolSize(status string, count int) {
	if m == nil {
		return
	}
	m.poolSize.WithLabelValues(status).Set(float64(count))
}

// ObserveAllocation counts one allocation attempt outcome.
func (m *PoolMetrics) ObserveAllocation(outcome string) {
	if m == nil {
		return
	}
	m.allocationOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveReassignment counts one reassignment.
func (m *PoolMetrics) ObserveReassignment() {
	if m == nil {
		return
	}
	m.reassignments.Inc()
}
