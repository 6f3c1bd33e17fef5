package cpa

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics exposes Prometheus-compatible counters, gauges, and a
// histogram for monitoring AnalyzeSystem's dirty-set fixed-point loop,
// grounded on the teacher's graph/metrics.go.
//
// Metrics (all namespaced "cpa_"):
//   - dirty_set_size (gauge): tasks awaiting re-analysis.
//   - iterations_total (counter): dirty-set loop iterations consumed.
//   - wcrt_search_steps (histogram): busy-window fixed-point steps per task.
//   - violations_total (counter): constraint violations found after convergence.
//   - not_schedulable_total (counter): tasks whose analysis failed, by task name.
type PrometheusMetrics struct {
	dirtySetSize    prometheus.Gauge
	iterations      prometheus.Counter
	wcrtSearchSteps prometheus.Histogram
	violations      prometheus.Counter
	notSchedulable  *prometheus.CounterVec

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics registers all fixed-point loop metrics with registry
// (prometheus.DefaultRegisterer if nil).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	pm := &PrometheusMetrics{enabled: true}

	pm.dirtySetSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "cpa",
		Name:      "dirty_set_size",
		Help:      "Number of tasks currently awaiting re-analysis in the fixed-point loop",
	})
	pm.iterations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "cpa",
		Name:      "iterations_total",
		Help:      "Cumulative number of dirty-set loop iterations consumed",
	})
	pm.wcrtSearchSteps = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: "cpa",
		Name:      "wcrt_search_steps",
		Help:      "Busy-window fixed-point steps consumed per task analysis",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 500, 1000},
	})
	pm.violations = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "cpa",
		Name:      "violations_total",
		Help:      "Constraint violations discovered after the fixed point converged",
	})
	pm.notSchedulable = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cpa",
		Name:      "not_schedulable_total",
		Help:      "Tasks for which busy-window analysis failed to converge",
	}, []string{"task_name"})

	return pm
}

func (pm *PrometheusMetrics) UpdateDirtySetSize(n int) {
	if !pm.isEnabled() {
		return
	}
	pm.dirtySetSize.Set(float64(n))
}

func (pm *PrometheusMetrics) IncrementIterations() {
	if !pm.isEnabled() {
		return
	}
	pm.iterations.Inc()
}

func (pm *PrometheusMetrics) ObserveWCRTSearchSteps(steps int) {
	if !pm.isEnabled() {
		return
	}
	pm.wcrtSearchSteps.Observe(float64(steps))
}

func (pm *PrometheusMetrics) IncrementViolations(n int) {
	if !pm.isEnabled() {
		return
	}
	pm.violations.Add(float64(n))
}

func (pm *PrometheusMetrics) IncrementNotSchedulable(taskName string) {
	if !pm.isEnabled() {
		return
	}
	pm.notSchedulable.WithLabelValues(taskName).Inc()
}

func (pm *PrometheusMetrics) isEnabled() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.enabled
}

// Disable stops metric recording (useful in tests sharing a registry).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable resumes metric recording after Disable.
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
