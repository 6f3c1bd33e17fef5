package cpa

import (
	"github.com/cpa-go/cpa/cpa/emit"
	"github.com/cpa-go/cpa/cpa/store"
	"github.com/cpa-go/cpa/propagate"
	"github.com/cpa-go/cpa/sched"
)

// Option is a functional option for configuring an AnalyzeSystem run,
// mirroring the teacher's Option func(*engineConfig) error pattern.
type Option func(*engineConfig) error

// engineConfig collects options before AnalyzeSystem applies them.
type engineConfig struct {
	propagationMode propagate.Mode
	limits           sched.Limits
	emitter          emit.Emitter
	metrics          *PrometheusMetrics
	priorResults     map[string]TaskResult
	store            store.Store
}

func defaultConfig() *engineConfig {
	return &engineConfig{
		propagationMode: propagate.Optimal,
		limits:          sched.DefaultLimits,
		emitter:         emit.NewNullEmitter(),
	}
}

// WithPropagationMode selects the output-event-model propagation rule used
// for every task in the system (spec.md §4.C). Default: propagate.Optimal.
func WithPropagationMode(mode propagate.Mode) Option {
	return func(cfg *engineConfig) error {
		cfg.propagationMode = mode
		return nil
	}
}

// WithMaxIterations bounds both the dirty-set loop and each task's
// busy-window fixed point. Default: sched.DefaultLimits.MaxIterations.
func WithMaxIterations(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.limits.MaxIterations = n
		return nil
	}
}

// WithMaxWCRT bounds the busy-window fixed point's search ceiling. Default:
// sched.DefaultLimits.MaxWCRT.
func WithMaxWCRT(w int64) Option {
	return func(cfg *engineConfig) error {
		cfg.limits.MaxWCRT = w
		return nil
	}
}

// WithEmitter installs an observability sink for the run. Default:
// emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics installs a Prometheus metrics collector for the run. Default:
// nil (disabled).
func WithMetrics(m *PrometheusMetrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithPriorResults seeds the dirty-set fixed point from a previous run's
// converged results, keyed by task name, supporting incremental
// re-analysis after a small system-description change.
func WithPriorResults(results map[string]TaskResult) Option {
	return func(cfg *engineConfig) error {
		cfg.priorResults = results
		return nil
	}
}

// WithStore installs a persistence backend; AnalyzeSystem saves its
// converged results to it under the run's UUID after completion.
func WithStore(s store.Store) Option {
	return func(cfg *engineConfig) error {
		cfg.store = s
		return nil
	}
}
