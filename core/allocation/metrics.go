package allocation

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	runDuration       *prometheus.HistogramVec
	strategyAttempts  *prometheus.CounterVec
	optimizerFallback *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.CounterVec) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "allocation_run_duration_seconds",
			Help:    "Duration of allocation runs, weather lookup included",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"strategy"},
	)
	att := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "allocation_strategy_attempts_total",
			Help: "Number of times a strategy was asked to allocate",
		},
		[]string{"strategy"},
	)
	fb := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimizer_fallback_total",
			Help: "Number of times a strategy was skipped in favour of the next one",
		},
		[]string{"strategy", "reason"},
	)
	return dur, att, fb
}

func init() {
	runDuration, strategyAttempts, optimizerFallback = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers allocation metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(runDuration, strategyAttempts, optimizerFallback)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	runDuration, strategyAttempts, optimizerFallback = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
