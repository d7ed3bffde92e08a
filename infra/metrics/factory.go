package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/berthplan/core/factory"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
)

// init registers built-in metrics sinks. "nop" is registered by core/metrics.
func init() {
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		// The listen address lives in metrics.prometheus_addr and is used by
		// StartPromServer only.
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
