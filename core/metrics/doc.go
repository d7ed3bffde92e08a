// Package metrics defines the sink interfaces used to observe allocation runs.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves in the factory so a sink list can be built from configuration.
// NewMetricsSink returns a MultiSink automatically when several sinks are
// configured.
package metrics
