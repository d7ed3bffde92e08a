package metrics

import (
	"fmt"

	"github.com/kilianp07/berthplan/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty disables it.
	PrometheusAddr string `json:"prometheus_addr"`
}

// SetDefaults applies defaults.
func (c *Config) SetDefaults() {
	for _, s := range c.Sinks {
		if s.Type == "prometheus" && c.PrometheusAddr == "" {
			c.PrometheusAddr = ":9100"
		}
	}
}

// Validate ensures every sink type is known.
func (c Config) Validate() error {
	for _, s := range c.Sinks {
		if !sinkRegistry.Has(s.Type) {
			return fmt.Errorf("metrics: unknown sink type %q (known: %v)", s.Type, SinkTypes())
		}
	}
	return nil
}
