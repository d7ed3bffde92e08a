package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/berthplan/core/lifecycle"
	"github.com/kilianp07/berthplan/core/metrics"
	"github.com/kilianp07/berthplan/core/runlog"
	// registers the prometheus and influx sink types
	_ "github.com/kilianp07/berthplan/infra/metrics"
	"github.com/kilianp07/berthplan/infra/monitoring"
	"github.com/kilianp07/berthplan/infra/mqtt"
	"github.com/kilianp07/berthplan/infra/optimizer"
	"github.com/kilianp07/berthplan/infra/store"
	"github.com/kilianp07/berthplan/infra/weatherfeed"
)

type Config struct {
	Server    ServerConfig       `json:"server"`
	Optimizer optimizer.Config   `json:"optimizer"`
	Weather   weatherfeed.Config `json:"weather"`
	Store     store.Config       `json:"store"`
	RunLog    runlog.Config      `json:"runlog"`
	Metrics   metrics.Config     `json:"metrics"`
	MQTT      mqtt.Config        `json:"mqtt"`
	Lifecycle lifecycle.Config   `json:"lifecycle"`
	Logging   LoggingConfig      `json:"logging"`
	Sentry    monitoring.Config  `json:"sentry"`
}

// Load reads path (YAML or JSON) and applies K_ environment overrides, where
// a double underscore separates levels: K_OPTIMIZER__URL sets optimizer.url.
// An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Server.SetDefaults()
	c.Optimizer.SetDefaults()
	c.Weather.SetDefaults()
	c.Store.SetDefaults()
	c.RunLog.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Lifecycle.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and returns the first error.
func (c Config) Validate() error {
	for _, v := range []interface{ Validate() error }{
		c.Server, c.Optimizer, c.Weather, c.Store, c.RunLog,
		c.Metrics, c.MQTT, c.Lifecycle, c.Logging, c.Sentry,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}
