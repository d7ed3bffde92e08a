package optimizer

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultPath    = "/api/allocation-model"
	DefaultTimeout = 3 * time.Second
)

// Config holds the settings of the remote optimizer.
type Config struct {
	Enabled bool          `json:"enabled"`
	URL     string        `json:"url"`
	Path    string        `json:"path"`
	Timeout time.Duration `json:"timeout"`
	Auth    *AuthConfig   `json:"auth"`
	// ListenAddr is used by the bundled reference server.
	ListenAddr string `json:"listen_addr"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
}

// Validate checks the configuration when the optimizer is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" {
		return errors.New("optimizer: url is required when enabled")
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("optimizer: invalid url %q", c.URL)
	}
	if c.Auth != nil {
		return c.Auth.Validate()
	}
	return nil
}

// Endpoint is the full URL of the allocation model.
func (c Config) Endpoint() string {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	return c.URL + path
}
