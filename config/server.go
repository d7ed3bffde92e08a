package config

import (
	"errors"
	"strings"
	"time"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr     string `json:"addr"`
	BasePath string `json:"base_path"`
	// Token, when set, must be presented as a bearer token.
	Token           string        `json:"token"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("server: addr is required")
	}
	if !strings.HasPrefix(c.BasePath, "/") {
		return errors.New("server: base_path must start with /")
	}
	return nil
}
