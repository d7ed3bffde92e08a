package store

import (
	"fmt"

	"github.com/kilianp07/berthplan/core/repository"
)

// Config selects the repository backend.
type Config struct {
	// Backend is "memory" or "sqlite".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// Seed loads initial docks and ships into an empty repository.
	Seed bool `json:"seed"`
	// SeedFile overrides the built-in seed data.
	SeedFile string `json:"seed_file"`
}

// SetDefaults applies defaults.
func (c *Config) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "memory"
	}
	if c.Backend == "sqlite" && c.Path == "" {
		c.Path = "berthplan.db"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "memory", "sqlite":
		return nil
	default:
		return fmt.Errorf("store: unknown backend %q", c.Backend)
	}
}

// Open builds the repository selected by cfg.
func Open(cfg Config) (repository.Repository, error) {
	switch cfg.Backend {
	case "memory", "":
		return repository.NewMemoryRepository(), nil
	case "sqlite":
		return NewSQLiteRepository(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}
