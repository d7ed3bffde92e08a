package store

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/repository"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// SeedDock is the YAML form of a dock.
type SeedDock struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	Length          float64          `yaml:"length"`
	Depth           float64          `yaml:"depth"`
	Width           float64          `yaml:"width"`
	Specializations []model.ShipType `yaml:"specializations"`
	Status          string           `yaml:"status"`
	MaxWindSpeed    float64          `yaml:"max_wind_speed"`
	MinTideLevel    float64          `yaml:"min_tide_level"`
}

// SeedShip is the YAML form of a ship. Times are offsets from the seeding
// instant.
type SeedShip struct {
	ID        string        `yaml:"id"`
	Name      string        `yaml:"name"`
	Type      string        `yaml:"type"`
	Length    float64       `yaml:"length"`
	Draft     float64       `yaml:"draft"`
	ArrivesIn time.Duration `yaml:"arrives_in"`
	DepartsIn time.Duration `yaml:"departs_in"`
	Cargo     string        `yaml:"cargo"`
	Priority  int           `yaml:"priority"`
}

// Seed is the content of a seed file.
type Seed struct {
	Docks []SeedDock `yaml:"docks"`
	Ships []SeedShip `yaml:"ships"`
}

// ParseSeed decodes a YAML seed document.
func ParseSeed(b []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return s, nil
}

// LoadSeed reads a seed file. An empty path selects the built-in data set.
func LoadSeed(path string) (Seed, error) {
	if path == "" {
		return ParseSeed(defaultSeed)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	return ParseSeed(b)
}

// Build converts the seed to model entities anchored at now and validates
// them.
func (s Seed) Build(now time.Time) ([]model.Dock, []model.Ship, error) {
	now = now.UTC().Truncate(time.Minute)
	docks := make([]model.Dock, 0, len(s.Docks))
	for _, d := range s.Docks {
		dock := model.Dock{
			ID:                d.ID,
			Name:              d.Name,
			Length:            d.Length,
			Depth:             d.Depth,
			Width:             d.Width,
			Specializations:   d.Specializations,
			OperationalStatus: model.OperationalStatus(d.Status).Canonical(),
			MaxWindSpeed:      d.MaxWindSpeed,
			MinTideLevel:      d.MinTideLevel,
		}
		if err := dock.Validate(); err != nil {
			return nil, nil, fmt.Errorf("seed dock %s: %w", d.ID, err)
		}
		docks = append(docks, dock)
	}
	ships := make([]model.Ship, 0, len(s.Ships))
	for _, sh := range s.Ships {
		ship := model.Ship{
			ID:            sh.ID,
			Name:          sh.Name,
			Type:          model.ShipType(sh.Type),
			Length:        sh.Length,
			Draft:         sh.Draft,
			ArrivalTime:   now.Add(sh.ArrivesIn),
			DepartureTime: now.Add(sh.DepartsIn),
			CargoType:     sh.Cargo,
			Priority:      sh.Priority,
		}
		if err := ship.Validate(); err != nil {
			return nil, nil, fmt.Errorf("seed ship %s: %w", sh.ID, err)
		}
		ships = append(ships, ship)
	}
	return docks, ships, nil
}

// Apply writes the seed into repo when it holds no docks and no ships. It
// reports whether anything was written.
func (s Seed) Apply(ctx context.Context, repo repository.Repository, now time.Time) (bool, error) {
	existingDocks, err := repo.Docks(ctx)
	if err != nil {
		return false, err
	}
	existingShips, err := repo.Ships(ctx)
	if err != nil {
		return false, err
	}
	if len(existingDocks) > 0 || len(existingShips) > 0 {
		return false, nil
	}
	docks, ships, err := s.Build(now)
	if err != nil {
		return false, err
	}
	if err := repo.SaveDocks(ctx, docks); err != nil {
		return false, fmt.Errorf("seed docks: %w", err)
	}
	if err := repo.SaveShips(ctx, ships); err != nil {
		return false, fmt.Errorf("seed ships: %w", err)
	}
	return true, nil
}
