package model

import (
	"fmt"
	"time"
)

// ShipType is the category of a ship.
type ShipType string

const (
	ShipContainer ShipType = "container"
	ShipBulk      ShipType = "bulk"
	ShipTanker    ShipType = "tanker"
	ShipPassenger ShipType = "passenger"
)

// Valid reports whether t is one of the known ship categories.
func (t ShipType) Valid() bool {
	switch t {
	case ShipContainer, ShipBulk, ShipTanker, ShipPassenger:
		return true
	default:
		return false
	}
}

// Ship is a vessel requesting a berth.
type Ship struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Type          ShipType  `json:"type"`
	Length        float64   `json:"length"` // meters
	Draft         float64   `json:"draft"`  // minimum water depth required, meters
	ArrivalTime   time.Time `json:"arrivalTime"`
	DepartureTime time.Time `json:"departureTime"`
	CargoType     string    `json:"cargoType,omitempty"`
	Priority      int       `json:"priority"` // lower is more urgent
}

// RequiredDuration is the time the ship needs alongside.
func (s Ship) RequiredDuration() time.Duration {
	return s.DepartureTime.Sub(s.ArrivalTime)
}

// Validate checks the ship record is well formed.
func (s Ship) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("unknown ship type %q", s.Type)
	}
	if s.Length <= 0 {
		return fmt.Errorf("length must be positive")
	}
	if s.Draft < 0 {
		return fmt.Errorf("draft must not be negative")
	}
	if s.ArrivalTime.IsZero() || s.DepartureTime.IsZero() {
		return fmt.Errorf("arrival and departure times are required")
	}
	if !s.ArrivalTime.Before(s.DepartureTime) {
		return fmt.Errorf("arrival must be before departure")
	}
	return nil
}
