package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// OperationalStatus describes whether a dock can receive ships.
type OperationalStatus string

const (
	DockOperational  OperationalStatus = "operational"
	DockMaintenance  OperationalStatus = "under-maintenance"
	DockOutOfService OperationalStatus = "out-of-service"
)

// Canonical maps accepted spellings onto the status constants. An empty
// status becomes DockOperational; unknown values are returned unchanged so
// Validate can reject them.
func (s OperationalStatus) Canonical() OperationalStatus {
	switch strings.ToLower(strings.TrimSpace(string(s))) {
	case "":
		return DockOperational
	case "maintenance", "under_maintenance", string(DockMaintenance):
		return DockMaintenance
	case "out_of_service", string(DockOutOfService):
		return DockOutOfService
	case string(DockOperational):
		return DockOperational
	}
	return s
}

// Dock is a berth with physical limits and safety thresholds.
//
// Occupied, OccupiedBy and OccupiedUntil are derived from the allocation set
// and must not be edited directly.
type Dock struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Length            float64           `json:"length"`
	Depth             float64           `json:"depth"`
	Width             float64           `json:"width,omitempty"`
	Specializations   []ShipType        `json:"specializations,omitempty"`
	OperationalStatus OperationalStatus `json:"operationalStatus"`
	MaxWindSpeed      float64           `json:"maxWindSpeed"` // knots
	MinTideLevel      float64           `json:"minTideLevel"` // meters

	Occupied      bool       `json:"occupied"`
	OccupiedBy    string     `json:"occupiedBy,omitempty"`
	OccupiedUntil *time.Time `json:"occupiedUntil,omitempty"`
}

// IsOperational reports whether the dock accepts new allocations. An unset
// status is treated as operational.
func (d Dock) IsOperational() bool {
	return d.OperationalStatus == DockOperational || d.OperationalStatus == ""
}

// WithOccupancy returns d with the derived occupancy fields taken from src.
func (d Dock) WithOccupancy(src Dock) Dock {
	d.Occupied = src.Occupied
	d.OccupiedBy = src.OccupiedBy
	d.OccupiedUntil = src.OccupiedUntil
	return d
}

// Accepts reports whether the dock handles ships of type t. A dock without
// specializations accepts every type.
func (d Dock) Accepts(t ShipType) bool {
	return len(d.Specializations) == 0 || slices.Contains(d.Specializations, t)
}

// Validate checks the dock record is well formed.
func (d Dock) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Length <= 0 || d.Depth <= 0 {
		return fmt.Errorf("length and depth must be positive")
	}
	switch d.OperationalStatus {
	case "", DockOperational, DockMaintenance, DockOutOfService:
	default:
		return fmt.Errorf("unknown operational status %q", d.OperationalStatus)
	}
	for _, t := range d.Specializations {
		if !t.Valid() {
			return fmt.Errorf("unknown specialization %q", t)
		}
	}
	return nil
}
