package api

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// ShipRequest is the body of ship create and update calls.
type ShipRequest struct {
	Name          string         `json:"name,omitempty"`
	Type          model.ShipType `json:"type" enum:"container,bulk,tanker,passenger"`
	Length        float64        `json:"length" doc:"Length overall in meters"`
	Draft         float64        `json:"draft" doc:"Minimum water depth required in meters"`
	ArrivalTime   time.Time      `json:"arrivalTime"`
	DepartureTime time.Time      `json:"departureTime"`
	CargoType     string         `json:"cargoType,omitempty"`
	Priority      int            `json:"priority,omitempty" doc:"Lower is more urgent"`
}

func (r ShipRequest) ship(id string) model.Ship {
	return model.Ship{
		ID:            id,
		Name:          r.Name,
		Type:          r.Type,
		Length:        r.Length,
		Draft:         r.Draft,
		ArrivalTime:   r.ArrivalTime.UTC(),
		DepartureTime: r.DepartureTime.UTC(),
		CargoType:     r.CargoType,
		Priority:      r.Priority,
	}
}

// DockRequest is the body of dock create and update calls. Occupancy is
// derived from allocations and cannot be set.
type DockRequest struct {
	ID                string                  `json:"id,omitempty" doc:"Ignored on update"`
	Name              string                  `json:"name"`
	Length            float64                 `json:"length"`
	Depth             float64                 `json:"depth"`
	Width             float64                 `json:"width,omitempty"`
	Specializations   []model.ShipType        `json:"specializations,omitempty"`
	OperationalStatus model.OperationalStatus `json:"operationalStatus,omitempty" enum:"operational,under-maintenance,out-of-service,maintenance,out_of_service"`
	MaxWindSpeed      float64                 `json:"maxWindSpeed,omitempty"`
	MinTideLevel      float64                 `json:"minTideLevel,omitempty"`
}

func (r DockRequest) dock(id string) model.Dock {
	return model.Dock{
		ID:                id,
		Name:              r.Name,
		Length:            r.Length,
		Depth:             r.Depth,
		Width:             r.Width,
		Specializations:   r.Specializations,
		OperationalStatus: r.OperationalStatus.Canonical(),
		MaxWindSpeed:      r.MaxWindSpeed,
		MinTideLevel:      r.MinTideLevel,
	}
}

// Overrides replaces the weather thresholds for one request. Zero means unset.
type Overrides struct {
	MaxWindSpeed float64 `json:"maxWindSpeed,omitempty" minimum:"0"`
	MinTideLevel float64 `json:"minTideLevel,omitempty" minimum:"0"`
}

func (o *Overrides) thresholds() model.Thresholds {
	if o == nil {
		return model.Thresholds{}
	}
	return model.Thresholds{MaxWindSpeed: o.MaxWindSpeed, MinTideLevel: o.MinTideLevel}
}

// RunRequest is the body of POST /allocations/run.
type RunRequest struct {
	Goal      string     `json:"goal,omitempty" enum:"waiting_time,dock_utilization,balanced"`
	Overrides *Overrides `json:"overrides,omitempty"`
}

// OptimizerStatus reports whether the remote optimizer answered a probe.
type OptimizerStatus struct {
	Enabled   bool      `json:"enabled"`
	Available bool      `json:"available"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// DockShip is a ship allocated to a dock together with its allocation.
type DockShip struct {
	Ship       model.Ship       `json:"ship"`
	Allocation model.Allocation `json:"allocation"`
}

// Dashboard holds the summary counters of the yard.
type Dashboard struct {
	Ships             int          `json:"ships"`
	Docks             int          `json:"docks"`
	DocksAvailable    int          `json:"docksAvailable"`
	Allocations       int          `json:"allocations"`
	ActiveAllocations int          `json:"activeAllocations"`
	PendingShips      []model.Ship `json:"pendingShips"`
}
