package allocation

import (
	"context"

	"github.com/kilianp07/berthplan/core/model"
)

// Request is the input of a single allocation run.
type Request struct {
	Ships    []model.Ship
	Docks    []model.Dock
	Existing []model.Allocation
	Goal     model.OptimizationGoal
	Weather  model.WeatherState
}

// Unassigned is a ship left out of a run together with the reason.
type Unassigned struct {
	Ship   model.Ship `json:"ship"`
	Reason string     `json:"reason"`
	// Code is a stable classification of Reason, used as a metrics label.
	Code string `json:"code,omitempty"`
}

// Metrics are the aggregate statistics of a run.
type Metrics struct {
	TotalWaitingTime float64 `json:"totalWaitingTime"` // minutes
	DockUtilization  float64 `json:"dockUtilization"`  // 0..1
	Conflicts        int     `json:"conflicts"`
}

// Result is the outcome of an allocation run.
type Result struct {
	Allocations    []model.Allocation `json:"allocations"`
	Unassigned     []Unassigned       `json:"unassignedShips"`
	Metrics        Metrics            `json:"metrics"`
	Weather        model.WeatherState `json:"weatherData"`
	WeatherWarning bool               `json:"weatherWarning"`
	Strategy       string             `json:"strategy"`
}

// Strategy produces allocations for a request. Business rejections are
// reported as Unassigned entries; an error means the strategy could not run.
type Strategy interface {
	Name() string
	Allocate(ctx context.Context, req Request) (Result, error)
}

// Prober is implemented by strategies that can check their availability
// before being asked to allocate.
type Prober interface {
	Probe(ctx context.Context) error
}
