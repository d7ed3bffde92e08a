package optimizer

import (
	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
)

// requestPayload is the body sent to the allocation model.
type requestPayload struct {
	Ships                []model.Ship           `json:"ships"`
	Docks                []model.Dock           `json:"docks"`
	ExistingAllocations  []model.Allocation     `json:"existingAllocations"`
	OptimizationCriteria model.OptimizationGoal `json:"optimizationCriteria"`
	WeatherData          *model.WeatherState    `json:"weatherData,omitempty"`
}

// isProbe reports whether the payload carries no work, as sent by Probe.
func (p requestPayload) isProbe() bool {
	return p.Ships == nil && p.Docks == nil && p.WeatherData == nil
}

type unassignedPayload struct {
	Ship   model.Ship `json:"ship"`
	Reason string     `json:"reason"`
	Code   string     `json:"code,omitempty"`
}

// responsePayload is the body returned by the allocation model.
type responsePayload struct {
	Allocations     []model.Allocation  `json:"allocations"`
	Metrics         allocation.Metrics  `json:"metrics"`
	WeatherWarning  *bool               `json:"weatherWarning,omitempty"`
	UnassignedShips []unassignedPayload `json:"unassignedShips,omitempty"`
	Error           string              `json:"error,omitempty"`
}

func toPayload(req allocation.Request) requestPayload {
	w := req.Weather
	return requestPayload{
		Ships:                nonNil(req.Ships),
		Docks:                nonNil(req.Docks),
		ExistingAllocations:  nonNil(req.Existing),
		OptimizationCriteria: req.Goal,
		WeatherData:          &w,
	}
}

func fromResult(res allocation.Result) responsePayload {
	warn := res.WeatherWarning
	out := responsePayload{
		Allocations:     nonNil(res.Allocations),
		Metrics:         res.Metrics,
		WeatherWarning:  &warn,
		UnassignedShips: make([]unassignedPayload, 0, len(res.Unassigned)),
	}
	for _, u := range res.Unassigned {
		out.UnassignedShips = append(out.UnassignedShips, unassignedPayload{Ship: u.Ship, Reason: u.Reason, Code: u.Code})
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
