package events

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// RunEvent is published once an allocation run has produced a result.
type RunEvent struct {
	RunID          string
	Strategy       string
	Goal           model.OptimizationGoal
	Allocated      int
	Unassigned     map[string]int // reason -> count
	Utilization    float64
	WaitingMinutes float64
	Conflicts      int
	WeatherWarning bool
	Duration       time.Duration
	Time           time.Time
}

// WeatherEvent carries the effective weather state a run was computed with.
type WeatherEvent struct {
	State model.WeatherState
	Time  time.Time
}
