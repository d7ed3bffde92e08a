package metrics

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// RunRecord summarises one allocation run.
type RunRecord struct {
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

// MetricsSink records allocation runs for observability purposes.
type MetricsSink interface {
	RecordAllocationRun(rec RunRecord) error
}

// FallbackEvent records a strategy being abandoned in favour of the next one.
type FallbackEvent struct {
	Strategy string
	Reason   string
	Time     time.Time
}

// FallbackRecorder records fallback applications.
type FallbackRecorder interface {
	RecordFallback(ev FallbackEvent) error
}

// WeatherSnapshot is the weather a run was evaluated against.
type WeatherSnapshot struct {
	Location     string
	TideLevel    float64
	MinTideLevel float64
	WindSpeed    float64
	MaxWindSpeed float64
	Time         time.Time
}

// WeatherRecorder records weather snapshots.
type WeatherRecorder interface {
	RecordWeather(ws WeatherSnapshot) error
}

// SnapshotFromState extracts the effective values from a weather state.
func SnapshotFromState(w model.WeatherState, at time.Time) WeatherSnapshot {
	eff := w.Effective()
	return WeatherSnapshot{
		Location:     w.Location,
		TideLevel:    w.Tide.Current,
		MinTideLevel: eff.MinTideLevel,
		WindSpeed:    w.Wind.Speed,
		MaxWindSpeed: eff.MaxWindSpeed,
		Time:         at,
	}
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordAllocationRun(RunRecord) error { return nil }
func (NopSink) RecordFallback(FallbackEvent) error  { return nil }
func (NopSink) RecordWeather(WeatherSnapshot) error { return nil }
