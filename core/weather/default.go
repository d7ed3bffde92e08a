package weather

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

const (
	DefaultTideLevel    = 3.5
	DefaultMinTideLevel = 3.0
	DefaultWindSpeed    = 5.0
	DefaultMaxWindSpeed = 8.0

	defaultWindowCount  = 4
	defaultWindowLength = 6 * time.Hour
)

// DefaultState returns deterministic, safe conditions used when no feed is
// reachable. Tide windows start at the hour containing now and cover the next
// 24 hours.
func DefaultState(location string, now time.Time) model.WeatherState {
	start := now.UTC().Truncate(time.Hour)
	windows := make([]model.TideWindow, 0, defaultWindowCount)
	for i := 0; i < defaultWindowCount; i++ {
		s := start.Add(time.Duration(i) * defaultWindowLength)
		windows = append(windows, model.TideWindow{
			Start:  s,
			End:    s.Add(defaultWindowLength),
			Level:  DefaultTideLevel,
			IsSafe: DefaultTideLevel >= DefaultMinTideLevel,
		})
	}
	return model.WeatherState{
		Location:  location,
		Timestamp: now.UTC(),
		Tide: model.Tide{
			Current: DefaultTideLevel,
			Unit:    "m",
			Minimum: DefaultMinTideLevel,
			Windows: windows,
		},
		Wind: model.Wind{
			Speed:     DefaultWindSpeed,
			Direction: "N",
			Unit:      "kn",
			Maximum:   DefaultMaxWindSpeed,
		},
	}
}
