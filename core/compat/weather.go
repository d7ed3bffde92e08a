package compat

import (
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// WeatherSuitable reports whether the current tide and wind readings are
// within the effective thresholds.
func WeatherSuitable(w model.WeatherState) bool {
	_, ok := WeatherRejection(w)
	return ok
}

// WeatherRejection returns a human readable reason when conditions are
// unsuitable. The tide is checked before the wind.
func WeatherRejection(w model.WeatherState) (string, bool) {
	eff := w.Effective()
	if w.Tide.Current < eff.MinTideLevel {
		return fmt.Sprintf("insufficient tide level (%.2fm < %.2fm)", w.Tide.Current, eff.MinTideLevel), false
	}
	if w.Wind.Speed > eff.MaxWindSpeed {
		return fmt.Sprintf("excessive wind speed (%.1f > %.1f knots)", w.Wind.Speed, eff.MaxWindSpeed), false
	}
	return "", true
}

// WindowSafe reports whether an operation spanning [start,end] is covered by
// safe tide windows. Every forecast window overlapping the interval must reach
// the effective minimum; window flags are recomputed rather than trusted. When
// no window overlaps, or there is no forecast at all, the current tide reading
// decides.
func WindowSafe(w model.WeatherState, start, end time.Time) bool {
	min := w.Effective().MinTideLevel
	overlapping := 0
	for _, tw := range w.Tide.Windows {
		if tw.Start.After(end) || tw.End.Before(start) {
			continue
		}
		overlapping++
		if tw.Level < min {
			return false
		}
	}
	if overlapping == 0 {
		return w.Tide.Current >= min
	}
	return true
}
