package model

import "time"

// Thresholds are the safety limits applied to weather readings.
type Thresholds struct {
	MaxWindSpeed float64 `json:"maxWindSpeed"` // knots
	MinTideLevel float64 `json:"minTideLevel"` // meters
}

// Settings are thresholds set explicitly on a weather state. A nil field is
// unset; zero is a value like any other.
type Settings struct {
	MaxWindSpeed *float64 `json:"maxWindSpeed,omitempty"` // knots
	MinTideLevel *float64 `json:"minTideLevel,omitempty"` // meters
}

// SettingsFrom returns settings with both fields taken from t.
func SettingsFrom(t Thresholds) *Settings {
	return &Settings{MaxWindSpeed: &t.MaxWindSpeed, MinTideLevel: &t.MinTideLevel}
}

// TideWindow is a forecast interval with its tide level.
type TideWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Level  float64   `json:"level"`
	IsSafe bool      `json:"isSafe"`
}

// Tide holds the current tide reading and forecast windows.
type Tide struct {
	Current float64      `json:"current"`
	Unit    string       `json:"unit"`
	Minimum float64      `json:"minimum"`
	Windows []TideWindow `json:"windows"`
}

// Wind holds the current wind reading.
type Wind struct {
	Speed     float64 `json:"speed"`
	Direction string  `json:"direction"`
	Unit      string  `json:"unit"`
	Maximum   float64 `json:"maximum"`
}

// WeatherState is a snapshot of conditions at the yard.
type WeatherState struct {
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Tide      Tide      `json:"tide"`
	Wind      Wind      `json:"wind"`
	Settings  *Settings `json:"settings,omitempty"`
}

// Effective returns the thresholds in force. Settings fields that are set win
// over the tide and wind sub-records.
func (w WeatherState) Effective() Thresholds {
	eff := Thresholds{MaxWindSpeed: w.Wind.Maximum, MinTideLevel: w.Tide.Minimum}
	if w.Settings == nil {
		return eff
	}
	if w.Settings.MaxWindSpeed != nil {
		eff.MaxWindSpeed = *w.Settings.MaxWindSpeed
	}
	if w.Settings.MinTideLevel != nil {
		eff.MinTideLevel = *w.Settings.MinTideLevel
	}
	return eff
}

// WithOverrides returns a copy of w whose Settings hold the effective
// thresholds with the non-zero fields of o applied. Tide window safety flags
// are recomputed against the resulting minimum.
func (w WeatherState) WithOverrides(o Thresholds) WeatherState {
	eff := w.Effective()
	if o.MaxWindSpeed > 0 {
		eff.MaxWindSpeed = o.MaxWindSpeed
	}
	if o.MinTideLevel > 0 {
		eff.MinTideLevel = o.MinTideLevel
	}
	out := w
	out.Settings = SettingsFrom(eff)
	out.Tide.Windows = RecomputeWindows(w.Tide.Windows, eff.MinTideLevel)
	return out
}

// RecomputeWindows returns a copy of windows with IsSafe evaluated against min.
func RecomputeWindows(windows []TideWindow, min float64) []TideWindow {
	if windows == nil {
		return nil
	}
	out := make([]TideWindow, len(windows))
	for i, tw := range windows {
		tw.IsSafe = tw.Level >= min
		out[i] = tw
	}
	return out
}
