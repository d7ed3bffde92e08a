// Package scenarios runs YAML described berth planning situations through the
// allocation engine and checks the outcome.
package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/weather"
	"github.com/kilianp07/berthplan/infra/store"
)

// WindowDef is a tide forecast window relative to the scenario start.
type WindowDef struct {
	From  time.Duration `yaml:"from"`
	To    time.Duration `yaml:"to"`
	Level float64       `yaml:"level"`
}

// WeatherDef describes the conditions of a scenario. Unset readings take the
// default state's values.
type WeatherDef struct {
	Tide    float64     `yaml:"tide"`
	MinTide float64     `yaml:"min_tide"`
	Wind    float64     `yaml:"wind"`
	MaxWind float64     `yaml:"max_wind"`
	Windows []WindowDef `yaml:"windows"`
}

// OverridesDef replaces the thresholds for the run.
type OverridesDef struct {
	MaxWind float64 `yaml:"max_wind"`
	MinTide float64 `yaml:"min_tide"`
}

type Expected struct {
	Allocated int `yaml:"allocated"`
	// Unassigned counts rejected ships per reason code.
	Unassigned     map[string]int    `yaml:"unassigned"`
	Docks          map[string]string `yaml:"docks"`
	WeatherWarning bool              `yaml:"weather_warning"`
}

type Scenario struct {
	store.Seed `yaml:",inline"`

	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Goal        string       `yaml:"goal,omitempty"`
	Weather     *WeatherDef  `yaml:"weather,omitempty"`
	Overrides   OverridesDef `yaml:"overrides,omitempty"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name is required", path)
	}
	return &sc, nil
}

// State returns the weather of the scenario anchored at start.
func (sc *Scenario) State(start time.Time) model.WeatherState {
	st := weather.DefaultState("scenario", start)
	w := sc.Weather
	if w == nil {
		return st
	}
	if w.Tide > 0 {
		st.Tide.Current = w.Tide
	}
	if w.MinTide > 0 {
		st.Tide.Minimum = w.MinTide
	}
	if w.Wind > 0 {
		st.Wind.Speed = w.Wind
	}
	if w.MaxWind > 0 {
		st.Wind.Maximum = w.MaxWind
	}
	if len(w.Windows) > 0 {
		st.Tide.Windows = make([]model.TideWindow, 0, len(w.Windows))
		for _, tw := range w.Windows {
			st.Tide.Windows = append(st.Tide.Windows, model.TideWindow{
				Start: start.Add(tw.From),
				End:   start.Add(tw.To),
				Level: tw.Level,
			})
		}
	}
	st.Tide.Windows = model.RecomputeWindows(st.Tide.Windows, st.Tide.Minimum)
	return st
}

func (o OverridesDef) thresholds() model.Thresholds {
	return model.Thresholds{MaxWindSpeed: o.MaxWind, MinTideLevel: o.MinTide}
}
