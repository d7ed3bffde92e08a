package allocation

import (
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

var base = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// newTestLocal returns a LocalStrategy with a fixed clock and sequential IDs.
func newTestLocal() *LocalStrategy {
	n := 0
	return &LocalStrategy{
		now: func() time.Time { return base },
		newID: func() string {
			n++
			return fmt.Sprintf("alloc-%d", n)
		},
	}
}

func calmWeather() model.WeatherState {
	return model.WeatherState{
		Location: "yard",
		Tide:     model.Tide{Current: 3.0, Unit: "m", Minimum: 2.5},
		Wind:     model.Wind{Speed: 5, Unit: "kn", Maximum: 25},
		Settings: model.SettingsFrom(model.Thresholds{MaxWindSpeed: 25, MinTideLevel: 2.5}),
	}
}

func dock300() model.Dock {
	return model.Dock{
		ID:                "d1",
		Name:              "North",
		Length:            300,
		Depth:             15,
		Specializations:   []model.ShipType{model.ShipContainer},
		OperationalStatus: model.DockOperational,
		MaxWindSpeed:      25,
		MinTideLevel:      2.5,
	}
}

func ship(id string, length, draft float64, prio int, arrival time.Time, stay time.Duration) model.Ship {
	return model.Ship{
		ID:            id,
		Name:          "MV " + id,
		Type:          model.ShipContainer,
		Length:        length,
		Draft:         draft,
		ArrivalTime:   arrival,
		DepartureTime: arrival.Add(stay),
		Priority:      prio,
	}
}
