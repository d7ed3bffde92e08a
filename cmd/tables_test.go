package cmd

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/weather"
)

func TestRenderResult(t *testing.T) {
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	res := allocation.Result{
		Allocations: []model.Allocation{{
			ID: "a1", ShipID: "s1", DockID: "d1",
			StartTime: start, EndTime: start.Add(90 * time.Minute), Status: model.StatusScheduled,
		}},
		Unassigned: []allocation.Unassigned{{
			Ship:   model.Ship{ID: "s2", Name: "Pacific Voyager"},
			Reason: allocation.ReasonNoCompatible,
		}},
		Metrics:  allocation.Metrics{DockUtilization: 0.4},
		Weather:  weather.DefaultState("port", start),
		Strategy: "local",
	}

	var buf bytes.Buffer
	renderResult(&buf, res)
	out := buf.String()
	assert.Contains(t, out, "strategy local")
	assert.Contains(t, out, "2025-06-01 08:00")
	assert.Contains(t, out, "1h30m")
	assert.Contains(t, out, "40%")
	assert.Contains(t, out, "Pacific Voyager")
	assert.NotContains(t, out, "weather warning")
}

func TestRenderDocks(t *testing.T) {
	until := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	renderDocks(&buf, []model.Dock{
		{ID: "d1", Name: "North Terminal 1", Length: 350, Depth: 15,
			Specializations: []model.ShipType{model.ShipContainer, model.ShipBulk},
			Occupied:        true, OccupiedBy: "s1", OccupiedUntil: &until},
		{ID: "d2", Name: "Passenger Terminal", Length: 350, Depth: 10},
	})
	out := buf.String()
	assert.Contains(t, out, "North Terminal 1")
	assert.Contains(t, out, "container,bulk")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "operational")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0h00m", formatDuration(0))
	assert.Equal(t, "36h05m", formatDuration(36*time.Hour+5*time.Minute))
}
