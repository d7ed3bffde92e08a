package allocation

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/model"
)

func TestLocalStrategy_DockLengthExhausted(t *testing.T) {
	s := newTestLocal()
	req := Request{
		Ships: []model.Ship{
			ship("s1", 150, 10, 1, base, 10*time.Hour),
			ship("s2", 200, 10, 2, base, 10*time.Hour),
		},
		Docks:   []model.Dock{dock300()},
		Weather: calmWeather(),
	}
	res, err := s.Allocate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "s1", res.Allocations[0].ShipID)
	assert.Equal(t, model.StatusScheduled, res.Allocations[0].Status)
	assert.Equal(t, base, res.Allocations[0].Created)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "s2", res.Unassigned[0].Ship.ID)
	assert.Equal(t, ReasonNoSpace, res.Unassigned[0].Reason)
	assert.Equal(t, 1, res.Metrics.Conflicts)
	assert.InDelta(t, 0.5, res.Metrics.DockUtilization, 1e-9)
	assert.False(t, res.WeatherWarning)
	assert.Equal(t, "local", res.Strategy)
}

func TestLocalStrategy_DraftTooDeep(t *testing.T) {
	s := newTestLocal()
	res, err := s.Allocate(context.Background(), Request{
		Ships:   []model.Ship{ship("s1", 100, 16, 1, base, 4*time.Hour)},
		Docks:   []model.Dock{dock300()},
		Weather: calmWeather(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Allocations)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, ReasonNoCompatible, res.Unassigned[0].Reason)
	assert.Equal(t, CodeNoCompatible, res.Unassigned[0].Code)
	assert.Zero(t, res.Metrics.Conflicts)
}

func TestLocalStrategy_WeatherGate(t *testing.T) {
	ships := []model.Ship{
		ship("s1", 100, 10, 1, base, 4*time.Hour),
		ship("s2", 120, 10, 2, base, 4*time.Hour),
	}
	cases := []struct {
		name   string
		tide   float64
		wind   float64
		code   string
		prefix string
	}{
		{"low tide", 2.0, 5, CodeTide, "insufficient tide level"},
		{"high wind", 3.0, 30, CodeWind, "excessive wind speed"},
		{"both failing reports tide", 2.0, 30, CodeTide, "insufficient tide level"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := calmWeather()
			w.Tide.Current = c.tide
			w.Wind.Speed = c.wind
			res, err := newTestLocal().Allocate(context.Background(), Request{
				Ships:   ships,
				Docks:   []model.Dock{dock300()},
				Weather: w,
			})
			require.NoError(t, err)
			assert.True(t, res.WeatherWarning)
			assert.Empty(t, res.Allocations)
			require.Len(t, res.Unassigned, len(ships))
			for _, u := range res.Unassigned {
				assert.Contains(t, u.Reason, c.prefix)
				assert.Equal(t, c.code, u.Code)
			}
		})
	}
}

func TestLocalStrategy_PriorityOrdering(t *testing.T) {
	// one 200m slot: whoever is served first wins it
	late := ship("late", 200, 10, 1, base.Add(2*time.Hour), 6*time.Hour)
	early := ship("early", 200, 10, 1, base.Add(time.Hour), 6*time.Hour)
	urgent := ship("urgent", 200, 10, 0, base.Add(3*time.Hour), 6*time.Hour)

	res, err := newTestLocal().Allocate(context.Background(), Request{
		Ships:   []model.Ship{late, early, urgent},
		Docks:   []model.Dock{dock300()},
		Weather: calmWeather(),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "urgent", res.Allocations[0].ShipID)
	require.Len(t, res.Unassigned, 2)
	assert.Equal(t, "early", res.Unassigned[0].Ship.ID)
	assert.Equal(t, "late", res.Unassigned[1].Ship.ID)

	sorted := SortShips([]model.Ship{late, early, urgent})
	assert.Equal(t, []string{"urgent", "early", "late"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestLocalStrategy_NoDoubleAllocation(t *testing.T) {
	s := newTestLocal()
	req := Request{
		Ships: []model.Ship{
			ship("s1", 100, 10, 1, base, 8*time.Hour),
			ship("s2", 100, 10, 2, base, 8*time.Hour),
		},
		Docks:   []model.Dock{dock300()},
		Weather: calmWeather(),
	}
	first, err := s.Allocate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Allocations, 2)

	req.Existing = first.Allocations
	second, err := s.Allocate(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, second.Allocations)
	assert.Empty(t, second.Unassigned, "already allocated ships are skipped silently")
}

func TestLocalStrategy_FirstFitInDockOrder(t *testing.T) {
	small := model.Dock{ID: "small", Length: 120, Depth: 12, OperationalStatus: model.DockOperational}
	big := model.Dock{ID: "big", Length: 400, Depth: 20, OperationalStatus: model.DockOperational}
	closed := model.Dock{ID: "closed", Length: 500, Depth: 20, OperationalStatus: model.DockMaintenance}

	res, err := newTestLocal().Allocate(context.Background(), Request{
		Ships: []model.Ship{
			ship("a", 100, 10, 1, base, 5*time.Hour),
			ship("b", 100, 10, 2, base, 5*time.Hour),
		},
		Docks:   []model.Dock{closed, small, big},
		Weather: calmWeather(),
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 2)
	assert.Equal(t, "small", res.Allocations[0].DockID)
	assert.Equal(t, "big", res.Allocations[1].DockID, "small is full, next fit dock wins")
	// maintenance docks do not count towards capacity
	assert.InDelta(t, 200.0/520.0, res.Metrics.DockUtilization, 1e-9)
}

func TestLocalStrategy_ExistingAllocationsConsumeSpace(t *testing.T) {
	parked := ship("parked", 250, 10, 5, base, 24*time.Hour)
	existing := []model.Allocation{{
		ID: "x", ShipID: "parked", DockID: "d1",
		StartTime: base, EndTime: base.Add(24 * time.Hour), Status: model.StatusInProgress,
	}}
	res, err := newTestLocal().Allocate(context.Background(), Request{
		Ships:    []model.Ship{parked, ship("s1", 100, 10, 1, base.Add(time.Hour), 4*time.Hour)},
		Docks:    []model.Dock{dock300()},
		Existing: existing,
		Weather:  calmWeather(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Allocations)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, ReasonNoSpace, res.Unassigned[0].Reason)
}

func TestLocalStrategy_UnsafeTideWindow(t *testing.T) {
	w := calmWeather()
	w.Tide.Windows = []model.TideWindow{
		{Start: base, End: base.Add(6 * time.Hour), Level: 3.1, IsSafe: true},
		// flag claims safe but the level is below the minimum
		{Start: base.Add(6 * time.Hour), End: base.Add(12 * time.Hour), Level: 2.0, IsSafe: true},
	}
	res, err := newTestLocal().Allocate(context.Background(), Request{
		Ships: []model.Ship{
			ship("short", 100, 10, 1, base.Add(time.Hour), 2*time.Hour),
			ship("long", 100, 10, 2, base.Add(time.Hour), 8*time.Hour),
		},
		Docks:   []model.Dock{dock300()},
		Weather: w,
	})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)
	assert.Equal(t, "short", res.Allocations[0].ShipID)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, "long", res.Unassigned[0].Ship.ID)
	assert.Equal(t, CodeTideWindow, res.Unassigned[0].Code)
	assert.Contains(t, res.Unassigned[0].Reason, "unsafe tide window")
}

func TestLocalStrategy_NoOperationalDocks(t *testing.T) {
	d := dock300()
	d.OperationalStatus = model.DockOutOfService
	res, err := newTestLocal().Allocate(context.Background(), Request{
		Ships:   []model.Ship{ship("s1", 100, 10, 1, base, 2*time.Hour)},
		Docks:   []model.Dock{d},
		Weather: calmWeather(),
	})
	require.NoError(t, err)
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, ReasonNoCompatible, res.Unassigned[0].Reason)
	assert.Zero(t, res.Metrics.DockUtilization)
	assert.NotNil(t, res.Allocations)
}

// Property: whatever the input, the ships berthed at a dock at any instant
// never exceed its length.
func TestLocalStrategy_SpaceInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	docks := []model.Dock{
		{ID: "a", Length: 300, Depth: 15, OperationalStatus: model.DockOperational},
		{ID: "b", Length: 180, Depth: 10, OperationalStatus: model.DockOperational},
		{ID: "c", Length: 250, Depth: 14, Specializations: []model.ShipType{model.ShipTanker}},
	}
	types := []model.ShipType{model.ShipContainer, model.ShipBulk, model.ShipTanker, model.ShipPassenger}
	for iter := 0; iter < 50; iter++ {
		var ships []model.Ship
		for i := 0; i < 20; i++ {
			arr := base.Add(time.Duration(rng.Intn(72)) * time.Hour)
			sh := ship(
				string(rune('A'+i))+string(rune('a'+iter%26)),
				float64(50+rng.Intn(200)),
				float64(5+rng.Intn(10)),
				rng.Intn(4),
				arr,
				time.Duration(1+rng.Intn(24))*time.Hour,
			)
			sh.Type = types[rng.Intn(len(types))]
			ships = append(ships, sh)
		}
		res, err := newTestLocal().Allocate(context.Background(), Request{Ships: ships, Docks: docks, Weather: calmWeather()})
		require.NoError(t, err)
		assert.Equal(t, len(ships), len(res.Allocations)+len(res.Unassigned))

		byID := make(map[string]model.Ship)
		for _, s := range ships {
			byID[s.ID] = s
		}
		lengths := map[string]float64{"a": 300, "b": 180, "c": 250}
		for _, probe := range res.Allocations {
			// load is maximal at some allocation start
			var used float64
			for _, a := range res.Allocations {
				if a.DockID == probe.DockID && !a.StartTime.After(probe.StartTime) && a.EndTime.After(probe.StartTime) {
					used += byID[a.ShipID].Length
				}
			}
			assert.LessOrEqual(t, used, lengths[probe.DockID], "dock %s overbooked at %s", probe.DockID, probe.StartTime)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := ship("s1", 100, 10, 1, base, 4*time.Hour)
	allocs := []model.Allocation{{ShipID: "s1", DockID: "d1", StartTime: base.Add(90 * time.Minute), EndTime: base.Add(5 * time.Hour)}}
	m := Summarize(allocs, []model.Ship{s}, []model.Dock{{ID: "d1", Length: 400}})
	assert.InDelta(t, 90.0, m.TotalWaitingTime, 1e-9)
	assert.InDelta(t, 0.25, m.DockUtilization, 1e-9)

	m = Summarize(nil, nil, nil)
	assert.Zero(t, m.DockUtilization)
}
