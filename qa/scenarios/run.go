package scenarios

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/compat"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/weather"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/infra/metrics"
	"github.com/kilianp07/berthplan/infra/optimizer"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// Start anchors every scenario so tide windows and ship times line up.
var Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// RunScenario allocates the scenario with the local strategy and checks the
// expectations, the allocation invariants and the exported metrics.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	docks, ships, err := sc.Build(Start)
	require.NoError(t, err, "build seed")
	goal, err := model.ParseGoal(sc.Goal)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err, "prom sink")

	bus := eventbus.New()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics.StartEventCollector(ctx, bus, sink, logger.NopLogger{})

	chain, err := allocation.NewFallbackChain(logger.NopLogger{}, bus, allocation.NewLocalStrategy())
	require.NoError(t, err)
	eng, err := allocation.NewEngine(weather.StaticProvider{State: sc.State(Start)}, chain,
		allocation.WithEventBus(bus),
		allocation.WithClock(func() time.Time { return Start }),
	)
	require.NoError(t, err)

	res, err := eng.Run(ctx, allocation.RunInput{
		Ships:     ships,
		Docks:     docks,
		Goal:      goal,
		Overrides: sc.Overrides.thresholds(),
	})
	require.NoError(t, err)
	exp := sc.Expected
	assert.Equal(t, expectedStrategy(exp, "local"), res.Strategy)

	assert.Len(t, res.Allocations, exp.Allocated, "allocated ships")
	assert.Equal(t, exp.WeatherWarning, res.WeatherWarning, "weather warning")
	codes := make(map[string]int)
	for _, u := range res.Unassigned {
		codes[u.Code]++
	}
	if len(exp.Unassigned) == 0 {
		assert.Empty(t, codes, "unassigned ships")
	} else {
		assert.Equal(t, exp.Unassigned, codes, "unassigned reasons")
	}
	placed := make(map[string]string, len(res.Allocations))
	for _, a := range res.Allocations {
		placed[a.ShipID] = a.DockID
	}
	for ship, dock := range exp.Docks {
		assert.Equal(t, dock, placed[ship], "dock of %s", ship)
	}
	CheckInvariants(t, ships, docks, res)

	require.Eventually(t, func() bool {
		return counterValue(reg, "ships_allocated_total") == float64(exp.Allocated)
	}, time.Second, 10*time.Millisecond, "ships_allocated_total")
}

// RunRemote allocates the scenario through the bundled optimizer server and
// checks the invariants only: the model may place ships differently from the
// greedy heuristic.
func RunRemote(t *testing.T, sc *Scenario) {
	t.Helper()
	docks, ships, err := sc.Build(Start)
	require.NoError(t, err, "build seed")
	goal, err := model.ParseGoal(sc.Goal)
	require.NoError(t, err)

	srv := optimizer.NewServer(optimizer.Config{}, logger.NopLogger{}, prometheus.NewRegistry())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	client, err := optimizer.NewClient(optimizer.Config{URL: ts.URL}, nil, logger.NopLogger{})
	require.NoError(t, err)

	chain, err := allocation.NewFallbackChain(logger.NopLogger{}, nil,
		optimizer.NewRemoteStrategy(client), allocation.NewLocalStrategy())
	require.NoError(t, err)
	eng, err := allocation.NewEngine(weather.StaticProvider{State: sc.State(Start)}, chain)
	require.NoError(t, err)

	res, err := eng.Run(context.Background(), allocation.RunInput{
		Ships:     ships,
		Docks:     docks,
		Goal:      goal,
		Overrides: sc.Overrides.thresholds(),
	})
	require.NoError(t, err)
	assert.Equal(t, expectedStrategy(sc.Expected, "remote"), res.Strategy)
	assert.Equal(t, sc.Expected.WeatherWarning, res.WeatherWarning, "weather warning")
	CheckInvariants(t, ships, docks, res)
}

// CheckInvariants asserts what every allocation result must satisfy whatever
// strategy produced it.
func CheckInvariants(t *testing.T, ships []model.Ship, docks []model.Dock, res allocation.Result) {
	t.Helper()
	shipByID := make(map[string]model.Ship, len(ships))
	for _, sh := range ships {
		shipByID[sh.ID] = sh
	}
	dockByID := make(map[string]model.Dock, len(docks))
	for _, d := range docks {
		dockByID[d.ID] = d
	}
	if res.WeatherWarning {
		assert.Empty(t, res.Allocations, "no allocation under a weather warning")
	}

	seen := make(map[string]bool)
	for _, a := range res.Allocations {
		assert.False(t, seen[a.ShipID], "ship %s allocated twice", a.ShipID)
		seen[a.ShipID] = true
		sh, ok := shipByID[a.ShipID]
		if !assert.True(t, ok, "unknown ship %s", a.ShipID) {
			continue
		}
		d, ok := dockByID[a.DockID]
		if !assert.True(t, ok, "unknown dock %s", a.DockID) {
			continue
		}
		assert.True(t, d.IsOperational(), "dock %s is not operational", d.ID)
		assert.True(t, compat.PhysicalFit(sh, d), "ship %s does not fit dock %s", sh.ID, d.ID)
		assert.True(t, a.StartTime.Before(a.EndTime), "empty stay for %s", sh.ID)
		assert.GreaterOrEqual(t, a.EndTime.Sub(a.StartTime), sh.RequiredDuration(), "stay of %s too short", sh.ID)
	}
	for _, u := range res.Unassigned {
		assert.False(t, seen[u.Ship.ID], "ship %s both allocated and unassigned", u.Ship.ID)
	}

	// The berth length in use peaks at the start of some stay.
	for _, a := range res.Allocations {
		var used float64
		for _, b := range res.Allocations {
			if b.DockID == a.DockID && !b.StartTime.After(a.StartTime) && b.EndTime.After(a.StartTime) {
				used += shipByID[b.ShipID].Length
			}
		}
		assert.LessOrEqual(t, used, dockByID[a.DockID].Length, "dock %s over capacity at %s", a.DockID, a.StartTime)
	}
}

// expectedStrategy is the strategy name a run reports: a closed port is
// refused before any strategy is asked.
func expectedStrategy(exp Expected, name string) string {
	if exp.WeatherWarning {
		return allocation.WeatherGateStrategy
	}
	return name
}

func counterValue(reg *prometheus.Registry, name string) float64 {
	families, err := reg.Gather()
	if err != nil {
		return -1
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	return 0
}
