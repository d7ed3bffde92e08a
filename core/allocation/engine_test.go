package allocation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/runlog"
	"github.com/kilianp07/berthplan/core/weather"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

type captureStrategy struct{ req Request }

func (c *captureStrategy) Name() string { return "capture" }

func (c *captureStrategy) Allocate(_ context.Context, req Request) (Result, error) {
	c.req = req
	return Result{Strategy: c.Name()}, nil
}

func TestEngine_RunMergesOverrides(t *testing.T) {
	w := calmWeather()
	w.Settings = nil
	w.Tide.Windows = []model.TideWindow{{Start: base, End: base.Add(time.Hour), Level: 2.8, IsSafe: true}}
	cs := &captureStrategy{}
	e, err := NewEngine(weather.StaticProvider{State: w}, cs)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), RunInput{
		Ships:     []model.Ship{ship("s1", 100, 10, 1, base, time.Hour)},
		Overrides: model.Thresholds{MinTideLevel: 2.9},
	})
	require.NoError(t, err)
	require.NotNil(t, cs.req.Weather.Settings)
	assert.Equal(t, model.Thresholds{MaxWindSpeed: 25, MinTideLevel: 2.9}, cs.req.Weather.Effective(), "unset override keeps the effective value")
	assert.False(t, cs.req.Weather.Tide.Windows[0].IsSafe)
	assert.Equal(t, model.GoalBalanced, cs.req.Goal)
	assert.Equal(t, cs.req.Weather, res.Weather)
	assert.NotNil(t, res.Allocations)
	assert.NotNil(t, res.Unassigned)
}

func TestEngine_OverrideTriggersWeatherGate(t *testing.T) {
	e, err := NewEngine(weather.StaticProvider{State: calmWeather()}, newTestLocal())
	require.NoError(t, err)
	res, err := e.Run(context.Background(), RunInput{
		Ships:     []model.Ship{ship("s1", 100, 10, 1, base, time.Hour)},
		Docks:     []model.Dock{dock300()},
		Overrides: model.Thresholds{MaxWindSpeed: 4},
	})
	require.NoError(t, err)
	assert.True(t, res.WeatherWarning)
	require.Len(t, res.Unassigned, 1)
	assert.Contains(t, res.Unassigned[0].Reason, "excessive wind speed (5.0 > 4.0 knots)")
}

func TestEngine_RecordsRunAndPublishes(t *testing.T) {
	store, err := runlog.NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	bus := eventbus.New()
	sub := bus.Subscribe()
	e, err := NewEngine(weather.StaticProvider{State: calmWeather()}, newTestLocal(),
		WithLogger(logger.NopLogger{}),
		WithEventBus(bus),
		WithLogStore(store),
		WithClock(func() time.Time { return base }),
	)
	require.NoError(t, err)

	req := chainRequest()
	res, err := e.Run(context.Background(), RunInput{Ships: req.Ships, Docks: req.Docks, Goal: model.GoalWaitingTime})
	require.NoError(t, err)
	require.Len(t, res.Allocations, 1)

	recs, err := store.Query(context.Background(), runlog.LogQuery{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "local", recs[0].Strategy)
	assert.Equal(t, model.GoalWaitingTime, recs[0].Goal)
	assert.Equal(t, []string{"s1", "s2"}, recs[0].ShipsConsidered)
	require.Len(t, recs[0].Result.Unassigned, 1)
	assert.Equal(t, "s2", recs[0].Result.Unassigned[0].ShipID)

	var run *events.RunEvent
	var sawWeather bool
	for len(sub) > 0 {
		switch ev := (<-sub).(type) {
		case events.RunEvent:
			run = &ev
		case events.WeatherEvent:
			sawWeather = true
		}
	}
	require.NotNil(t, run)
	assert.True(t, sawWeather)
	assert.Equal(t, 1, run.Allocated)
	assert.Equal(t, map[string]int{CodeNoSpace: 1}, run.Unassigned)
	assert.Equal(t, recs[0].RunID, run.RunID)
}

func TestEngine_WeatherError(t *testing.T) {
	failing := weather.ProviderFunc(func(context.Context) (model.WeatherState, error) {
		return model.WeatherState{}, errors.New("sensor offline")
	})
	e, err := NewEngine(failing, newTestLocal())
	require.NoError(t, err)
	_, err = e.Run(context.Background(), RunInput{})
	assert.ErrorContains(t, err, "sensor offline")

	_, err = NewEngine(nil, newTestLocal())
	assert.Error(t, err)
}

func TestEngine_WeatherGateAppliesToEveryStrategy(t *testing.T) {
	storm := calmWeather()
	storm.Wind.Speed = 60
	req := chainRequest()
	remote := &stubRemote{result: Result{
		Strategy:    "remote",
		Allocations: []model.Allocation{{ID: "r1", ShipID: "s1", DockID: "d1", StartTime: base, EndTime: base.Add(time.Hour)}},
	}}
	chain, err := NewFallbackChain(logger.NopLogger{}, nil, remote, newTestLocal())
	require.NoError(t, err)
	bus := eventbus.New()
	sub := bus.Subscribe()
	e, err := NewEngine(weather.StaticProvider{State: storm}, chain, WithEventBus(bus))
	require.NoError(t, err)

	res, err := e.Run(context.Background(), RunInput{Ships: req.Ships, Docks: req.Docks})
	require.NoError(t, err)
	assert.Zero(t, remote.probes)
	assert.Zero(t, remote.calls)
	assert.True(t, res.WeatherWarning)
	assert.Equal(t, WeatherGateStrategy, res.Strategy)
	assert.Empty(t, res.Allocations)
	require.Len(t, res.Unassigned, 2)
	for _, u := range res.Unassigned {
		assert.Equal(t, CodeWind, u.Code)
		assert.Contains(t, u.Reason, "excessive wind speed (60.0 > 25.0 knots)")
	}

	var run *events.RunEvent
	for len(sub) > 0 {
		if ev, ok := (<-sub).(events.RunEvent); ok {
			run = &ev
		}
	}
	require.NotNil(t, run)
	assert.True(t, run.WeatherWarning)
	assert.Equal(t, map[string]int{CodeWind: 2}, run.Unassigned)
}

func TestEngine_WeatherGateReportsTideFirst(t *testing.T) {
	w := calmWeather()
	w.Wind.Speed = 60
	w.Tide.Current = 1
	cs := &captureStrategy{}
	e, err := NewEngine(weather.StaticProvider{State: w}, cs)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), RunInput{Ships: []model.Ship{ship("s1", 100, 10, 1, base, time.Hour)}})
	require.NoError(t, err)
	assert.Empty(t, cs.req.Ships, "strategy must not run")
	require.Len(t, res.Unassigned, 1)
	assert.Equal(t, CodeTide, res.Unassigned[0].Code)
}
