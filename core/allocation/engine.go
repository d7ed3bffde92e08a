package allocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	coremon "github.com/kilianp07/berthplan/core/monitoring"
	"github.com/kilianp07/berthplan/core/runlog"
	"github.com/kilianp07/berthplan/core/weather"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// ErrRunInProgress is returned by callers that serialize runs when another
// run is still in flight.
var ErrRunInProgress = errors.New("allocation run already in progress")

// WeatherGateStrategy names the result of a run refused by the port-wide
// weather check before any strategy was consulted.
const WeatherGateStrategy = "weather"

// RunInput is what a caller supplies to Engine.Run.
type RunInput struct {
	Ships     []model.Ship
	Docks     []model.Dock
	Existing  []model.Allocation
	Goal      model.OptimizationGoal
	Overrides model.Thresholds
}

// Engine runs allocation requests against a strategy, usually a FallbackChain.
type Engine struct {
	weather  weather.Provider
	strategy Strategy
	log      logger.Logger
	bus      eventbus.EventBus
	store    runlog.LogStore
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option { return func(e *Engine) { e.log = l } }

// WithEventBus publishes run, weather and strategy events on bus.
func WithEventBus(bus eventbus.EventBus) Option { return func(e *Engine) { e.bus = bus } }

// WithLogStore persists a record of every run.
func WithLogStore(s runlog.LogStore) Option { return func(e *Engine) { e.store = s } }

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// NewEngine creates an engine reading weather from provider.
func NewEngine(provider weather.Provider, strategy Strategy, opts ...Option) (*Engine, error) {
	if provider == nil || strategy == nil {
		return nil, errors.New("allocation: nil parameter provided to NewEngine")
	}
	e := &Engine{weather: provider, strategy: strategy, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Weather returns the current weather with overrides merged into its settings.
func (e *Engine) Weather(ctx context.Context, overrides model.Thresholds) (model.WeatherState, error) {
	ws, err := e.weather.Current(ctx)
	if err != nil {
		return model.WeatherState{}, fmt.Errorf("weather: %w", err)
	}
	return ws.WithOverrides(overrides), nil
}

// Run executes one allocation run. Rejected ships are part of the result; an
// error is only returned when no strategy could run at all. Weather that
// closes the port rejects every ship without calling the strategy.
func (e *Engine) Run(ctx context.Context, in RunInput) (Result, error) {
	started := time.Now()
	ws, err := e.Weather(ctx, in.Overrides)
	if err != nil {
		return Result{}, err
	}
	goal := in.Goal
	if goal == "" {
		goal = model.GoalBalanced
	}
	res, closed := WeatherClosed(in.Ships, ws)
	if closed {
		res.Strategy = WeatherGateStrategy
	} else {
		res, err = e.strategy.Allocate(ctx, Request{
			Ships:    in.Ships,
			Docks:    in.Docks,
			Existing: in.Existing,
			Goal:     goal,
			Weather:  ws,
		})
		if err != nil {
			return Result{}, fmt.Errorf("allocation: %w", err)
		}
	}
	res.Weather = ws
	if res.Allocations == nil {
		res.Allocations = []model.Allocation{}
	}
	if res.Unassigned == nil {
		res.Unassigned = []Unassigned{}
	}
	elapsed := time.Since(started)
	runDuration.WithLabelValues(res.Strategy).Observe(elapsed.Seconds())

	runID := uuid.NewString()
	now := e.now()
	if e.log != nil {
		e.log.Infof("run %s via %s: %d allocated, %d unassigned, weather warning %t",
			runID, res.Strategy, len(res.Allocations), len(res.Unassigned), res.WeatherWarning)
	}
	e.publish(ws, res, runID, goal, elapsed, now)
	e.record(ctx, in, res, runID, goal, now)
	return res, nil
}

func (e *Engine) publish(ws model.WeatherState, res Result, runID string, goal model.OptimizationGoal, elapsed time.Duration, now time.Time) {
	if e.bus == nil {
		return
	}
	reasons := make(map[string]int)
	for _, u := range res.Unassigned {
		code := u.Code
		if code == "" {
			code = CodeOptimizer
		}
		reasons[code]++
	}
	e.bus.Publish(events.WeatherEvent{State: ws, Time: now})
	e.bus.Publish(events.RunEvent{
		RunID:          runID,
		Strategy:       res.Strategy,
		Goal:           goal,
		Allocated:      len(res.Allocations),
		Unassigned:     reasons,
		Utilization:    res.Metrics.DockUtilization,
		WaitingMinutes: res.Metrics.TotalWaitingTime,
		Conflicts:      res.Metrics.Conflicts,
		WeatherWarning: res.WeatherWarning,
		Duration:       elapsed,
		Time:           now,
	})
}

func (e *Engine) record(ctx context.Context, in RunInput, res Result, runID string, goal model.OptimizationGoal, now time.Time) {
	if e.store == nil {
		return
	}
	ids := make([]string, 0, len(in.Ships))
	for _, s := range in.Ships {
		ids = append(ids, s.ID)
	}
	lr := runlog.Result{
		Allocations:      res.Allocations,
		Unassigned:       make([]runlog.Rejection, 0, len(res.Unassigned)),
		TotalWaitingTime: res.Metrics.TotalWaitingTime,
		DockUtilization:  res.Metrics.DockUtilization,
		Conflicts:        res.Metrics.Conflicts,
		WeatherWarning:   res.WeatherWarning,
		TideLevel:        res.Weather.Tide.Current,
		WindSpeed:        res.Weather.Wind.Speed,
	}
	for _, u := range res.Unassigned {
		lr.Unassigned = append(lr.Unassigned, runlog.Rejection{ShipID: u.Ship.ID, Reason: u.Reason})
	}
	if err := e.store.Append(ctx, runlog.LogRecord{
		RunID:           runID,
		Timestamp:       now,
		Goal:            goal,
		Strategy:        res.Strategy,
		ShipsConsidered: ids,
		Result:          lr,
	}); err != nil {
		coremon.CaptureException(fmt.Errorf("run log append: %w", err), map[string]string{"component": "runlog"})
		if e.log != nil {
			e.log.Errorf("run log append: %v", err)
		}
	}
}
