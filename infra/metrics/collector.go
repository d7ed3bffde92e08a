package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for events.
// It stops when the context is canceled. Sink errors are logged when log is
// not nil.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := dispatch(ev, sink); err != nil && log != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
}

func dispatch(ev any, sink coremetrics.MetricsSink) error {
	switch e := ev.(type) {
	case events.RunEvent:
		return sink.RecordAllocationRun(coremetrics.RunRecord{
			RunID:          e.RunID,
			Strategy:       e.Strategy,
			Goal:           e.Goal,
			Allocated:      e.Allocated,
			Unassigned:     e.Unassigned,
			Utilization:    e.Utilization,
			WaitingMinutes: e.WaitingMinutes,
			Conflicts:      e.Conflicts,
			WeatherWarning: e.WeatherWarning,
			Duration:       e.Duration,
			Time:           e.Time,
		})
	case events.WeatherEvent:
		if r, ok := sink.(coremetrics.WeatherRecorder); ok {
			return r.RecordWeather(coremetrics.SnapshotFromState(e.State, e.Time))
		}
	case events.StrategyEvent:
		if e.Action == "attempt" {
			return nil
		}
		if r, ok := sink.(coremetrics.FallbackRecorder); ok {
			reason := e.Action
			if e.Err != nil {
				reason += ": " + e.Err.Error()
			}
			return r.RecordFallback(coremetrics.FallbackEvent{Strategy: e.Strategy, Reason: reason, Time: time.Now()})
		}
	}
	return nil
}
