package weather

import (
	"context"
	"time"

	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
)

// Provider returns the current weather state for the yard.
type Provider interface {
	Current(ctx context.Context) (model.WeatherState, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (model.WeatherState, error)

// Current calls f.
func (f ProviderFunc) Current(ctx context.Context) (model.WeatherState, error) { return f(ctx) }

// StaticProvider always returns the same state.
type StaticProvider struct {
	State model.WeatherState
}

// Current returns a copy of the configured state with its window flags
// recomputed against the effective minimum.
func (p StaticProvider) Current(context.Context) (model.WeatherState, error) {
	st := p.State
	st.Tide.Windows = model.RecomputeWindows(st.Tide.Windows, st.Effective().MinTideLevel)
	return st, nil
}

// FallbackProvider wraps a feed and returns DefaultState when it fails.
type FallbackProvider struct {
	Feed     Provider
	Location string
	Log      logger.Logger
	Now      func() time.Time
}

// NewFallbackProvider returns a FallbackProvider for the given location.
func NewFallbackProvider(feed Provider, location string, log logger.Logger) *FallbackProvider {
	return &FallbackProvider{Feed: feed, Location: location, Log: log, Now: time.Now}
}

// Current never returns an error.
func (p *FallbackProvider) Current(ctx context.Context) (model.WeatherState, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if p.Feed == nil {
		return DefaultState(p.Location, now()), nil
	}
	st, err := p.Feed.Current(ctx)
	if err != nil {
		if p.Log != nil {
			p.Log.Warnf("weather feed unavailable, using default conditions: %v", err)
		}
		return DefaultState(p.Location, now()), nil
	}
	if st.Location == "" {
		st.Location = p.Location
	}
	st.Tide.Windows = model.RecomputeWindows(st.Tide.Windows, st.Effective().MinTideLevel)
	return st, nil
}
