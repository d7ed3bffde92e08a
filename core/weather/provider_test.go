package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/infra/logger"
)

func TestFallbackProvider_FeedError(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	feed := ProviderFunc(func(context.Context) (model.WeatherState, error) {
		return model.WeatherState{}, errors.New("unreachable")
	})
	p := NewFallbackProvider(feed, "Cartagena", logger.NopLogger{})
	p.Now = func() time.Time { return now }

	st, err := p.Current(context.Background())
	if err != nil {
		t.Fatalf("fallback must not error: %v", err)
	}
	want := DefaultState("Cartagena", now)
	if st.Tide.Current != want.Tide.Current || st.Wind.Speed != want.Wind.Speed {
		t.Fatalf("expected default state got %+v", st)
	}
	if len(st.Tide.Windows) != 4 || !st.Tide.Windows[0].Start.Equal(now.Truncate(time.Hour)) {
		t.Fatalf("unexpected windows %+v", st.Tide.Windows)
	}
}

func TestFallbackProvider_RecomputesFeedWindows(t *testing.T) {
	now := time.Now()
	feed := StaticProvider{State: model.WeatherState{
		Tide: model.Tide{Current: 4, Minimum: 3, Windows: []model.TideWindow{
			{Start: now, End: now.Add(time.Hour), Level: 2, IsSafe: true},
		}},
		Wind: model.Wind{Speed: 3, Maximum: 10},
	}}
	p := NewFallbackProvider(feed, "yard", nil)
	st, _ := p.Current(context.Background())
	if st.Tide.Windows[0].IsSafe {
		t.Fatalf("window flag must be recomputed")
	}
	if st.Location != "yard" {
		t.Fatalf("expected location to default to provider location")
	}
}

func TestDefaultState_IsSuitable(t *testing.T) {
	st := DefaultState("x", time.Now())
	eff := st.Effective()
	if st.Tide.Current < eff.MinTideLevel || st.Wind.Speed > eff.MaxWindSpeed {
		t.Fatalf("default conditions must be safe")
	}
}
