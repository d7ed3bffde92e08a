package allocation

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/berthplan/core/compat"
	"github.com/kilianp07/berthplan/core/model"
)

// LocalStrategy is the greedy first-fit heuristic. It ignores the optimization
// goal, never errors and never blocks.
type LocalStrategy struct {
	now   func() time.Time
	newID func() string
}

// NewLocalStrategy returns a LocalStrategy using the wall clock and random UUIDs.
func NewLocalStrategy() *LocalStrategy {
	return &LocalStrategy{now: time.Now, newID: uuid.NewString}
}

// Name implements Strategy.
func (s *LocalStrategy) Name() string { return "local" }

// Allocate implements Strategy.
func (s *LocalStrategy) Allocate(_ context.Context, req Request) (Result, error) {
	if res, closed := WeatherClosed(req.Ships, req.Weather); closed {
		res.Strategy = s.Name()
		return res, nil
	}
	res := Result{
		Allocations: []model.Allocation{},
		Unassigned:  []Unassigned{},
		Weather:     req.Weather,
		Strategy:    s.Name(),
	}

	docks := OperationalDocks(req.Docks)
	ships := make(map[string]model.Ship, len(req.Ships))
	for _, sh := range req.Ships {
		ships[sh.ID] = sh
	}
	batch := append([]model.Allocation(nil), req.Existing...)
	created := s.now()

	for _, sh := range SortShips(req.Ships) {
		start, end := sh.ArrivalTime, sh.DepartureTime
		if compat.DoubleBooked(sh.ID, start, end, batch) {
			continue
		}
		if !compat.WindowSafe(req.Weather, start, end) {
			res.Unassigned = append(res.Unassigned, Unassigned{Ship: sh, Reason: UnsafeWindowReason(start, end), Code: CodeTideWindow})
			continue
		}
		if !compat.DurationValid(sh, start, end) {
			res.Unassigned = append(res.Unassigned, Unassigned{Ship: sh, Reason: ReasonInvalidTime, Code: CodeInvalidTime})
			continue
		}
		fit := compat.FitDocks(sh, docks)
		if len(fit) == 0 {
			res.Unassigned = append(res.Unassigned, Unassigned{Ship: sh, Reason: ReasonNoCompatible, Code: CodeNoCompatible})
			continue
		}
		placed := false
		for _, d := range fit {
			if !compat.SpaceAvailable(sh, d, start, end, batch, ships) {
				continue
			}
			a := model.Allocation{
				ID:        s.newID(),
				ShipID:    sh.ID,
				DockID:    d.ID,
				StartTime: start,
				EndTime:   end,
				Created:   created,
				Status:    model.StatusScheduled,
			}
			batch = append(batch, a)
			res.Allocations = append(res.Allocations, a)
			placed = true
			break
		}
		if !placed {
			res.Metrics.Conflicts++
			res.Unassigned = append(res.Unassigned, Unassigned{Ship: sh, Reason: ReasonNoSpace, Code: CodeNoSpace})
		}
	}

	conflicts := res.Metrics.Conflicts
	res.Metrics = Summarize(res.Allocations, req.Ships, docks)
	res.Metrics.Conflicts = conflicts
	return res, nil
}

// OperationalDocks returns the docks available for new allocations, in input order.
func OperationalDocks(docks []model.Dock) []model.Dock {
	out := make([]model.Dock, 0, len(docks))
	for _, d := range docks {
		if d.IsOperational() {
			out = append(out, d)
		}
	}
	return out
}

// SortShips returns a copy of ships ordered by priority, then arrival time.
// The order of otherwise equal ships is preserved.
func SortShips(ships []model.Ship) []model.Ship {
	out := append([]model.Ship(nil), ships...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ArrivalTime.Before(out[j].ArrivalTime)
	})
	return out
}

// Summarize computes utilization and waiting time for newly created
// allocations. Utilization is the allocated ship length over the total length
// of docks; waiting time sums, in minutes, how long each ship waits between
// arrival and berthing. Conflicts are left at zero.
func Summarize(allocs []model.Allocation, ships []model.Ship, docks []model.Dock) Metrics {
	var m Metrics
	byID := make(map[string]model.Ship, len(ships))
	for _, sh := range ships {
		byID[sh.ID] = sh
	}
	var capacity, used float64
	for _, d := range docks {
		capacity += d.Length
	}
	for _, a := range allocs {
		sh, ok := byID[a.ShipID]
		if !ok {
			continue
		}
		used += sh.Length
		if wait := a.StartTime.Sub(sh.ArrivalTime); wait > 0 {
			m.TotalWaitingTime += wait.Minutes()
		}
	}
	if capacity > 0 {
		m.DockUtilization = used / capacity
	}
	return m
}
