package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kilianp07/berthplan/core/lifecycle"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/runlog"
)

type runsQuery struct {
	Start    string `query:"start" doc:"RFC3339 lower bound"`
	End      string `query:"end" doc:"RFC3339 upper bound"`
	ShipID   string `query:"ship_id"`
	DockID   string `query:"dock_id"`
	Strategy string `query:"strategy"`
	Limit    int    `query:"limit" minimum:"0" doc:"Keep only the most recent records"`
}

func (q runsQuery) logQuery() (runlog.LogQuery, error) {
	lq := runlog.LogQuery{ShipID: q.ShipID, DockID: q.DockID, Strategy: q.Strategy, Limit: q.Limit}
	var err error
	if q.Start != "" {
		if lq.Start, err = time.Parse(time.RFC3339, q.Start); err != nil {
			return lq, fmt.Errorf("start: %w", err)
		}
	}
	if q.End != "" {
		if lq.End, err = time.Parse(time.RFC3339, q.End); err != nil {
			return lq, fmt.Errorf("end: %w", err)
		}
	}
	return lq, nil
}

func registerRuns(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "Allocation run history",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *runsQuery) (*struct {
		Body []runlog.LogRecord `json:"body"`
	}, error) {
		q, err := input.logQuery()
		if err != nil {
			return nil, badRequest(err)
		}
		recs, err := h.runs.Query(ctx, q)
		if err != nil {
			return nil, h.handleError(err)
		}
		if recs == nil {
			recs = []runlog.LogRecord{}
		}
		return &struct {
			Body []runlog.LogRecord `json:"body"`
		}{Body: recs}, nil
	})
}

func registerDashboard(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "dashboard",
		Method:      http.MethodGet,
		Path:        "/dashboard",
		Summary:     "Yard summary counters",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body Dashboard `json:"body"`
	}, error) {
		ships, err := h.repo.Ships(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		docks, allocs, err := h.currentDocks(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body Dashboard `json:"body"`
		}{Body: summarize(ships, docks, allocs, h.now())}, nil
	})
}

// summarize counts docks that are operational and free, allocations that
// have not completed, and ships with no allocation at all.
func summarize(ships []model.Ship, docks []model.Dock, allocs []model.Allocation, now time.Time) Dashboard {
	d := Dashboard{
		Ships:        len(ships),
		Docks:        len(docks),
		Allocations:  len(allocs),
		PendingShips: []model.Ship{},
	}
	for _, dk := range docks {
		if dk.IsOperational() && !dk.Occupied {
			d.DocksAvailable++
		}
	}
	allocated := make(map[string]bool, len(allocs))
	for _, a := range allocs {
		allocated[a.ShipID] = true
		if lifecycle.StatusAt(a, now) != model.StatusCompleted {
			d.ActiveAllocations++
		}
	}
	for _, s := range ships {
		if !allocated[s.ID] {
			d.PendingShips = append(d.PendingShips, s)
		}
	}
	return d
}
