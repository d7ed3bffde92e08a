package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/repository"
)

// currentDocks returns docks with occupancy derived from the stored
// allocations at the current time.
func (h *handlers) currentDocks(ctx context.Context) ([]model.Dock, []model.Allocation, error) {
	docks, err := h.repo.Docks(ctx)
	if err != nil {
		return nil, nil, err
	}
	allocs, err := h.repo.Allocations(ctx)
	if err != nil {
		return nil, nil, err
	}
	return allocation.DeriveDockOccupancy(docks, allocs, h.now()), allocs, nil
}

func (h *handlers) currentDock(ctx context.Context, id string) (model.Dock, error) {
	docks, _, err := h.currentDocks(ctx)
	if err != nil {
		return model.Dock{}, err
	}
	for _, d := range docks {
		if d.ID == id {
			return d, nil
		}
	}
	return model.Dock{}, fmt.Errorf("dock %s: %w", id, repository.ErrNotFound)
}

func registerDocks(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-docks",
		Method:      http.MethodGet,
		Path:        "/docks",
		Summary:     "List docks with their current occupancy",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []model.Dock `json:"body"`
	}, error) {
		docks, _, err := h.currentDocks(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []model.Dock `json:"body"`
		}{Body: docks}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-dock",
		Method:        http.MethodPost,
		Path:          "/docks",
		Summary:       "Create dock",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		Body DockRequest `json:"body"`
	}) (*struct {
		Body model.Dock `json:"body"`
	}, error) {
		d := input.Body.dock(input.Body.ID)
		if err := d.Validate(); err != nil {
			return nil, badRequest(err)
		}
		stored, err := h.repo.AddDock(ctx, d)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Dock `json:"body"`
		}{Body: stored}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-dock",
		Method:      http.MethodGet,
		Path:        "/docks/{id}",
		Summary:     "Get dock",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body model.Dock `json:"body"`
	}, error) {
		d, err := h.currentDock(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Dock `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-dock",
		Method:      http.MethodPut,
		Path:        "/docks/{id}",
		Summary:     "Replace dock",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body DockRequest `json:"body"`
	}) (*struct {
		Body model.Dock `json:"body"`
	}, error) {
		d := input.Body.dock(input.ID)
		if err := d.Validate(); err != nil {
			return nil, badRequest(err)
		}
		current, err := h.repo.Dock(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		d.Occupied, d.OccupiedBy, d.OccupiedUntil = current.Occupied, current.OccupiedBy, current.OccupiedUntil
		if err := h.repo.UpdateDock(ctx, d); err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Dock `json:"body"`
		}{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-dock",
		Method:        http.MethodDelete,
		Path:          "/docks/{id}",
		Summary:       "Delete dock",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.repo.DeleteDock(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-dock-ships",
		Method:      http.MethodGet,
		Path:        "/docks/{id}/ships",
		Summary:     "Ships allocated to a dock",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body []DockShip `json:"body"`
	}, error) {
		if _, err := h.repo.Dock(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		allocs, err := h.repo.Allocations(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		out := []DockShip{}
		for _, a := range allocs {
			if a.DockID != input.ID {
				continue
			}
			s, err := h.repo.Ship(ctx, a.ShipID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				// deleted after allocation
				s = model.Ship{ID: a.ShipID}
			case err != nil:
				return nil, h.handleError(err)
			}
			out = append(out, DockShip{Ship: s, Allocation: a})
		}
		return &struct {
			Body []DockShip `json:"body"`
		}{Body: out}, nil
	})
}
