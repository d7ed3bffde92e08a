package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kilianp07/berthplan/core/model"
)

type idPath struct {
	ID string `path:"id"`
}

func registerShips(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-ships",
		Method:      http.MethodGet,
		Path:        "/ships",
		Summary:     "List ships",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []model.Ship `json:"body"`
	}, error) {
		ships, err := h.repo.Ships(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body []model.Ship `json:"body"`
		}{Body: ships}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-ship",
		Method:        http.MethodPost,
		Path:          "/ships",
		Summary:       "Create ship",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body ShipRequest `json:"body"`
	}) (*struct {
		Body model.Ship `json:"body"`
	}, error) {
		draft := input.Body.ship("")
		if err := draft.Validate(); err != nil {
			return nil, badRequest(err)
		}
		s, err := h.repo.AddShip(ctx, draft)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Ship `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-ship",
		Method:      http.MethodGet,
		Path:        "/ships/{id}",
		Summary:     "Get ship",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct {
		Body model.Ship `json:"body"`
	}, error) {
		s, err := h.repo.Ship(ctx, input.ID)
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Ship `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-ship",
		Method:      http.MethodPut,
		Path:        "/ships/{id}",
		Summary:     "Replace ship",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   string      `path:"id"`
		Body ShipRequest `json:"body"`
	}) (*struct {
		Body model.Ship `json:"body"`
	}, error) {
		s := input.Body.ship(input.ID)
		if err := s.Validate(); err != nil {
			return nil, badRequest(err)
		}
		if err := h.repo.UpdateShip(ctx, s); err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.Ship `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-ship",
		Method:        http.MethodDelete,
		Path:          "/ships/{id}",
		Summary:       "Delete ship",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.repo.DeleteShip(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})
}
