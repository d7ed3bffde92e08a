package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/lifecycle"
	"github.com/kilianp07/berthplan/core/model"
)

func registerAllocations(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-allocations",
		Method:      http.MethodGet,
		Path:        "/allocations",
		Summary:     "List allocations",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []model.Allocation `json:"body"`
	}, error) {
		allocs, err := h.repo.Allocations(ctx)
		if err != nil {
			return nil, h.handleError(err)
		}
		all, _ := lifecycle.Advance(allocs, h.now())
		return &struct {
			Body []model.Allocation `json:"body"`
		}{Body: all}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-allocation",
		Method:        http.MethodDelete,
		Path:          "/allocations/{id}",
		Summary:       "Cancel allocation",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *idPath) (*struct{}, error) {
		if err := h.repo.DeleteAllocation(ctx, input.ID); err != nil {
			return nil, h.handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-allocation",
		Method:      http.MethodPost,
		Path:        "/allocations/run",
		Summary:     "Allocate pending ships to docks",
		Errors:      []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body RunRequest `json:"body"`
	}) (*struct {
		Body allocation.Result `json:"body"`
	}, error) {
		goal, err := model.ParseGoal(input.Body.Goal)
		if err != nil {
			return nil, badRequest(err)
		}
		res, err := h.runner.RunAllocation(ctx, goal, input.Body.Overrides.thresholds())
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body allocation.Result `json:"body"`
		}{Body: res}, nil
	})
}

func registerWeather(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "get-weather",
		Method:      http.MethodGet,
		Path:        "/weather",
		Summary:     "Current weather with effective thresholds",
	}, func(ctx context.Context, input *struct {
		MaxWindSpeed float64 `query:"maxWindSpeed" minimum:"0" doc:"Override of the wind limit in knots"`
		MinTideLevel float64 `query:"minTideLevel" minimum:"0" doc:"Override of the tide minimum in meters"`
	}) (*struct {
		Body model.WeatherState `json:"body"`
	}, error) {
		ws, err := h.weather.Weather(ctx, model.Thresholds{
			MaxWindSpeed: input.MaxWindSpeed,
			MinTideLevel: input.MinTideLevel,
		})
		if err != nil {
			return nil, h.handleError(err)
		}
		return &struct {
			Body model.WeatherState `json:"body"`
		}{Body: ws}, nil
	})
}
