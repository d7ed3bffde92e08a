// Package api exposes the berth planning service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/repository"
	"github.com/kilianp07/berthplan/core/runlog"
)

// Runner executes allocation runs. Implementations return
// allocation.ErrRunInProgress when a run is already in flight.
type Runner interface {
	RunAllocation(ctx context.Context, goal model.OptimizationGoal, overrides model.Thresholds) (allocation.Result, error)
}

// WeatherSource returns the current weather merged with overrides.
type WeatherSource interface {
	Weather(ctx context.Context, overrides model.Thresholds) (model.WeatherState, error)
}

// Config for the HTTP API handler.
type Config struct {
	Repo    repository.Repository
	Runner  Runner
	Weather WeatherSource
	// Optimizer is nil when no remote optimizer is configured.
	Optimizer allocation.Prober
	Runs      runlog.LogStore
	Log       logger.Logger
	// Token, when set, is required as a bearer token on every route but /health.
	Token    string
	BasePath string
	Now      func() time.Time
}

type apiErrorBody struct {
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"ship s9: not found"`
}

// apiError is the {error:{code,message}} envelope returned on failure.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

type handlers struct {
	repo      repository.Repository
	runner    Runner
	weather   WeatherSource
	optimizer allocation.Prober
	runs      runlog.LogStore
	log       logger.Logger
	now       func() time.Time
}

// New returns an HTTP handler exposing the berthplan API.
func New(cfg Config) (http.Handler, error) {
	if cfg.Repo == nil || cfg.Runner == nil || cfg.Weather == nil {
		return nil, errors.New("api: repository, runner and weather source are required")
	}
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	h := &handlers{
		repo:      cfg.Repo,
		runner:    cfg.Runner,
		weather:   cfg.Weather,
		optimizer: cfg.Optimizer,
		runs:      cfg.Runs,
		log:       cfg.Log,
		now:       cfg.Now,
	}
	if h.runs == nil {
		h.runs = runlog.NopStore{}
	}
	if h.now == nil {
		h.now = time.Now
	}

	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		if len(errs) > 0 {
			details := make([]string, 0, len(errs))
			for _, e := range errs {
				details = append(details, e.Error())
			}
			msg += ": " + strings.Join(details, "; ")
		}
		return newAPIError(status, "", msg)
	}

	router := chi.NewRouter()
	router.Use(bearerAuth(basePath, cfg.Token))
	hcfg := huma.DefaultConfig("Berthplan API", "1.0.0")
	hcfg.OpenAPIPath = basePath + "/openapi"
	hcfg.DocsPath = ""
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerHealth(group, h)
	registerShips(group, h)
	registerDocks(group, h)
	registerAllocations(group, h)
	registerWeather(group, h)
	registerRuns(group, h)
	registerDashboard(group, h)
	return router, nil
}

// bearerAuth rejects requests without "Bearer <token>" when token is non-empty.
func bearerAuth(basePath, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == basePath+"/health" || r.Header.Get("Authorization") == "Bearer "+token {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing or invalid bearer token"}}`))
		})
	}
}

func newAPIError(status int, code, message string) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{status: status, Body: apiErrorBody{Code: code, Message: message}}
}

func badRequest(err error) huma.StatusError {
	return newAPIError(http.StatusBadRequest, "bad_request", err.Error())
}

func (h *handlers) handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrExists):
		return newAPIError(http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, allocation.ErrRunInProgress):
		return newAPIError(http.StatusConflict, "run_in_progress", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newAPIError(http.StatusGatewayTimeout, "timeout", err.Error())
	}
	if h.log != nil {
		h.log.Errorf("request failed: %v", err)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error")
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "optimizer-status",
		Method:      http.MethodGet,
		Path:        "/optimizer/status",
		Summary:     "Remote optimizer availability",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body OptimizerStatus `json:"body"`
	}, error) {
		st := OptimizerStatus{CheckedAt: h.now().UTC()}
		if h.optimizer != nil {
			st.Enabled = true
			if err := h.optimizer.Probe(ctx); err != nil {
				st.Error = err.Error()
			} else {
				st.Available = true
			}
		}
		return &struct {
			Body OptimizerStatus `json:"body"`
		}{Body: st}, nil
	})
}
