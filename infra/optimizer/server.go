package optimizer

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/model"
)

// Server exposes the allocation model over HTTP.
type Server struct {
	addr     string
	path     string
	solver   *Solver
	log      logger.Logger
	srv      *http.Server
	requests *prometheus.CounterVec
}

// NewServer creates a server and registers its metrics on reg. If reg is nil
// the default registerer is used.
func NewServer(cfg Config, log logger.Logger, reg prometheus.Registerer) *Server {
	cfg.SetDefaults()
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimizer_requests_total",
		Help: "Allocation model requests by outcome",
	}, []string{"outcome"})
	if err := reg.Register(requests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if exist, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				requests = exist
			} else if log != nil {
				log.Errorf("existing collector for optimizer_requests_total has wrong type %T", are.ExistingCollector)
			}
		}
	}
	return &Server{
		addr:     cfg.ListenAddr,
		path:     cfg.Path,
		solver:   NewSolver(),
		log:      log,
		requests: requests,
	}
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post(s.path, s.handleAllocate)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var p requestPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.requests.WithLabelValues("bad_request").Inc()
		writeJSON(w, http.StatusBadRequest, responsePayload{Error: "invalid payload: " + err.Error()})
		return
	}
	if p.isProbe() {
		s.requests.WithLabelValues("probe").Inc()
		writeJSON(w, http.StatusOK, fromResult(allocation.Result{}))
		return
	}
	req := allocation.Request{
		Ships:    p.Ships,
		Docks:    p.Docks,
		Existing: p.ExistingAllocations,
		Goal:     p.OptimizationCriteria,
	}
	if req.Goal == "" {
		req.Goal = model.GoalBalanced
	}
	if p.WeatherData != nil {
		req.Weather = *p.WeatherData
	}
	res, err := s.solver.Solve(req)
	if err != nil {
		s.requests.WithLabelValues("error").Inc()
		if s.log != nil {
			s.log.Errorf("solve: %v", err)
		}
		writeJSON(w, http.StatusInternalServerError, responsePayload{Error: err.Error()})
		return
	}
	s.requests.WithLabelValues("ok").Inc()
	if s.log != nil {
		s.log.Infof("solved %s: %d allocated, %d unassigned", req.Goal, len(res.Allocations), len(res.Unassigned))
	}
	writeJSON(w, http.StatusOK, fromResult(res))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Addr returns the listening address once Start has been called.
func (s *Server) Addr() string { return s.addr }

// Start runs the HTTP server until the context is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr().String()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil && s.log != nil {
			s.log.Errorf("shutdown server: %v", err)
		}
		cancel()
	}()
	if s.log != nil {
		s.log.Infof("allocation model listening on %s%s", s.addr, s.path)
	}
	err = s.srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
