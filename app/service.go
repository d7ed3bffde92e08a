package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/berthplan/api"
	"github.com/kilianp07/berthplan/config"
	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/lifecycle"
	coremetrics "github.com/kilianp07/berthplan/core/metrics"
	"github.com/kilianp07/berthplan/core/model"
	coremon "github.com/kilianp07/berthplan/core/monitoring"
	"github.com/kilianp07/berthplan/core/notify"
	"github.com/kilianp07/berthplan/core/repository"
	"github.com/kilianp07/berthplan/core/runlog"
	"github.com/kilianp07/berthplan/core/weather"
	"github.com/kilianp07/berthplan/infra/logger"
	"github.com/kilianp07/berthplan/infra/metrics"
	"github.com/kilianp07/berthplan/infra/monitoring"
	"github.com/kilianp07/berthplan/infra/mqtt"
	"github.com/kilianp07/berthplan/infra/optimizer"
	"github.com/kilianp07/berthplan/infra/store"
	"github.com/kilianp07/berthplan/infra/weatherfeed"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// ErrRunInProgress is returned by RunAllocation while another run is in flight.
var ErrRunInProgress = allocation.ErrRunInProgress

// Service wires the repository, the allocation engine and its surroundings.
type Service struct {
	cfg       *config.Config
	repo      repository.Repository
	engine    *allocation.Engine
	runs      runlog.LogStore
	notifier  notify.Notifier
	bus       *eventbus.Bus
	sink      coremetrics.MetricsSink
	lifecycle *lifecycle.Scheduler
	optimizer *optimizer.Client
	handler   http.Handler
	log       logger.Logger
	now       func() time.Time
	// thresholds configured statically; request overrides win over them.
	thresholds model.Thresholds

	mu      sync.Mutex
	closers []func() error
}

// Option customises a Service.
type Option func(*options)

type options struct {
	repo     repository.Repository
	notifier notify.Notifier
	provider weather.Provider
	now      func() time.Time
}

// WithRepository uses repo instead of the configured store.
func WithRepository(repo repository.Repository) Option { return func(o *options) { o.repo = repo } }

// WithNotifier replaces the configured notifier.
func WithNotifier(n notify.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithWeatherProvider replaces the configured weather source.
func WithWeatherProvider(p weather.Provider) Option { return func(o *options) { o.provider = p } }

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logFile, err := logger.Configure(logger.Options{
		Format:    cfg.Logging.Format,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
	})
	if err != nil {
		return nil, err
	}
	log := logger.New("service")
	s := &Service{
		cfg:        cfg,
		log:        log,
		now:        o.now,
		bus:        eventbus.New(eventbus.WithBuffer(64)),
		thresholds: cfg.Weather.Thresholds(),
		closers:    []func() error{logFile.Close},
	}
	if err := s.build(o); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) build(o options) error {
	cfg := s.cfg
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if s.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks); err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		s.closers = append(s.closers, func() error { c.Close(); return nil })
	}

	s.repo = o.repo
	if s.repo == nil {
		if s.repo, err = store.Open(cfg.Store); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		s.closers = append(s.closers, s.repo.Close)
	}
	if cfg.Store.Seed {
		if err := s.seed(cfg.Store.SeedFile); err != nil {
			return err
		}
	}

	if s.runs, err = runlog.Open(cfg.RunLog); err != nil {
		return fmt.Errorf("run log: %w", err)
	}
	s.closers = append(s.closers, s.runs.Close)

	provider := o.provider
	if provider == nil {
		provider = s.weatherProvider()
	}

	strategies := []allocation.Strategy{}
	if cfg.Optimizer.Enabled {
		if s.optimizer, err = optimizer.NewClient(cfg.Optimizer, nil, logger.New("optimizer")); err != nil {
			return fmt.Errorf("optimizer client: %w", err)
		}
		strategies = append(strategies, optimizer.NewRemoteStrategy(s.optimizer))
	}
	strategies = append(strategies, allocation.NewLocalStrategy())
	chain, err := allocation.NewFallbackChain(logger.New("strategy"), s.bus, strategies...)
	if err != nil {
		return err
	}
	s.engine, err = allocation.NewEngine(provider, chain,
		allocation.WithLogger(logger.New("allocation")),
		allocation.WithEventBus(s.bus),
		allocation.WithLogStore(s.runs),
		allocation.WithClock(s.now),
	)
	if err != nil {
		return err
	}

	s.notifier = o.notifier
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
		if cfg.MQTT.Enabled {
			n, err := mqtt.NewNotifier(cfg.MQTT)
			if err != nil {
				return fmt.Errorf("mqtt notifier: %w", err)
			}
			s.notifier = n
			s.closers = append(s.closers, func() error { n.Disconnect(); return nil })
		}
	}

	if cfg.Lifecycle.Enabled {
		if s.lifecycle, err = lifecycle.NewScheduler(cfg.Lifecycle, s.repo, logger.New("lifecycle"),
			lifecycle.WithLocker(&s.mu)); err != nil {
			return err
		}
	}

	apiCfg := api.Config{
		Repo:     s.repo,
		Runner:   s,
		Weather:  s,
		Runs:     s.runs,
		Log:      logger.New("api"),
		Token:    cfg.Server.Token,
		BasePath: cfg.Server.BasePath,
		Now:      s.now,
	}
	if s.optimizer != nil {
		apiCfg.Optimizer = s.optimizer
	}
	s.handler, err = api.New(apiCfg)
	return err
}

func (s *Service) seed(path string) error {
	seed, err := store.LoadSeed(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	applied, err := seed.Apply(context.Background(), s.repo, s.now())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if applied {
		s.log.Infof("seeded %d docks and %d ships", len(seed.Docks), len(seed.Ships))
	}
	return nil
}

func (s *Service) weatherProvider() weather.Provider {
	wc := s.cfg.Weather
	var feed weather.Provider
	if wc.URL != "" {
		feed = weatherfeed.NewClient(wc)
	}
	p := weather.NewFallbackProvider(feed, wc.Location, logger.New("weather"))
	p.Now = s.now
	return p
}

// Handler returns the HTTP API handler.
func (s *Service) Handler() http.Handler { return s.handler }

// Repository returns the repository the service works on.
func (s *Service) Repository() repository.Repository { return s.repo }

// effective merges request overrides over the configured thresholds.
func (s *Service) effective(o model.Thresholds) model.Thresholds {
	t := s.thresholds
	if o.MaxWindSpeed > 0 {
		t.MaxWindSpeed = o.MaxWindSpeed
	}
	if o.MinTideLevel > 0 {
		t.MinTideLevel = o.MinTideLevel
	}
	return t
}

// Weather returns the current conditions with overrides applied.
func (s *Service) Weather(ctx context.Context, overrides model.Thresholds) (model.WeatherState, error) {
	return s.engine.Weather(ctx, s.effective(overrides))
}

// RunAllocation allocates every pending ship, persists the new allocations,
// refreshes dock occupancy and notifies subscribers. Only one run executes at
// a time; concurrent callers, and callers arriving during a lifecycle pass,
// get ErrRunInProgress.
func (s *Service) RunAllocation(ctx context.Context, goal model.OptimizationGoal, overrides model.Thresholds) (allocation.Result, error) {
	if !s.mu.TryLock() {
		return allocation.Result{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	ships, err := s.repo.Ships(ctx)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("load ships: %w", err)
	}
	docks, err := s.repo.Docks(ctx)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("load docks: %w", err)
	}
	existing, err := s.repo.Allocations(ctx)
	if err != nil {
		return allocation.Result{}, fmt.Errorf("load allocations: %w", err)
	}

	res, err := s.engine.Run(ctx, allocation.RunInput{
		Ships:     ships,
		Docks:     docks,
		Existing:  existing,
		Goal:      goal,
		Overrides: s.effective(overrides),
	})
	if err != nil {
		coremon.CaptureException(err, map[string]string{"component": "allocation"})
		return allocation.Result{}, err
	}
	if len(res.Allocations) == 0 {
		return res, nil
	}

	if err := s.repo.AddAllocations(ctx, res.Allocations); err != nil {
		err = fmt.Errorf("persist allocations: %w", err)
		coremon.CaptureException(err, map[string]string{"component": "repository"})
		return allocation.Result{}, err
	}
	all := append(existing, res.Allocations...)
	if err := s.repo.SaveOccupancy(ctx, allocation.DeriveDockOccupancy(docks, all, s.now())); err != nil {
		err = fmt.Errorf("save dock occupancy: %w", err)
		coremon.CaptureException(err, map[string]string{"component": "repository"})
		return allocation.Result{}, err
	}
	if err := s.notifier.NotifyAllocations(ctx, res.Allocations); err != nil {
		s.log.Warnf("notify allocations: %v", err)
	}
	return res, nil
}

// Run starts the HTTP API, the metrics endpoint, the event collector and the
// lifecycle scheduler, and blocks until ctx is cancelled or a server fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics.StartEventCollector(ctx, s.bus, s.sink, logger.New("metrics"))

	errCh := make(chan error, 3)
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.log.Infof("api listening on %s%s", s.cfg.Server.Addr, s.cfg.Server.BasePath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr, nil, logger.New("metrics")); err != nil {
				errCh <- fmt.Errorf("prom server: %w", err)
			}
		}()
	}
	if s.lifecycle != nil {
		if _, err := s.lifecycle.Tick(ctx); err != nil {
			s.log.Warnf("lifecycle: %v", err)
		}
		go func() {
			if err := s.lifecycle.Run(ctx); err != nil {
				errCh <- err
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		coremon.CaptureException(runErr, map[string]string{"component": "service"})
	}
	shutdownCtx, stop := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("api shutdown: %v", err)
	}
	return runErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	s.bus.Close()
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}
