package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/core/repository"
)

// DefaultSchedule is the cron spec used when none is configured.
const DefaultSchedule = "@every 1m"

// Config controls the lifecycle job.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
}

// Validate checks the cron spec.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return fmt.Errorf("lifecycle: invalid schedule %q: %w", c.Schedule, err)
	}
	return nil
}

// Scheduler periodically advances allocation statuses and re-derives dock
// occupancy.
type Scheduler struct {
	repo repository.Repository
	log  logger.Logger
	now  func() time.Time
	spec string

	mu sync.Locker
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLocker makes Tick hold l, so passes never interleave with other writers
// of allocations and dock occupancy sharing the same lock.
func WithLocker(l sync.Locker) Option { return func(s *Scheduler) { s.mu = l } }

// NewScheduler returns a scheduler for repo.
func NewScheduler(cfg Config, repo repository.Repository, log logger.Logger, opts ...Option) (*Scheduler, error) {
	if repo == nil {
		return nil, errors.New("lifecycle: nil repository")
	}
	cfg.SetDefaults()
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("lifecycle: invalid schedule %q: %w", cfg.Schedule, err)
	}
	s := &Scheduler{repo: repo, log: log, now: time.Now, spec: cfg.Schedule, mu: &sync.Mutex{}}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Tick runs one pass and returns the number of allocations whose status
// changed.
func (s *Scheduler) Tick(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()

	allocs, err := s.repo.Allocations(ctx)
	if err != nil {
		return 0, fmt.Errorf("load allocations: %w", err)
	}
	all, changed := Advance(allocs, now)
	if len(changed) > 0 {
		if err := s.repo.SaveAllocations(ctx, changed); err != nil {
			return 0, fmt.Errorf("save allocations: %w", err)
		}
	}
	docks, err := s.repo.Docks(ctx)
	if err != nil {
		return 0, fmt.Errorf("load docks: %w", err)
	}
	if err := s.repo.SaveOccupancy(ctx, allocation.DeriveDockOccupancy(docks, all, now)); err != nil {
		return 0, fmt.Errorf("save dock occupancy: %w", err)
	}
	return len(changed), nil
}

// Run schedules Tick on the cron spec and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		n, err := s.Tick(ctx)
		if s.log == nil {
			return
		}
		if err != nil {
			s.log.Errorf("lifecycle tick: %v", err)
			return
		}
		if n > 0 {
			s.log.Infof("lifecycle: %d allocation(s) changed status", n)
		}
	})
	if err != nil {
		return fmt.Errorf("lifecycle: schedule %q: %w", s.spec, err)
	}
	c.Start()
	if s.log != nil {
		s.log.Infof("lifecycle scheduler started (%s)", s.spec)
	}
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
