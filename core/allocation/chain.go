package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/berthplan/core/events"
	"github.com/kilianp07/berthplan/core/logger"
	"github.com/kilianp07/berthplan/internal/eventbus"
)

// FallbackChain tries its strategies in order. Strategies implementing Prober
// are probed right before use; an unavailable or failing strategy is skipped
// with a warning. The result of the last strategy is returned as is.
type FallbackChain struct {
	strategies []Strategy
	log        logger.Logger
	bus        eventbus.EventBus
}

// NewFallbackChain builds a chain. The last strategy should not fail; it is
// normally a LocalStrategy.
func NewFallbackChain(log logger.Logger, bus eventbus.EventBus, strategies ...Strategy) (*FallbackChain, error) {
	if len(strategies) == 0 {
		return nil, errors.New("allocation: fallback chain needs at least one strategy")
	}
	for i, s := range strategies {
		if s == nil {
			return nil, fmt.Errorf("allocation: strategy %d is nil", i)
		}
	}
	return &FallbackChain{strategies: strategies, log: log, bus: bus}, nil
}

// Name implements Strategy.
func (c *FallbackChain) Name() string { return "chain" }

// Strategies returns the chained strategies in order.
func (c *FallbackChain) Strategies() []Strategy {
	return append([]Strategy(nil), c.strategies...)
}

// Allocate implements Strategy.
func (c *FallbackChain) Allocate(ctx context.Context, req Request) (Result, error) {
	last := len(c.strategies) - 1
	for i, s := range c.strategies {
		if i == last {
			c.publish(events.StrategyEvent{Strategy: s.Name(), Action: "attempt"})
			strategyAttempts.WithLabelValues(s.Name()).Inc()
			return s.Allocate(ctx, req)
		}
		if p, ok := s.(Prober); ok {
			if err := p.Probe(ctx); err != nil {
				c.skip(s, "unavailable", err)
				continue
			}
		}
		c.publish(events.StrategyEvent{Strategy: s.Name(), Action: "attempt"})
		strategyAttempts.WithLabelValues(s.Name()).Inc()
		res, err := s.Allocate(ctx, req)
		if err == nil {
			return res, nil
		}
		c.skip(s, "failure", err)
	}
	// unreachable: the loop always returns on the last strategy
	return Result{}, errors.New("allocation: no strategy")
}

func (c *FallbackChain) skip(s Strategy, action string, err error) {
	if c.log != nil {
		c.log.Warnf("strategy %s %s, falling back: %v", s.Name(), action, err)
	}
	optimizerFallback.WithLabelValues(s.Name(), action).Inc()
	c.publish(events.StrategyEvent{Strategy: s.Name(), Action: action, Err: err})
}

func (c *FallbackChain) publish(ev events.StrategyEvent) {
	if c.bus != nil {
		c.bus.Publish(ev)
	}
}
