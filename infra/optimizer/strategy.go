package optimizer

import (
	"context"

	"github.com/kilianp07/berthplan/core/allocation"
)

// RemoteStrategy runs allocations on the remote optimizer.
type RemoteStrategy struct {
	client *Client
}

// NewRemoteStrategy wraps c.
func NewRemoteStrategy(c *Client) *RemoteStrategy {
	return &RemoteStrategy{client: c}
}

// Name implements allocation.Strategy.
func (s *RemoteStrategy) Name() string { return "remote" }

// Probe implements allocation.Prober.
func (s *RemoteStrategy) Probe(ctx context.Context) error { return s.client.Probe(ctx) }

// Allocate implements allocation.Strategy.
func (s *RemoteStrategy) Allocate(ctx context.Context, req allocation.Request) (allocation.Result, error) {
	res, err := s.client.Run(ctx, req)
	if err != nil {
		return allocation.Result{}, err
	}
	res.Strategy = s.Name()
	return res, nil
}
