// Package notify announces new allocations to downstream systems.
package notify

import (
	"context"
	"sync"

	"github.com/kilianp07/berthplan/core/model"
)

// Notifier publishes allocations produced by a run.
type Notifier interface {
	NotifyAllocations(ctx context.Context, allocs []model.Allocation) error
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) NotifyAllocations(context.Context, []model.Allocation) error { return nil }

// MemoryNotifier keeps notified allocations in memory.
type MemoryNotifier struct {
	mu      sync.Mutex
	batches [][]model.Allocation
	// Err, when set, is returned by NotifyAllocations.
	Err error
}

// NotifyAllocations records a copy of allocs.
func (m *MemoryNotifier) NotifyAllocations(_ context.Context, allocs []model.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.batches = append(m.batches, append([]model.Allocation(nil), allocs...))
	return nil
}

// Batches returns the recorded batches.
func (m *MemoryNotifier) Batches() [][]model.Allocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.Allocation(nil), m.batches...)
}

// Allocations returns every recorded allocation in notification order.
func (m *MemoryNotifier) Allocations() []model.Allocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Allocation
	for _, b := range m.batches {
		out = append(out, b...)
	}
	return out
}
