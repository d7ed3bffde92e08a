package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kilianp07/berthplan/core/model"
)

// ordered is an insertion ordered map.
type ordered[T any] struct {
	keys []string
	data map[string]T
}

func newOrdered[T any]() ordered[T] {
	return ordered[T]{data: map[string]T{}}
}

func (o *ordered[T]) put(id string, v T) {
	if _, ok := o.data[id]; !ok {
		o.keys = append(o.keys, id)
	}
	o.data[id] = v
}

func (o *ordered[T]) remove(id string) bool {
	if _, ok := o.data[id]; !ok {
		return false
	}
	delete(o.data, id)
	for i, k := range o.keys {
		if k == id {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

func (o *ordered[T]) list() []T {
	out := make([]T, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.data[k])
	}
	return out
}

// MemoryRepository keeps everything in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	ships  ordered[model.Ship]
	docks  ordered[model.Dock]
	allocs ordered[model.Allocation]
	newID  func() string
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		ships:  newOrdered[model.Ship](),
		docks:  newOrdered[model.Dock](),
		allocs: newOrdered[model.Allocation](),
		newID:  uuid.NewString,
	}
}

func (r *MemoryRepository) Ships(context.Context) ([]model.Ship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ships.list(), nil
}

func (r *MemoryRepository) Ship(_ context.Context, id string) (model.Ship, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.ships.data[id]
	if !ok {
		return model.Ship{}, fmt.Errorf("ship %s: %w", id, ErrNotFound)
	}
	return s, nil
}

func (r *MemoryRepository) AddShip(_ context.Context, draft model.Ship) (model.Ship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	draft.ID = r.newID()
	r.ships.put(draft.ID, draft)
	return draft, nil
}

func (r *MemoryRepository) UpdateShip(_ context.Context, s model.Ship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ships.data[s.ID]; !ok {
		return fmt.Errorf("ship %s: %w", s.ID, ErrNotFound)
	}
	r.ships.put(s.ID, s)
	return nil
}

func (r *MemoryRepository) DeleteShip(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.ships.remove(id) {
		return fmt.Errorf("ship %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MemoryRepository) SaveShips(_ context.Context, ships []model.Ship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range ships {
		r.ships.put(s.ID, s)
	}
	return nil
}

func (r *MemoryRepository) Docks(context.Context) ([]model.Dock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docks.list(), nil
}

func (r *MemoryRepository) Dock(_ context.Context, id string) (model.Dock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.docks.data[id]
	if !ok {
		return model.Dock{}, fmt.Errorf("dock %s: %w", id, ErrNotFound)
	}
	return d, nil
}

func (r *MemoryRepository) AddDock(_ context.Context, d model.Dock) (model.Dock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == "" {
		d.ID = r.newID()
	}
	if _, ok := r.docks.data[d.ID]; ok {
		return model.Dock{}, fmt.Errorf("dock %s: %w", d.ID, ErrExists)
	}
	r.docks.put(d.ID, d)
	return d, nil
}

func (r *MemoryRepository) UpdateDock(_ context.Context, d model.Dock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docks.data[d.ID]; !ok {
		return fmt.Errorf("dock %s: %w", d.ID, ErrNotFound)
	}
	r.docks.put(d.ID, d)
	return nil
}

func (r *MemoryRepository) DeleteDock(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.docks.remove(id) {
		return fmt.Errorf("dock %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MemoryRepository) SaveDocks(_ context.Context, docks []model.Dock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docks {
		r.docks.put(d.ID, d)
	}
	return nil
}

func (r *MemoryRepository) SaveOccupancy(_ context.Context, docks []model.Dock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range docks {
		if cur, ok := r.docks.data[d.ID]; ok {
			r.docks.data[d.ID] = cur.WithOccupancy(d)
		}
	}
	return nil
}

func (r *MemoryRepository) Allocations(context.Context) ([]model.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocs.list(), nil
}

func (r *MemoryRepository) AddAllocations(_ context.Context, allocs []model.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range allocs {
		if _, ok := r.allocs.data[a.ID]; ok {
			return fmt.Errorf("allocation %s: %w", a.ID, ErrExists)
		}
	}
	for _, a := range allocs {
		r.allocs.put(a.ID, a)
	}
	return nil
}

func (r *MemoryRepository) SaveAllocations(_ context.Context, allocs []model.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range allocs {
		r.allocs.put(a.ID, a)
	}
	return nil
}

func (r *MemoryRepository) DeleteAllocation(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.allocs.remove(id) {
		return fmt.Errorf("allocation %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close is a no-op.
func (r *MemoryRepository) Close() error { return nil }
