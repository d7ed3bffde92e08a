// Package repository defines the storage contract for ships, docks and
// allocations.
package repository

import (
	"context"
	"errors"

	"github.com/kilianp07/berthplan/core/model"
)

var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when adding an entity whose ID is taken.
	ErrExists = errors.New("already exists")
)

// Repository stores the yard state. List methods return entities in
// insertion order; docks keep their order because first fit depends on it.
type Repository interface {
	Ships(ctx context.Context) ([]model.Ship, error)
	Ship(ctx context.Context, id string) (model.Ship, error)
	// AddShip stores draft under a new identifier and returns the stored ship.
	AddShip(ctx context.Context, draft model.Ship) (model.Ship, error)
	UpdateShip(ctx context.Context, s model.Ship) error
	DeleteShip(ctx context.Context, id string) error
	// SaveShips upserts ships keeping their identifiers. Used for seeding.
	SaveShips(ctx context.Context, ships []model.Ship) error

	Docks(ctx context.Context) ([]model.Dock, error)
	Dock(ctx context.Context, id string) (model.Dock, error)
	// AddDock stores d. An empty ID is replaced by a new identifier.
	AddDock(ctx context.Context, d model.Dock) (model.Dock, error)
	UpdateDock(ctx context.Context, d model.Dock) error
	DeleteDock(ctx context.Context, id string) error
	// SaveDocks updates every dock in docks; unknown docks are added.
	SaveDocks(ctx context.Context, docks []model.Dock) error
	// SaveOccupancy writes only the derived occupancy fields of docks that
	// still exist. Unknown docks are skipped and every other field is left as
	// stored.
	SaveOccupancy(ctx context.Context, docks []model.Dock) error

	Allocations(ctx context.Context) ([]model.Allocation, error)
	AddAllocations(ctx context.Context, allocs []model.Allocation) error
	// SaveAllocations updates allocations in place; unknown ones are added.
	SaveAllocations(ctx context.Context, allocs []model.Allocation) error
	DeleteAllocation(ctx context.Context, id string) error

	Close() error
}
