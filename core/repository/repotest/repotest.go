// Package repotest holds behaviour tests shared by Repository
// implementations.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/berthplan/core/model"
	"github.com/kilianp07/berthplan/core/repository"
)

var t0 = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// Run exercises a fresh repository returned by newRepo.
func Run(t *testing.T, newRepo func(t *testing.T) repository.Repository) {
	t.Run("ships", func(t *testing.T) { testShips(t, newRepo(t)) })
	t.Run("docks", func(t *testing.T) { testDocks(t, newRepo(t)) })
	t.Run("allocations", func(t *testing.T) { testAllocations(t, newRepo(t)) })
}

func testShips(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	a, err := r.AddShip(ctx, model.Ship{
		ID: "ignored", Name: "Aurora", Type: model.ShipContainer, Length: 200, Draft: 12,
		ArrivalTime: t0, DepartureTime: t0.Add(6 * time.Hour), Priority: 1,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, "ignored", a.ID)
	b, err := r.AddShip(ctx, model.Ship{Name: "Borealis", Type: model.ShipTanker, Length: 150, Draft: 9,
		ArrivalTime: t0, DepartureTime: t0.Add(time.Hour), Priority: 2})
	require.NoError(t, err)

	list, err := r.Ships(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	got, err := r.Ship(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Aurora", got.Name)
	assert.True(t, got.ArrivalTime.Equal(t0))

	got.Priority = 5
	require.NoError(t, r.UpdateShip(ctx, got))
	got, err = r.Ship(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Priority)

	assert.ErrorIs(t, r.UpdateShip(ctx, model.Ship{ID: "missing"}), repository.ErrNotFound)
	require.NoError(t, r.SaveShips(ctx, []model.Ship{{ID: "s9", Name: "Seeded"}, {ID: b.ID, Name: "Borealis II"}}))
	list, err = r.Ships(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Borealis II", list[1].Name)
	assert.Equal(t, "s9", list[2].ID)
	require.NoError(t, r.DeleteShip(ctx, a.ID))
	_, err = r.Ship(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.DeleteShip(ctx, a.ID), repository.ErrNotFound)
}

func testDocks(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	for _, id := range []string{"d2", "d1"} {
		_, err := r.AddDock(ctx, model.Dock{
			ID: id, Name: "Dock " + id, Length: 300, Depth: 15,
			Specializations:   []model.ShipType{model.ShipContainer, model.ShipBulk},
			OperationalStatus: model.DockOperational,
		})
		require.NoError(t, err)
	}
	_, err := r.AddDock(ctx, model.Dock{ID: "d1"})
	assert.ErrorIs(t, err, repository.ErrExists)
	gen, err := r.AddDock(ctx, model.Dock{Name: "generated", Length: 100, Depth: 8})
	require.NoError(t, err)
	assert.NotEmpty(t, gen.ID)

	docks, err := r.Docks(ctx)
	require.NoError(t, err)
	require.Len(t, docks, 3)
	assert.Equal(t, "d2", docks[0].ID)
	assert.Equal(t, "d1", docks[1].ID)
	assert.Equal(t, []model.ShipType{model.ShipContainer, model.ShipBulk}, docks[0].Specializations)

	until := t0.Add(time.Hour)
	docks[0].Occupied = true
	docks[0].OccupiedBy = "s1"
	docks[0].OccupiedUntil = &until
	require.NoError(t, r.SaveDocks(ctx, docks))
	d, err := r.Dock(ctx, "d2")
	require.NoError(t, err)
	assert.True(t, d.Occupied)
	require.NotNil(t, d.OccupiedUntil)
	assert.True(t, d.OccupiedUntil.Equal(until))

	stale := d
	stale.Length = 1
	stale.Occupied = false
	stale.OccupiedBy = ""
	stale.OccupiedUntil = nil
	require.NoError(t, r.SaveOccupancy(ctx, []model.Dock{stale, {ID: "gone", Occupied: true}}))
	d, err = r.Dock(ctx, "d2")
	require.NoError(t, err)
	assert.False(t, d.Occupied)
	assert.Empty(t, d.OccupiedBy)
	assert.Nil(t, d.OccupiedUntil)
	assert.Equal(t, 300.0, d.Length, "only occupancy is written")
	_, err = r.Dock(ctx, "gone")
	assert.ErrorIs(t, err, repository.ErrNotFound, "unknown docks are not created")

	d.OperationalStatus = model.DockMaintenance
	require.NoError(t, r.UpdateDock(ctx, d))
	d, err = r.Dock(ctx, "d2")
	require.NoError(t, err)
	assert.Equal(t, model.DockMaintenance, d.OperationalStatus)
	assert.ErrorIs(t, r.UpdateDock(ctx, model.Dock{ID: "nope"}), repository.ErrNotFound)

	require.NoError(t, r.DeleteDock(ctx, "d2"))
	_, err = r.Dock(ctx, "d2")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, r.DeleteDock(ctx, "d2"), repository.ErrNotFound)
}

func testAllocations(t *testing.T, r repository.Repository) {
	ctx := context.Background()
	a1 := model.Allocation{ID: "a1", ShipID: "s1", DockID: "d1", StartTime: t0, EndTime: t0.Add(time.Hour), Created: t0, Status: model.StatusScheduled}
	a2 := model.Allocation{ID: "a2", ShipID: "s2", DockID: "d1", StartTime: t0, EndTime: t0.Add(2 * time.Hour), Created: t0, Status: model.StatusScheduled}
	require.NoError(t, r.AddAllocations(ctx, []model.Allocation{a1, a2}))
	assert.ErrorIs(t, r.AddAllocations(ctx, []model.Allocation{a1}), repository.ErrExists)

	a1.Status = model.StatusCompleted
	require.NoError(t, r.SaveAllocations(ctx, []model.Allocation{a1}))
	list, err := r.Allocations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, model.StatusCompleted, list[0].Status)
	assert.True(t, list[1].EndTime.Equal(a2.EndTime))

	require.NoError(t, r.DeleteAllocation(ctx, "a1"))
	assert.ErrorIs(t, r.DeleteAllocation(ctx, "a1"), repository.ErrNotFound)
	list, err = r.Allocations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
