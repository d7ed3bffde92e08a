package compat

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// PhysicalFit reports whether the dock can physically host the ship.
func PhysicalFit(s model.Ship, d model.Dock) bool {
	return d.Length >= s.Length && d.Depth >= s.Draft && d.Accepts(s.Type)
}

// FitDocks returns the docks physically fitting s, in input order.
func FitDocks(s model.Ship, docks []model.Dock) []model.Dock {
	var out []model.Dock
	for _, d := range docks {
		if PhysicalFit(s, d) {
			out = append(out, d)
		}
	}
	return out
}

// UsedLength sums the length of ships whose allocation on dockID strictly
// overlaps [start,end). Allocations referencing unknown ships count as zero.
func UsedLength(dockID string, start, end time.Time, allocs []model.Allocation, ships map[string]model.Ship) float64 {
	var used float64
	for _, a := range allocs {
		if a.DockID != dockID || !a.Overlaps(start, end) {
			continue
		}
		if s, ok := ships[a.ShipID]; ok {
			used += s.Length
		}
	}
	return used
}

// SpaceAvailable reports whether the free berth length of d over [start,end)
// is at least the ship's length.
func SpaceAvailable(s model.Ship, d model.Dock, start, end time.Time, allocs []model.Allocation, ships map[string]model.Ship) bool {
	return d.Length-UsedLength(d.ID, start, end, allocs, ships) >= s.Length
}

// DoubleBooked reports whether shipID already holds an allocation touching
// [start,end].
func DoubleBooked(shipID string, start, end time.Time, allocs []model.Allocation) bool {
	for _, a := range allocs {
		if a.ShipID == shipID && a.OverlapsInclusive(start, end) {
			return true
		}
	}
	return false
}

// DurationValid reports whether [start,end] is long enough for the ship's
// own arrival to departure span.
func DurationValid(s model.Ship, start, end time.Time) bool {
	return end.Sub(start) >= s.RequiredDuration()
}
