package allocation

import (
	"sort"
	"strings"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// DeriveDockOccupancy returns a copy of docks with the occupancy fields
// recomputed from allocations. A dock is occupied while it has an allocation
// that is not completed and ends after now. OccupiedBy lists the ship IDs
// sorted and without duplicates; OccupiedUntil is the latest end time.
func DeriveDockOccupancy(docks []model.Dock, allocs []model.Allocation, now time.Time) []model.Dock {
	active := make(map[string][]model.Allocation)
	for _, a := range allocs {
		if a.Status == model.StatusCompleted || !a.EndTime.After(now) {
			continue
		}
		active[a.DockID] = append(active[a.DockID], a)
	}
	out := make([]model.Dock, len(docks))
	for i, d := range docks {
		d.Specializations = append([]model.ShipType(nil), d.Specializations...)
		as := active[d.ID]
		if len(as) == 0 {
			d.Occupied = false
			d.OccupiedBy = ""
			d.OccupiedUntil = nil
			out[i] = d
			continue
		}
		seen := make(map[string]struct{}, len(as))
		ids := make([]string, 0, len(as))
		until := as[0].EndTime
		for _, a := range as {
			if _, ok := seen[a.ShipID]; !ok {
				seen[a.ShipID] = struct{}{}
				ids = append(ids, a.ShipID)
			}
			if a.EndTime.After(until) {
				until = a.EndTime
			}
		}
		sort.Strings(ids)
		d.Occupied = true
		d.OccupiedBy = strings.Join(ids, ",")
		d.OccupiedUntil = &until
		out[i] = d
	}
	return out
}
