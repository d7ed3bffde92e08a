package lifecycle

import (
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// StatusAt derives the status of a at now.
func StatusAt(a model.Allocation, now time.Time) model.AllocationStatus {
	switch {
	case now.Before(a.StartTime):
		return model.StatusScheduled
	case now.Before(a.EndTime):
		return model.StatusInProgress
	default:
		return model.StatusCompleted
	}
}

// Advance returns a copy of allocs with every status derived from now, and
// the allocations whose status changed.
func Advance(allocs []model.Allocation, now time.Time) (all, changed []model.Allocation) {
	all = make([]model.Allocation, len(allocs))
	for i, a := range allocs {
		st := StatusAt(a, now)
		if st != a.Status {
			a.Status = st
			changed = append(changed, a)
		}
		all[i] = a
	}
	return all, changed
}
