package model

import "time"

// AllocationStatus is the lifecycle state of an allocation.
type AllocationStatus string

const (
	StatusScheduled  AllocationStatus = "scheduled"
	StatusInProgress AllocationStatus = "in-progress"
	StatusCompleted  AllocationStatus = "completed"
)

// Allocation assigns one ship to one dock for a time interval.
type Allocation struct {
	ID        string           `json:"id"`
	ShipID    string           `json:"shipId"`
	DockID    string           `json:"dockId"`
	StartTime time.Time        `json:"startTime"`
	EndTime   time.Time        `json:"endTime"`
	Created   time.Time        `json:"created"`
	Status    AllocationStatus `json:"status"`
}

// Overlaps is the strict half-open interval test used for berth space:
// start < a.End && end > a.Start.
func (a Allocation) Overlaps(start, end time.Time) bool {
	return start.Before(a.EndTime) && end.After(a.StartTime)
}

// OverlapsInclusive treats touching intervals as overlapping. It guards
// against booking the same ship twice.
func (a Allocation) OverlapsInclusive(start, end time.Time) bool {
	return !start.After(a.EndTime) && !end.Before(a.StartTime)
}
