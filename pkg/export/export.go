// Package export writes berth plans in exchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// PlanEntry is one allocation joined with the ship and dock it refers to.
type PlanEntry struct {
	AllocationID string                 `json:"allocationId"`
	ShipID       string                 `json:"shipId"`
	ShipName     string                 `json:"shipName"`
	ShipType     model.ShipType         `json:"shipType"`
	ShipLength   float64                `json:"shipLength"`
	DockID       string                 `json:"dockId"`
	DockName     string                 `json:"dockName"`
	Start        time.Time              `json:"startTime"`
	End          time.Time              `json:"endTime"`
	Status       model.AllocationStatus `json:"status"`
}

// Plan joins allocations with ships and docks, sorted by start time then
// dock. Unknown ships or docks leave their name fields empty.
func Plan(allocs []model.Allocation, ships []model.Ship, docks []model.Dock) []PlanEntry {
	shipByID := make(map[string]model.Ship, len(ships))
	for _, s := range ships {
		shipByID[s.ID] = s
	}
	dockByID := make(map[string]model.Dock, len(docks))
	for _, d := range docks {
		dockByID[d.ID] = d
	}
	out := make([]PlanEntry, 0, len(allocs))
	for _, a := range allocs {
		s := shipByID[a.ShipID]
		out = append(out, PlanEntry{
			AllocationID: a.ID,
			ShipID:       a.ShipID,
			ShipName:     s.Name,
			ShipType:     s.Type,
			ShipLength:   s.Length,
			DockID:       a.DockID,
			DockName:     dockByID[a.DockID].Name,
			Start:        a.StartTime.UTC(),
			End:          a.EndTime.UTC(),
			Status:       a.Status,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].DockID < out[j].DockID
	})
	return out
}

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, entries []PlanEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteCSV writes the plan to w in CSV format with a header row.
func WriteCSV(w io.Writer, entries []PlanEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"allocation_id", "ship_id", "ship_name", "ship_type", "ship_length_m", "dock_id", "dock_name", "start", "end", "status"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.AllocationID,
			e.ShipID,
			e.ShipName,
			string(e.ShipType),
			strconv.FormatFloat(e.ShipLength, 'f', -1, 64),
			e.DockID,
			e.DockName,
			e.Start.Format(time.RFC3339),
			e.End.Format(time.RFC3339),
			string(e.Status),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Write dispatches on format, "json" or "csv".
func Write(w io.Writer, format string, entries []PlanEntry) error {
	switch format {
	case "json":
		return WriteJSON(w, entries)
	case "csv":
		return WriteCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
