package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/model"
)

const timeLayout = "2006-01-02 15:04"

func renderResult(w io.Writer, res allocation.Result) {
	eff := res.Weather.Effective()
	fmt.Fprintf(w, "strategy %s, tide %.1f m (min %.1f), wind %.1f kn (max %.1f)\n",
		res.Strategy, res.Weather.Tide.Current, eff.MinTideLevel, res.Weather.Wind.Speed, eff.MaxWindSpeed)
	if res.WeatherWarning {
		fmt.Fprintln(w, "weather warning: the port is closed to new berthing")
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Allocations")
	tw.AppendHeader(table.Row{"Ship", "Dock", "Start", "End", "Stay", "Status"})
	for _, a := range res.Allocations {
		tw.AppendRow(table.Row{a.ShipID, a.DockID, a.StartTime.Format(timeLayout), a.EndTime.Format(timeLayout), formatDuration(a.EndTime.Sub(a.StartTime)), a.Status})
	}
	tw.AppendFooter(table.Row{"", "", "", "", "utilization", fmt.Sprintf("%.0f%%", res.Metrics.DockUtilization*100)})
	tw.Render()

	if len(res.Unassigned) == 0 {
		return
	}
	uw := table.NewWriter()
	uw.SetOutputMirror(w)
	uw.SetTitle("Unassigned")
	uw.AppendHeader(table.Row{"Ship", "Name", "Reason"})
	for _, u := range res.Unassigned {
		uw.AppendRow(table.Row{u.Ship.ID, u.Ship.Name, u.Reason})
	}
	uw.Render()
}

func renderDocks(w io.Writer, docks []model.Dock) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Dock", "Name", "Length", "Depth", "Types", "Status", "Occupied by", "Until"})
	for _, d := range docks {
		types := make([]string, 0, len(d.Specializations))
		for _, t := range d.Specializations {
			types = append(types, string(t))
		}
		until := ""
		if d.OccupiedUntil != nil {
			until = d.OccupiedUntil.Local().Format(timeLayout)
		}
		status := d.OperationalStatus
		if status == "" {
			status = model.DockOperational
		}
		tw.AppendRow(table.Row{d.ID, d.Name, d.Length, d.Depth, strings.Join(types, ","), status, d.OccupiedBy, until})
	}
	tw.Render()
}

// formatDuration renders d in whole hours and minutes.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
