package allocation

import (
	"fmt"
	"time"

	"github.com/kilianp07/berthplan/core/compat"
	"github.com/kilianp07/berthplan/core/model"
)

const (
	ReasonInvalidTime     = "invalid allocation time"
	ReasonNoCompatible    = "no compatible dock"
	ReasonNoSpace         = "no dock has sufficient free space"
	reasonUnsafeWindowFmt = "unsafe tide window between %s and %s"
)

// Reason codes.
const (
	CodeTide         = "tide"
	CodeWind         = "wind"
	CodeTideWindow   = "tide_window"
	CodeInvalidTime  = "invalid_time"
	CodeNoCompatible = "no_compatible_dock"
	CodeNoSpace      = "no_space"
	CodeOptimizer    = "optimizer"
)

// UnsafeWindowReason describes a stay not covered by safe tide windows.
func UnsafeWindowReason(start, end time.Time) string {
	return fmt.Sprintf(reasonUnsafeWindowFmt, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
}

// WeatherCode classifies a global weather rejection; tide is checked first.
func WeatherCode(w model.WeatherState) string {
	if w.Tide.Current < w.Effective().MinTideLevel {
		return CodeTide
	}
	return CodeWind
}

// WeatherClosed reports whether w closes the port. When it does, the returned
// result carries the warning and rejects every ship with the same reason.
func WeatherClosed(ships []model.Ship, w model.WeatherState) (Result, bool) {
	reason, ok := compat.WeatherRejection(w)
	if ok {
		return Result{}, false
	}
	res := Result{
		Allocations:    []model.Allocation{},
		Unassigned:     make([]Unassigned, 0, len(ships)),
		Weather:        w,
		WeatherWarning: true,
	}
	code := WeatherCode(w)
	for _, sh := range ships {
		res.Unassigned = append(res.Unassigned, Unassigned{Ship: sh, Reason: reason, Code: code})
	}
	return res, true
}
