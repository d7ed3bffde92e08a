package runlog

import (
	"context"
	"slices"
	"time"

	"github.com/kilianp07/berthplan/core/model"
)

// LogRecord captures one allocation run and its outcome.
type LogRecord struct {
	RunID           string                 `json:"run_id"`
	Timestamp       time.Time              `json:"timestamp"`
	Goal            model.OptimizationGoal `json:"goal"`
	Strategy        string                 `json:"strategy"`
	ShipsConsidered []string               `json:"ships_considered"`
	Result          Result                 `json:"result"`
}

// Result mirrors allocation.Result for logging purposes.
type Result struct {
	Allocations      []model.Allocation `json:"allocations"`
	Unassigned       []Rejection        `json:"unassigned"`
	TotalWaitingTime float64            `json:"total_waiting_time"`
	DockUtilization  float64            `json:"dock_utilization"`
	Conflicts        int                `json:"conflicts"`
	WeatherWarning   bool               `json:"weather_warning"`
	TideLevel        float64            `json:"tide_level"`
	WindSpeed        float64            `json:"wind_speed"`
}

// Rejection records why a ship was left out.
type Rejection struct {
	ShipID string `json:"ship_id"`
	Reason string `json:"reason"`
}

// LogQuery defines filters for retrieving records.
type LogQuery struct {
	Start    time.Time
	End      time.Time
	ShipID   string
	DockID   string
	Strategy string
	// Limit keeps only the most recent records when positive.
	Limit int
}

// LogStore persists LogRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec LogRecord) error
	Query(ctx context.Context, q LogQuery) ([]LogRecord, error)
	Close() error
}

// Matches reports whether r satisfies every filter of q except Limit.
func (q LogQuery) Matches(r LogRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Strategy != "" && r.Strategy != q.Strategy {
		return false
	}
	if q.ShipID != "" && !r.involvesShip(q.ShipID) {
		return false
	}
	if q.DockID != "" && !r.involvesDock(q.DockID) {
		return false
	}
	return true
}

func (r LogRecord) involvesShip(id string) bool {
	if slices.Contains(r.ShipsConsidered, id) {
		return true
	}
	for _, a := range r.Result.Allocations {
		if a.ShipID == id {
			return true
		}
	}
	return false
}

func (r LogRecord) involvesDock(id string) bool {
	for _, a := range r.Result.Allocations {
		if a.DockID == id {
			return true
		}
	}
	return false
}

// applyLimit keeps the last n records.
func applyLimit(recs []LogRecord, n int) []LogRecord {
	if n <= 0 || len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

// NopStore discards every record.
type NopStore struct{}

func (NopStore) Append(context.Context, LogRecord) error              { return nil }
func (NopStore) Query(context.Context, LogQuery) ([]LogRecord, error) { return nil, nil }
func (NopStore) Close() error                                         { return nil }
