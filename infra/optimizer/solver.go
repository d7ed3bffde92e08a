package optimizer

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/kilianp07/berthplan/core/allocation"
	"github.com/kilianp07/berthplan/core/compat"
	"github.com/kilianp07/berthplan/core/model"
)

// pair is a ship/dock combination that passes every static rule.
type pair struct {
	ship  int // index into candidate ships
	dock  int // index into operational docks
	value float64
}

// Solver assigns ships to docks by rounding the LP relaxation of the
// assignment problem.
type Solver struct {
	now   func() time.Time
	newID func() string
}

// NewSolver returns a Solver using the wall clock and random UUIDs.
func NewSolver() *Solver {
	return &Solver{now: time.Now, newID: uuid.NewString}
}

// lpSolve points to the function used to solve the LP. It can be overridden in
// tests to simulate solver failures.
var lpSolve = solveRelaxation

// ErrSolver indicates the LP relaxation could not be solved.
var ErrSolver = errors.New("lp relaxation failed")

// Solve computes allocations for req. The same rejection reasons as the local
// strategy are reported.
func (s *Solver) Solve(req allocation.Request) (allocation.Result, error) {
	if res, closed := allocation.WeatherClosed(req.Ships, req.Weather); closed {
		res.Strategy = "lp"
		return res, nil
	}
	res := allocation.Result{
		Allocations: []model.Allocation{},
		Unassigned:  []allocation.Unassigned{},
		Weather:     req.Weather,
		Strategy:    "lp",
	}

	docks := allocation.OperationalDocks(req.Docks)
	byID := make(map[string]model.Ship, len(req.Ships))
	for _, sh := range req.Ships {
		byID[sh.ID] = sh
	}
	batch := append([]model.Allocation(nil), req.Existing...)

	var (
		ships []model.Ship
		pairs []pair
	)
	for _, sh := range allocation.SortShips(req.Ships) {
		start, end := sh.ArrivalTime, sh.DepartureTime
		if compat.DoubleBooked(sh.ID, start, end, batch) {
			continue
		}
		if !compat.WindowSafe(req.Weather, start, end) {
			res.Unassigned = append(res.Unassigned, allocation.Unassigned{Ship: sh, Reason: allocation.UnsafeWindowReason(start, end), Code: allocation.CodeTideWindow})
			continue
		}
		if !compat.DurationValid(sh, start, end) {
			res.Unassigned = append(res.Unassigned, allocation.Unassigned{Ship: sh, Reason: allocation.ReasonInvalidTime, Code: allocation.CodeInvalidTime})
			continue
		}
		idx := len(ships)
		fits := 0
		for j, d := range docks {
			if compat.PhysicalFit(sh, d) {
				pairs = append(pairs, pair{ship: idx, dock: j, value: goalValue(req.Goal, sh, d)})
				fits++
			}
		}
		if fits == 0 {
			res.Unassigned = append(res.Unassigned, allocation.Unassigned{Ship: sh, Reason: allocation.ReasonNoCompatible, Code: allocation.CodeNoCompatible})
			continue
		}
		ships = append(ships, sh)
	}

	var x []float64
	if len(pairs) > 0 {
		var err error
		x, err = lpSolve(pairs, ships, docks)
		if err != nil {
			return allocation.Result{}, errors.Join(ErrSolver, err)
		}
	}

	// Round by descending fractional value; the pair order (ship priority,
	// then dock order) breaks ties.
	order := make([]int, len(pairs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := pairs[order[a]], pairs[order[b]]
		if x[order[a]] != x[order[b]] {
			return x[order[a]] > x[order[b]]
		}
		return pa.value > pb.value
	})

	created := s.now()
	placed := make([]bool, len(ships))
	place := func(p pair) bool {
		sh, d := ships[p.ship], docks[p.dock]
		if placed[p.ship] || !compat.SpaceAvailable(sh, d, sh.ArrivalTime, sh.DepartureTime, batch, byID) {
			return false
		}
		a := model.Allocation{
			ID:        s.newID(),
			ShipID:    sh.ID,
			DockID:    d.ID,
			StartTime: sh.ArrivalTime,
			EndTime:   sh.DepartureTime,
			Created:   created,
			Status:    model.StatusScheduled,
		}
		batch = append(batch, a)
		res.Allocations = append(res.Allocations, a)
		placed[p.ship] = true
		return true
	}
	for _, i := range order {
		if x[i] > 1e-6 {
			place(pairs[i])
		}
	}
	// Second pass: ships the relaxation left out still get the first dock with
	// room, in priority order.
	for _, p := range pairs {
		place(p)
	}

	conflicts := 0
	for i, sh := range ships {
		if placed[i] {
			continue
		}
		conflicts++
		res.Unassigned = append(res.Unassigned, allocation.Unassigned{Ship: sh, Reason: allocation.ReasonNoSpace, Code: allocation.CodeNoSpace})
	}
	res.Metrics = allocation.Summarize(res.Allocations, req.Ships, docks)
	res.Metrics.Conflicts = conflicts
	return res, nil
}

// goalValue is the reward of berthing sh at d. Urgent ships (low priority
// numbers) and well used docks are worth more.
func goalValue(goal model.OptimizationGoal, sh model.Ship, d model.Dock) float64 {
	p := sh.Priority
	if p < 0 {
		p = 0
	}
	urgency := 1 / float64(1+p)
	fill := 0.0
	if d.Length > 0 {
		fill = sh.Length / d.Length
	}
	switch goal {
	case model.GoalWaitingTime:
		return urgency
	case model.GoalDockUtilization:
		return fill
	default:
		return urgency + 0.5*fill
	}
}

// solveRelaxation maximises the total value subject to one dock per ship and
// the dock length. The problem is put in standard form with one slack
// variable per inequality.
func solveRelaxation(pairs []pair, ships []model.Ship, docks []model.Dock) ([]float64, error) {
	n := len(pairs)
	m := len(ships) + len(docks)
	c := make([]float64, n+m)
	for i, p := range pairs {
		c[i] = -p.value
	}
	A := mat.NewDense(m, n+m, nil)
	b := make([]float64, m)
	for i, p := range pairs {
		A.Set(p.ship, i, 1)
		A.Set(len(ships)+p.dock, i, ships[p.ship].Length)
	}
	for r := 0; r < m; r++ {
		A.Set(r, n+r, 1)
		if r < len(ships) {
			b[r] = 1
		} else {
			b[r] = docks[r-len(ships)].Length
		}
	}
	_, sol, err := lp.Simplex(c, A, b, 1e-9, nil)
	if err != nil {
		return nil, err
	}
	return sol[:n], nil
}
