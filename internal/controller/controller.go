// Package controller is the column-generation driver: seed the master,
// alternate solve/price, evaluate stopping rules, and record history and
// diagnostics.
//
// The loop itself follows a small synchronous orchestration style — one
// goroutine coordinating other internal packages with no shared mutable
// state — with a pruning cadence and an ancestor-closure seed mode layered
// on top of bare root/top-k seeding.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"bzcg/internal/master"
	"bzcg/internal/pricer"
	"bzcg/pkg/apperror"
	"bzcg/pkg/domain"
	"bzcg/pkg/logger"
)

// Hooks carries the controller's two optional runtime collaborators: an
// iteration callback and a cooperative cancellation flag. Both are
// checked only between iterations; mid-LP or mid-pricing interruption is
// not supported.
type Hooks struct {
	// Cancel, when non-nil, is polled once per iteration after pricing
	// and before add_column. Returning true stops the run with status
	// cancelled.
	Cancel func() bool
	// OnIteration, when non-nil, is invoked with each recorded history
	// entry. Its error is logged, never propagated.
	OnIteration func(domain.Entry) error
	// Timeout bounds wall-clock time spent in Run, checked at the same
	// checkpoint as Cancel. Zero disables it.
	Timeout time.Duration
}

// Controller owns one master and runs the generation loop over one DAG
// and profit map for the lifetime of a single Run call; it owns its
// master and pricer exclusively for that duration.
type Controller struct {
	dag     *domain.DAG
	profit  map[int64]float64
	cfg     domain.Config
	m       *master.Master
	nextID  int64
	diag    domain.Diag
	bestGap float64
	lastObj float64
}

// New builds a controller over dag/profit with the given configuration.
// The master starts empty; call Run to seed it and execute the loop.
func New(dag *domain.DAG, profit map[int64]float64, cfg domain.Config) *Controller {
	return &Controller{
		dag:     dag,
		profit:  profit,
		cfg:     cfg,
		m:       master.New(),
		bestGap: domain.Infinity,
	}
}

func (c *Controller) profitOf(b int64) float64 {
	return c.profit[b]
}

// validate runs the one-time input checks before any iteration: the DAG
// must exist and every profit entry must reference a known block and be
// finite. The DAG's own structural checks (cycles, dangling edges) ran in
// domain.NewDAG.
func (c *Controller) validate() error {
	if c.dag == nil {
		return apperror.ErrNilDAG
	}

	blocks := make([]int64, 0, len(c.profit))
	for b := range c.profit {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	v := apperror.NewValidationErrors()
	for _, b := range blocks {
		if b < 0 || b >= c.dag.NumBlocks() {
			v.AddErrorWithField(apperror.CodeInvalidBlockID,
				fmt.Sprintf("profit references block %d outside [0, %d)", b, c.dag.NumBlocks()), "profit")
		}
		if p := c.profit[b]; math.IsNaN(p) || math.IsInf(p, 0) {
			v.AddErrorWithField(apperror.CodeNonFiniteProfit,
				fmt.Sprintf("profit for block %d is not finite", b), "profit")
		}
	}
	if v.HasErrors() {
		return apperror.New(apperror.CodeInvalidInput, strings.Join(v.ErrorMessages(), "; "))
	}
	return nil
}

// withIteration stamps the failing iteration onto an application error so
// terminal failures report where the run broke off.
func withIteration(err error, iter int) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		ae.WithIteration(iter)
	}
	return err
}

// Snapshot is the read-only progress view internal/controller/metrics.go
// exposes as a prometheus.Collector.
type Snapshot struct {
	Objective  float64
	Columns    int
	BestRelGap float64
}

// Snapshot returns the controller's current progress; safe to call
// concurrently with Run only in the sense that Run is single-threaded and
// synchronous. A caller polling Snapshot from another goroutine observes
// a benign data race on plain float64/int reads, acceptable for a metrics
// gauge and not a core-correctness path.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{Objective: c.lastObj, Columns: c.m.NumColumns(), BestRelGap: c.bestGap}
}

// FinalSolution re-solves the master as it stands after Run returns,
// giving a caller (cmd/bzworker's result-file writer) the per-column
// lambda activities the RunResult's history does not carry. Calling it
// before Run has no columns to report and is harmless.
func (c *Controller) FinalSolution() (master.Solution, error) {
	return c.m.Solve()
}

// Columns returns the master's current column list, in the same order
// master.Solution.Lambda can be looked up by closure id.
func (c *Controller) Columns() []*domain.Closure {
	return c.m.Columns()
}

// Run seeds the master, then alternates solve and price until one of the
// termination conditions fires, finalising with one last solve() and
// returning the complete RunResult.
func (c *Controller) Run(ctx context.Context, hooks Hooks) domain.RunResult {
	start := time.Now()
	history := make([]domain.Entry, 0, c.cfg.MaxIters)

	if err := c.validate(); err != nil {
		logger.Error("controller: invalid input", "error", err)
		return c.assemble(domain.StatusError, 0, history, err, start)
	}
	c.seed()

	finish := func(status domain.Status, sol master.Solution, err error) domain.RunResult {
		return c.assemble(status, sol.Objective, history, err, start)
	}

	for iter := 0; c.cfg.MaxIters <= 0 || iter < c.cfg.MaxIters; iter++ {
		pruned := 0
		if c.cfg.PruneEvery > 0 && iter > 0 && iter%c.cfg.PruneEvery == 0 {
			removed, err := c.m.Prune(c.cfg.PruneKeepTop)
			if err != nil {
				logger.Error("controller: prune failed", "iter", iter, "error", err)
				return finish(domain.StatusError, master.Solution{}, withIteration(err, iter))
			}
			pruned = len(removed)
		}

		sol, err := c.m.Solve()
		c.diag.LPSolves++
		if err != nil {
			logger.Error("controller: master solve failed", "iter", iter, "error", err)
			return finish(domain.StatusError, sol, withIteration(err, iter))
		}
		c.lastObj = sol.Objective

		duals := pricer.Duals{Pi: sol.Pi, Z: sol.Z}
		pres := pricer.Price(ctx, c.dag, c.profit, duals, c.cfg.PricingAlgo)
		if pres.IsolatedFastPath {
			c.diag.IsolatedFastPaths++
		} else {
			c.diag.MinCutSolves++
		}

		var piSum, piSumSq float64
		for _, v := range sol.Pi {
			piSum += v
			piSumSq += v * v
		}
		ub := piSum + domain.Max(sol.Z, pres.TotalWeight)
		relGap := (ub - sol.Objective) / domain.Max(1, ub)
		if relGap < c.bestGap {
			c.bestGap = relGap
		}

		entry := domain.Entry{
			Iter:           iter,
			RMPObjective:   sol.Objective,
			ReducedCost:    pres.ReducedCost,
			TotalWeight:    pres.TotalWeight,
			SelectedBlocks: append([]int64(nil), pres.Blocks...),
			ConvexityDual:  sol.Z,
			DualNorm:       math.Sqrt(piSumSq),
			UB:             ub,
			RelGap:         relGap,
			ColumnsTotal:   c.m.NumColumns(),
			Pruned:         pruned,
		}
		history = append(history, entry)
		logger.Debug("controller: iteration", "iter", iter, "objective", sol.Objective, "reduced_cost", pres.ReducedCost, "ub", ub)

		if hooks.OnIteration != nil {
			if err := hooks.OnIteration(entry); err != nil {
				logger.Error("controller: iteration callback failed", "iter", iter, "error", err)
			}
		}

		if hooks.Cancel != nil && hooks.Cancel() {
			logger.Info("controller: cancelled", "iter", iter)
			return c.finalize(domain.StatusCancelled, history, nil, start)
		}
		if hooks.Timeout > 0 && time.Since(start) > hooks.Timeout {
			logger.Info("controller: timeout", "iter", iter)
			return c.finalize(domain.StatusCancelled, history, nil, start)
		}

		if pres.ReducedCost >= -c.cfg.Eps {
			logger.Info("controller: converged", "iter", iter, "objective", sol.Objective)
			return c.finalize(domain.StatusConverged, history, nil, start)
		}
		if c.cfg.MaxColumns > 0 && c.m.NumColumns() >= c.cfg.MaxColumns {
			logger.Info("controller: max columns reached", "iter", iter, "columns", c.m.NumColumns())
			return c.finalize(domain.StatusMaxColumnsReached, history, nil, start)
		}

		var profitSum float64
		for _, b := range pres.Blocks {
			profitSum += c.profitOf(b)
		}
		cl := &domain.Closure{
			ID:     c.nextID,
			Blocks: append([]int64(nil), pres.Blocks...),
			Profit: profitSum,
			Label:  fmt.Sprintf("price:iter:%d", iter),
		}
		c.nextID++
		c.m.AddColumn(cl)
		c.diag.ColumnsEmitted++
		history[len(history)-1].ColumnsAdded = 1
	}

	logger.Info("controller: max iterations reached", "max_iters", c.cfg.MaxIters)
	return c.finalize(domain.StatusMaxIters, history, nil, start)
}

// finalize performs the final solve() on exit and assembles the
// RunResult.
func (c *Controller) finalize(status domain.Status, history []domain.Entry, runErr error, start time.Time) domain.RunResult {
	sol, err := c.m.Solve()
	c.diag.LPSolves++
	if err != nil && runErr == nil {
		status = domain.StatusError
		runErr = err
	}
	c.lastObj = sol.Objective
	return c.assemble(status, sol.Objective, history, runErr, start)
}

// assemble folds the history into the finalised diagnostics and builds
// the RunResult, including the master's surviving columns.
func (c *Controller) assemble(status domain.Status, objective float64, history []domain.Entry, runErr error, start time.Time) domain.RunResult {
	c.diag.BestRelGap = c.bestGap
	for i, e := range history {
		if i == 0 || e.RMPObjective > c.diag.BestObjective {
			c.diag.BestObjective = e.RMPObjective
		}
		c.diag.LastUB = e.UB
	}

	res := domain.RunResult{
		Status:       status,
		Iterations:   len(history),
		RMPObjective: objective,
		TimeSeconds:  time.Since(start).Seconds(),
		History:      history,
		Diag:         c.diag,
		Columns:      c.m.Columns(),
		Err:          runErr,
	}
	if len(history) > 0 {
		last := history[len(history)-1]
		res.UB = last.UB
		res.RelGap = last.RelGap
	}
	return res
}

// seed populates the master with the configured initial columns: roots,
// top-k singletons, or top-k minimal up-closures. The up-closure mode
// covers the same high-profit blocks as top-k but every emitted column
// is precedence-feasible on its own, so the LP never leans on the
// empty-pattern convexity trick for feasibility.
func (c *Controller) seed() {
	switch c.cfg.Seed {
	case domain.SeedTopKProfit:
		for _, b := range c.topKBlocks(c.cfg.SeedTopK) {
			c.addSeedColumn([]int64{b}, fmt.Sprintf("seed:top-k:%d", b))
		}
	case domain.SeedAncestorClosure:
		blocks := c.topKBlocks(c.cfg.SeedTopK)
		if len(blocks) == 0 {
			blocks = c.dag.Roots()
		}
		for _, b := range blocks {
			c.addSeedColumn(c.dag.AncestorClosure(b), fmt.Sprintf("seed:ancestor-closure:%d", b))
		}
	default: // domain.SeedRoots
		for _, r := range c.dag.Roots() {
			c.addSeedColumn([]int64{r}, fmt.Sprintf("seed:root:%d", r))
		}
	}
}

func (c *Controller) addSeedColumn(blocks []int64, label string) {
	sorted := append([]int64(nil), blocks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var profit float64
	for _, b := range sorted {
		profit += c.profitOf(b)
	}
	cl := &domain.Closure{ID: c.nextID, Blocks: sorted, Profit: profit, Label: label}
	c.nextID++
	c.m.AddColumn(cl)
	c.diag.ColumnsEmitted++
}

// topKBlocks returns the k blocks with the highest profit (ties broken by
// ascending block id for determinism), for the top-k seed mode.
func (c *Controller) topKBlocks(k int) []int64 {
	n := c.dag.NumBlocks()
	if k <= 0 || n == 0 {
		return nil
	}
	if int64(k) > n {
		k = int(n)
	}
	blocks := make([]int64, n)
	for b := int64(0); b < n; b++ {
		blocks[b] = b
	}
	sort.Slice(blocks, func(i, j int) bool {
		pi, pj := c.profitOf(blocks[i]), c.profitOf(blocks[j])
		if pi != pj {
			return pi > pj
		}
		return blocks[i] < blocks[j]
	})
	return blocks[:k]
}
