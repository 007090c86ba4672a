package domain

// PricingAlgo selects the min-cut implementation the pricer hands each
// iteration's cut graph to.
type PricingAlgo int

const (
	// PricingMinCut is the push-relabel ("fast") mode: FIFO active-vertex
	// queue with periodic global relabeling.
	PricingMinCut PricingAlgo = iota
	// PricingEdmondsKarp is the BFS augmenting-path ("accurate") mode.
	PricingEdmondsKarp
)

func (a PricingAlgo) String() string {
	switch a {
	case PricingMinCut:
		return "min-cut"
	case PricingEdmondsKarp:
		return "edmonds-karp"
	default:
		return "unknown"
	}
}

// SeedMode selects how the controller populates the master's initial
// columns before the first pricing iteration.
type SeedMode int

const (
	// SeedRoots emits one singleton column per DAG root.
	SeedRoots SeedMode = iota
	// SeedTopKProfit emits singleton columns for the k most profitable blocks.
	SeedTopKProfit
	// SeedAncestorClosure emits, per top-k profit block, its minimal
	// up-closure (the block plus all its ancestors) rather than a bare
	// singleton, so every emitted column is precedence-feasible on its own.
	SeedAncestorClosure
)

func (m SeedMode) String() string {
	switch m {
	case SeedRoots:
		return "roots"
	case SeedTopKProfit:
		return "top-k"
	case SeedAncestorClosure:
		return "ancestor-closure"
	default:
		return "unknown"
	}
}

// Status is the controller's termination reason.
type Status int

const (
	StatusConverged Status = iota
	StatusMaxIters
	StatusMaxColumnsReached
	StatusCancelled
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusMaxIters:
		return "max_iters"
	case StatusMaxColumnsReached:
		return "max_columns_reached"
	case StatusCancelled:
		return "cancelled"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Config carries every tunable the controller, pricer, and master read
// from: reduced-cost tolerance, iteration/column limits, pricing and
// seeding mode, solver selection, and pruning cadence.
type Config struct {
	Eps          float64
	MaxIters     int
	MaxColumns   int
	PricingAlgo  PricingAlgo
	Seed         SeedMode
	SeedTopK     int // read by SeedTopKProfit and SeedAncestorClosure; ignored by SeedRoots
	SolverKind   string
	PruneEvery   int // 0 disables pruning; otherwise prune before solve() when iter > 0 and iter % PruneEvery == 0
	PruneKeepTop int // columns kept per prune pass
}

// DefaultConfig returns sane values a caller can start from and override
// selectively.
func DefaultConfig() Config {
	return Config{
		Eps:          1e-7,
		MaxIters:     1000,
		MaxColumns:   0, // unlimited
		PricingAlgo:  PricingMinCut,
		Seed:         SeedRoots,
		SeedTopK:     0,
		SolverKind:   "simplex",
		PruneEvery:   0,
		PruneKeepTop: 0,
	}
}

// Entry is one row of the controller's per-iteration history, recorded
// whether or not a Hooks.OnIteration callback is supplied.
type Entry struct {
	Iter           int
	RMPObjective   float64
	ReducedCost    float64
	TotalWeight    float64 // W*, the pricing closure's total weight
	SelectedBlocks []int64 // the pricing closure's member blocks, sorted ascending
	ConvexityDual  float64 // z
	DualNorm       float64 // L2 norm of the packing dual vector pi
	UB             float64 // Σπ_b + max(z, W*) for this iteration
	RelGap         float64
	ColumnsAdded   int
	ColumnsTotal   int
	Pruned         int
}

// Diag is the run's finalised diagnostics: the best (lowest) relative
// gap observed, the best RMP objective, the last UB, plus counters
// useful for offline inspection (total min-cut solves, LP solves, and
// columns ever generated, including pruned ones).
type Diag struct {
	BestRelGap    float64
	BestObjective float64
	LastUB        float64

	MinCutSolves      int
	LPSolves          int
	ColumnsEmitted    int
	IsolatedFastPaths int
}

// RunResult is the controller's final output. Columns holds the
// master's surviving column set at termination, in LP-variable order.
type RunResult struct {
	Status       Status
	Iterations   int
	RMPObjective float64
	UB           float64
	RelGap       float64
	TimeSeconds  float64
	History      []Entry
	Diag         Diag
	Columns      []*Closure
	Err          error
}
