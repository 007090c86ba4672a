// Package main is the entry point for bzworker, the thin process that
// drives one column-generation run to completion.
//
// bzworker is deliberately small. MineLib file parsing, the
// dataset-browsing UI, and solution-file comparison tooling are external
// collaborators with no place in the core; this binary exists only to
// load configuration, build an internal/controller.Run over an
// in-memory DAG, and persist its progress and result.
//
// # Architecture
//
// bzworker follows a staged-initialization shape scaled down to what a
// synchronous, single-run worker needs:
//
//	┌──────────────────────────────────────────────┐
//	│  Configuration (pkg/config)                   │
//	│  Logging (pkg/logger)                         │
//	│  Metrics (prometheus, served over /metrics)   │
//	├──────────────────────────────────────────────┤
//	│  Column generation (internal/controller)      │
//	│  - seeds the restricted master                │
//	│  - alternates solve/price to convergence       │
//	│  - emits a heartbeat file every iteration      │
//	├──────────────────────────────────────────────┤
//	│  Result persistence (bzworker-result.json)    │
//	└──────────────────────────────────────────────┘
//
// The DAG and profit vector a real deployment would hand bzworker come
// from a MineLib loader that is explicitly out of scope here; this
// binary builds a small embedded instance in its place so the full loop
// (seed, price, solve, converge, persist) has something concrete to run
// against.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bzcg/internal/controller"
	"bzcg/pkg/config"
	"bzcg/pkg/domain"
	"bzcg/pkg/logger"
	"bzcg/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bzworker: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	logger.Info("bzworker: starting", "app", cfg.App.Name, "version", cfg.App.Version, "environment", cfg.App.Environment)

	cgCfg, err := cfg.CG.ToDomain()
	if err != nil {
		logger.Fatal("bzworker: invalid cg config", "error", err)
	}

	dag, profit := toyInstance()

	c := controller.New(dag, profit, cgCfg)

	var iterDuration *prometheus.HistogramVec
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(controller.NewMetricsCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem, c.Snapshot))
		reg.MustRegister(metrics.NewRuntimeCollector(cfg.Metrics.Namespace, cfg.Metrics.Subsystem))
		iterDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Name:      "iteration_duration_seconds",
			Help:      "Wall-clock time of one solve/price iteration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"})
		reg.MustRegister(iterDuration)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: ":9102", Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("bzworker: metrics server failed", "error", err)
			}
		}()
		defer srv.Close()
		logger.Info("bzworker: metrics listening", "addr", srv.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	heartbeatPath := "bzworker-heartbeat.json"
	resultPath := "bzworker-result.json"

	var iterTimer *metrics.Timer
	hooks := controller.Hooks{
		OnIteration: func(e domain.Entry) error {
			if iterDuration != nil {
				if iterTimer != nil {
					iterTimer.ObserveDuration()
				}
				iterTimer = metrics.NewTimer(iterDuration, "solve_price")
			}
			return writeHeartbeat(heartbeatPath, e)
		},
		Cancel: func() bool {
			select {
			case <-ctx.Done():
				return true
			default:
				return false
			}
		},
	}

	res := c.Run(ctx, hooks)

	logger.Info("bzworker: run finished", "status", res.Status.String(), "iterations", res.Iterations, "objective", res.RMPObjective, "rel_gap", res.RelGap)

	if err := writeResult(resultPath, res, c); err != nil {
		logger.Fatal("bzworker: failed to write result", "error", err)
	}

	if res.Status == domain.StatusError {
		os.Exit(1)
	}
}

// toyInstance builds a small embedded precedence DAG and profit vector
// standing in for a parsed MineLib block model: two root blocks feed a
// shared block of high value, which in turn unlocks one more block of
// negative value: just enough structure to exercise precedence,
// convexity competition, and a losing tail block the optimum should
// reject.
func toyInstance() (*domain.DAG, map[int64]float64) {
	edges := []domain.Edge{
		{U: 0, V: 2},
		{U: 1, V: 2},
		{U: 2, V: 3},
	}
	dag, err := domain.NewDAG(4, edges)
	if err != nil {
		logger.Fatal("bzworker: invalid toy instance", "error", err)
	}
	profit := map[int64]float64{0: -2, 1: -1, 2: 12, 3: -5}
	return dag, profit
}

// writeHeartbeat persists a status heartbeat record atomically: write
// to a temp file in the target directory, then rename, so a concurrent
// reader never observes a partially written file.
func writeHeartbeat(path string, e domain.Entry) error {
	body := struct {
		Iter        int     `json:"iter"`
		Objective   float64 `json:"objective"`
		NColumns    int     `json:"n_columns"`
		ReducedCost float64 `json:"reduced_cost"`
		TotalWeight float64 `json:"total_weight"`
	}{
		Iter:        e.Iter,
		Objective:   e.RMPObjective,
		NColumns:    e.ColumnsTotal,
		ReducedCost: e.ReducedCost,
		TotalWeight: e.TotalWeight,
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return atomicWrite(path, buf)
}

// resultPattern is one entry of the final result JSON's pattern list: a
// compact, solution-file-comparable view of one surviving column.
type resultPattern struct {
	PatternID int64   `json:"pattern_id"`
	Lambda    float64 `json:"lambda"`
	NBlocks   int     `json:"n_blocks"`
	Blocks    string  `json:"blocks"`
	Profit    float64 `json:"profit"`
}

func writeResult(path string, res domain.RunResult, c *controller.Controller) error {
	patterns := buildPatterns(c)

	body := struct {
		Status     string          `json:"status"`
		Objective  float64         `json:"objective"`
		Iterations int             `json:"iterations"`
		History    []domain.Entry  `json:"history"`
		Patterns   []resultPattern `json:"patterns"`
	}{
		Status:     res.Status.String(),
		Objective:  res.RMPObjective,
		Iterations: res.Iterations,
		History:    res.History,
		Patterns:   patterns,
	}

	buf, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(path, buf)
}

// buildPatterns re-solves the master to get final lambda activities and
// formats each surviving column as a compact pattern record, with
// Blocks rendered as a ';'-joined id string.
func buildPatterns(c *controller.Controller) []resultPattern {
	sol, err := c.FinalSolution()
	if err != nil {
		logger.Error("bzworker: final solution unavailable for result patterns", "error", err)
		return []resultPattern{}
	}

	columns := c.Columns()
	patterns := make([]resultPattern, 0, len(columns))
	for _, col := range columns {
		blocks := make([]string, len(col.Blocks))
		for i, b := range col.Blocks {
			blocks[i] = fmt.Sprintf("%d", b)
		}
		patterns = append(patterns, resultPattern{
			PatternID: col.ID,
			Lambda:    sol.Lambda[col.ID],
			NBlocks:   len(col.Blocks),
			Blocks:    strings.Join(blocks, ";"),
			Profit:    col.Profit,
		})
	}
	sort.Slice(patterns, func(i, j int) bool { return patterns[i].PatternID < patterns[j].PatternID })
	return patterns
}

// atomicWrite writes via temp-file + rename for both the heartbeat and
// result files.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
