// pkg/config/config.go
package config

import (
	"fmt"
	"strings"

	"bzcg/pkg/domain"
)

// Config is the top-level configuration for a column-generation run: the
// column-generation tunables plus the logger/metrics sub-configs the
// ambient stack needs.
type Config struct {
	App AppConfig `koanf:"app"`
	CG  CGConfig  `koanf:"cg"`
	Log LogConfig `koanf:"log"`

	Metrics MetricsConfig `koanf:"metrics"`
}

// AppConfig carries run identity.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// CGConfig is the column-generation controller's tunable set: eps,
// max_iters, max_columns, pricing_algo, seed, plus the prune_every/
// seed_top_k/solver_kind fields.
type CGConfig struct {
	Eps          float64 `koanf:"eps"`
	MaxIters     int     `koanf:"max_iters"`
	MaxColumns   int     `koanf:"max_columns"`  // 0 = unlimited
	PricingAlgo  string  `koanf:"pricing_algo"` // "min-cut" or "edmonds-karp"
	Seed         string  `koanf:"seed"`         // "roots", "top-k", "ancestor-closure"
	SeedTopK     int     `koanf:"seed_top_k"`
	SolverKind   string  `koanf:"solver_kind"`
	PruneEvery   int     `koanf:"prune_every"`
	PruneKeepTop int     `koanf:"prune_keep_top"`
}

// ToDomain converts the koanf-loaded CGConfig into the domain.Config the
// controller consumes.
func (c CGConfig) ToDomain() (domain.Config, error) {
	cfg := domain.DefaultConfig()
	cfg.Eps = c.Eps
	cfg.MaxIters = c.MaxIters
	cfg.MaxColumns = c.MaxColumns
	cfg.SeedTopK = c.SeedTopK
	cfg.SolverKind = c.SolverKind
	cfg.PruneEvery = c.PruneEvery
	cfg.PruneKeepTop = c.PruneKeepTop

	switch strings.ToLower(c.PricingAlgo) {
	case "", "min-cut", "mincut":
		cfg.PricingAlgo = domain.PricingMinCut
	case "edmonds-karp", "edmondskarp":
		cfg.PricingAlgo = domain.PricingEdmondsKarp
	default:
		return domain.Config{}, fmt.Errorf("config: unknown pricing_algo %q", c.PricingAlgo)
	}

	switch strings.ToLower(c.Seed) {
	case "", "roots":
		cfg.Seed = domain.SeedRoots
	case "top-k", "topk":
		cfg.Seed = domain.SeedTopKProfit
	case "ancestor-closure", "ancestorclosure":
		cfg.Seed = domain.SeedAncestorClosure
	default:
		return domain.Config{}, fmt.Errorf("config: unknown seed mode %q", c.Seed)
	}

	return cfg, nil
}

// LogConfig mirrors pkg/logger.Config field for field, kept as a separate
// type here (rather than importing pkg/logger) so pkg/config has no
// dependency on pkg/logger; cmd/bzworker converts between the two.
type LogConfig struct {
	Level      string `koanf:"level"`  // debug, info, warn, error
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"` // MB
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"` // days
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the controller's prometheus.Collector.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// Validate checks the loaded configuration for the constraints the
// controller and master assume hold before a run starts.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.CG.Eps < 0 {
		errs = append(errs, "cg.eps must be non-negative")
	}
	if c.CG.MaxIters <= 0 {
		errs = append(errs, "cg.max_iters must be positive")
	}
	if c.CG.MaxColumns < 0 {
		errs = append(errs, "cg.max_columns must be non-negative")
	}
	if c.CG.PruneEvery < 0 {
		errs = append(errs, "cg.prune_every must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the run is configured for development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the run is configured for production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
