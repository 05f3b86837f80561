package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nvandessel/lifesim/internal/config"
	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/patterns"
	"github.com/nvandessel/lifesim/internal/rule"
	"github.com/spf13/cobra"
)

// addSimulationFlags registers the flags shared by run, render and bench.
// Unset flags fall back to the loaded configuration. bench takes a list of
// worker counts, so --workers is registered separately.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("size", 0, "Grid side length N (default from config: 3000)")
	cmd.Flags().StringP("pattern", "p", "", "Built-in pattern name or path to a .cells/.yaml file")
	cmd.Flags().Int("row", 0, "Top row of the placed pattern")
	cmd.Flags().Int("col", 0, "Left column of the placed pattern")
	cmd.Flags().Bool("center", false, "Center the pattern on the grid (ignores --row/--col)")
	cmd.Flags().IntP("iterations", "n", 0, "Generation budget")
	cmd.Flags().String("strategy", "", "Scan strategy: bbox or full")
	cmd.Flags().String("rule", "", "Birth/survival rule, e.g. B3/S23")
}

func addWorkersFlag(cmd *cobra.Command) {
	cmd.Flags().IntP("workers", "w", 0, "Goroutines per generation (0 = GOMAXPROCS)")
}

// applySimulationFlags copies explicitly set flags into cfg.
func applySimulationFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Grid.Size, _ = flags.GetInt("size")
	}
	if flags.Changed("pattern") {
		cfg.Simulation.Pattern, _ = flags.GetString("pattern")
	}
	if flags.Changed("row") {
		cfg.Simulation.Row, _ = flags.GetInt("row")
	}
	if flags.Changed("col") {
		cfg.Simulation.Col, _ = flags.GetInt("col")
	}
	if flags.Changed("center") {
		cfg.Simulation.Center, _ = flags.GetBool("center")
	}
	if flags.Changed("iterations") {
		cfg.Simulation.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("workers") {
		if n, err := flags.GetInt("workers"); err == nil {
			cfg.Simulation.Workers = n
		}
	}
	if flags.Changed("strategy") {
		cfg.Simulation.Strategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("rule") {
		cfg.Simulation.Rule, _ = flags.GetString("rule")
	}
}

// simulationConfig loads the configuration, applies the simulation flags
// and validates the result.
func simulationConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	applySimulationFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// buildParams resolves the pattern, strategy and rule named in cfg.
func buildParams(cfg *config.Config, logger *slog.Logger) (engine.Params, error) {
	pat, err := patterns.Resolve(cfg.Simulation.Pattern)
	if err != nil {
		return engine.Params{}, err
	}

	strategy, err := engine.ParseStrategy(cfg.Simulation.Strategy)
	if err != nil {
		return engine.Params{}, err
	}

	r := rule.Conway
	if cfg.Simulation.Rule != "" {
		if r, err = rule.Parse(cfg.Simulation.Rule); err != nil {
			return engine.Params{}, err
		}
	}

	row, col := cfg.Simulation.Row, cfg.Simulation.Col
	if cfg.Simulation.Center {
		row, col = patterns.Center(pat, cfg.Grid.Size)
	}

	return engine.Params{
		Size:       cfg.Grid.Size,
		Pattern:    pat,
		Row:        row,
		Col:        col,
		Iterations: cfg.Simulation.Iterations,
		Workers:    cfg.Simulation.Workers,
		Strategy:   strategy,
		Rule:       &r,
		Logger:     logger,
	}, nil
}

// signalContext returns a context cancelled on interrupt. The engine
// checks it between generations.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
