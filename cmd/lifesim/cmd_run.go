package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/config"
	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/logging"
	"github.com/nvandessel/lifesim/internal/render"
	"github.com/nvandessel/lifesim/internal/report"
	"github.com/nvandessel/lifesim/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evolve a pattern and report the population of each generation",
		Long: `Place a pattern on an empty grid and evolve it for a fixed number of
generations, printing "Iteration <n>; Population <p>" after each one.
The run stops early if every cell dies.

Examples:
  lifesim run                                  # grower at (1500,1500) on 3000x3000
  lifesim run -p beehive --size 200 --center -n 50
  lifesim run -p glider.cells --every 100 --record
  lifesim run --strategy full -w 1 --quiet --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := simulationConfig(cmd)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg)

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			params, err := buildParams(cfg, logger)
			if err != nil {
				return err
			}

			dir, err := cfg.StoreDir()
			if err != nil {
				return err
			}
			trace, err := logging.OpenTrace(dir, cfg.Logging.Level)
			if err != nil {
				logger.Warn("generation trace disabled", "error", err)
			}
			defer trace.Close()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			e, err := engine.Prepare(params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			glyphs := render.GlyphsFrom(cfg.Render.Alive, cfg.Render.Dead)
			window := render.Around(e.Current(), params.Row, params.Col,
				params.Pattern.Height(), params.Pattern.Width(), cfg.Render.Margin)
			showGrid := cfg.Render.Enabled && !jsonOut

			if showGrid {
				if err := renderSnapshot(out, "Initial grid", e, window, glyphs); err != nil {
					return err
				}
			}

			reporters := []engine.Reporter{
				report.NewLog(logger),
				report.NewTrace(trace),
			}
			if !jsonOut {
				reporters = append(reporters, report.Every(cfg.Report.Every, report.NewText(out, cfg.Report.Quiet)))
			}
			series := &populationSeries{populations: []int{}}
			if jsonOut {
				reporters = append(reporters, series)
			}

			var recorder *store.Recorder
			if cfg.Store.Enabled {
				runStore, err := store.Open(ctx, dir)
				if err != nil {
					return fmt.Errorf("failed to open run store: %w", err)
				}
				defer runStore.Close()

				recorder, err = runStore.BeginRun(ctx, store.RunMeta{
					Pattern:    params.Pattern.Name(),
					GridSize:   params.Size,
					Row:        params.Row,
					Col:        params.Col,
					Iterations: params.Iterations,
					Workers:    e.Workers(),
					Strategy:   e.Strategy().Name(),
					Rule:       e.Rule().String(),
				})
				if err != nil {
					return fmt.Errorf("failed to record run: %w", err)
				}
				reporters = append(reporters, recorder)
			}

			summary, err := e.Run(ctx, params.Iterations, report.Multi(reporters...))
			if err != nil {
				if recorder != nil {
					if failErr := recorder.Fail(err); failErr != nil {
						logger.Warn("failed to record aborted run", "error", failErr)
					}
				}
				return fmt.Errorf("simulation aborted after %d generations: %w", e.Generation(), err)
			}

			if showGrid {
				if err := renderSnapshot(out, "Final grid", e, window, glyphs); err != nil {
					return err
				}
			}

			if jsonOut {
				result := map[string]interface{}{
					"pattern":         params.Pattern.Name(),
					"grid_size":       params.Size,
					"workers":         e.Workers(),
					"strategy":        e.Strategy().Name(),
					"rule":            e.Rule().String(),
					"generations":     summary.Generations,
					"population":      summary.Population,
					"extinct":         summary.Extinct,
					"elapsed_seconds": summary.ElapsedSeconds(),
					"populations":     series.populations,
				}
				if !summary.Extinct {
					result["box"] = summary.Box
				}
				if recorder != nil {
					result["run_id"] = recorder.ID()
				}
				return json.NewEncoder(out).Encode(result)
			}

			if recorder != nil {
				fmt.Fprintf(out, "Recorded as run %d\n", recorder.ID())
			}
			return nil
		},
	}

	addSimulationFlags(cmd)
	addWorkersFlag(cmd)
	cmd.Flags().Int("every", 0, "Print one progress line every N generations (default from config: 1)")
	cmd.Flags().BoolP("quiet", "q", false, "Print only the summary")
	cmd.Flags().Bool("render", false, "Print the grid around the pattern before and after the run")
	cmd.Flags().Int("margin", 0, "Cells of context around the pattern when rendering (default from config: 50)")
	cmd.Flags().Bool("record", false, "Record the run in the history database")

	return cmd
}

// applyRunFlags copies the reporting, rendering and recording flags into cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("every") {
		cfg.Report.Every, _ = flags.GetInt("every")
	}
	if flags.Changed("quiet") {
		cfg.Report.Quiet, _ = flags.GetBool("quiet")
	}
	if flags.Changed("render") {
		cfg.Render.Enabled, _ = flags.GetBool("render")
	}
	if flags.Changed("margin") {
		if m, _ := flags.GetInt("margin"); m >= 0 {
			cfg.Render.Margin = m
		}
	}
	if flags.Changed("record") {
		cfg.Store.Enabled, _ = flags.GetBool("record")
	}
}

// renderSnapshot prints a titled view of the engine's current grid.
func renderSnapshot(w io.Writer, title string, e *engine.Engine, window bbox.Box, glyphs render.Glyphs) error {
	fmt.Fprintf(w, "%s (generation %d, population %d):\n", title, e.Generation(), e.Population())
	return render.Render(w, e.Current(), window, glyphs)
}

// populationSeries collects the population of every generation.
type populationSeries struct {
	populations []int
}

func (s *populationSeries) ReportGeneration(r engine.GenerationResult) error {
	s.populations = append(s.populations, r.Population)
	return nil
}

func (s *populationSeries) ReportSummary(engine.Summary) error { return nil }
