package main

import (
	"encoding/json"
	"errors"
	"runtime"

	"github.com/nvandessel/lifesim/internal/bench"
	"github.com/nvandessel/lifesim/internal/logging"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time a run at several worker counts and compare speedup",
		Long: `Run the same configuration once per worker count, report elapsed time
and speedup relative to the first count, and fail if any worker count
evolves a different population history or final grid.

Examples:
  lifesim bench                              # 1, 2, 4, ... up to GOMAXPROCS
  lifesim bench --workers 1,2,4,8 --repeats 3
  lifesim bench -p r-pentomino --size 1000 --center -n 500 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			counts, _ := cmd.Flags().GetIntSlice("workers")
			repeats, _ := cmd.Flags().GetInt("repeats")

			cfg, err := simulationConfig(cmd)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			params, err := buildParams(cfg, logger)
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				counts = bench.Counts(runtime.GOMAXPROCS(0))
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			rep, runErr := bench.Run(ctx, params, counts, repeats)
			if len(rep.Results) == 0 {
				return runErr
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"report":        rep,
					"deterministic": !errors.Is(runErr, bench.ErrNondeterministic),
				}
				if err := json.NewEncoder(out).Encode(result); err != nil {
					return err
				}
			} else if err := bench.WriteTable(out, rep); err != nil {
				return err
			}
			return runErr
		},
	}

	addSimulationFlags(cmd)
	cmd.Flags().IntSliceP("workers", "w", nil, "Worker counts to compare, e.g. 1,2,4,8")
	cmd.Flags().Int("repeats", 1, "Runs per worker count; the fastest is kept")

	return cmd
}
