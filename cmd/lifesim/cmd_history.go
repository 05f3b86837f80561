package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/nvandessel/lifesim/internal/store"
	"github.com/spf13/cobra"
)

// openRunStore opens the history database named by the configuration.
func openRunStore(cmd *cobra.Command) (*store.RunStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := cfg.StoreDir()
	if err != nil {
		return nil, err
	}
	runStore, err := store.Open(cmd.Context(), dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run store: %w", err)
	}
	return runStore, nil
}

func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run id: %s", arg)
	}
	return id, nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with 'lifesim run --record' (or store.enabled).

Examples:
  lifesim history list
  lifesim history list --pattern grower --limit 5
  lifesim history show 3 --series
  lifesim history delete 3`,
	}

	cmd.AddCommand(
		newHistoryListCmd(),
		newHistoryShowCmd(),
		newHistoryDeleteCmd(),
	)

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			pattern, _ := cmd.Flags().GetString("pattern")
			limit, _ := cmd.Flags().GetInt("limit")

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			runs, err := runStore.ListRuns(cmd.Context(), pattern, limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []store.Run{}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPATTERN\tGRID\tSTRATEGY\tWORKERS\tSTATUS\tGENERATIONS\tPOPULATION\tSECONDS\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%d\t%s\t%d/%d\t%d\t%.3f\t%s\n",
					r.ID, r.Pattern, r.GridSize, r.Strategy, r.Workers, r.Status,
					r.Generations, r.Iterations, r.FinalPopulation, r.ElapsedSeconds,
					r.StartedAt.Local().Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().String("pattern", "", "Only runs of this pattern")
	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 = all)")

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and optionally its population series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			withSeries, _ := cmd.Flags().GetBool("series")

			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			run, err := runStore.Run(cmd.Context(), id)
			if err != nil {
				return err
			}

			var series []store.Generation
			if withSeries {
				if series, err = runStore.Generations(cmd.Context(), id); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{"run": run}
				if withSeries {
					if series == nil {
						series = []store.Generation{}
					}
					result["generations"] = series
				}
				return json.NewEncoder(out).Encode(result)
			}

			fmt.Fprintf(out, "Run %d: %s on %dx%d at (%d,%d)\n", run.ID, run.Pattern, run.GridSize, run.GridSize, run.Row, run.Col)
			fmt.Fprintf(out, "  rule %s, strategy %s, %d workers\n", run.Rule, run.Strategy, run.Workers)
			fmt.Fprintf(out, "  status %s after %d of %d generations, population %d, %.3f seconds\n",
				run.Status, run.Generations, run.Iterations, run.FinalPopulation, run.ElapsedSeconds)
			if run.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", run.Error)
			}

			if withSeries {
				for _, g := range series {
					fmt.Fprintf(out, "Iteration %d; Population %d\n", g.Generation, g.Population)
				}
			}
			return nil
		},
	}

	cmd.Flags().Bool("series", false, "Include the per-generation population series")

	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			if err := runStore.DeleteRun(cmd.Context(), id); err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "deleted",
					"id":     id,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", id)
			return nil
		},
	}
}
