package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/lifesim/internal/export"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Export a recorded run's population series",
		Long: `Write the per-generation population and live box of a recorded run
as an Arrow IPC file, CSV, or JSON lines. Without --format the format is
taken from the --output extension, falling back to CSV.

Examples:
  lifesim export 3 > run3.csv
  lifesim export 3 -o run3.arrow
  lifesim export 3 --format jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			formatName, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			id, err := parseRunID(args[0])
			if err != nil {
				return err
			}

			format := export.FormatCSV
			switch {
			case formatName != "":
				if format, err = export.ParseFormat(formatName); err != nil {
					return err
				}
			case output != "":
				if f, err := export.ParseFormat(filepath.Ext(output)); err == nil {
					format = f
				}
			}

			runStore, err := openRunStore(cmd)
			if err != nil {
				return err
			}
			defer runStore.Close()

			series, err := runStore.Generations(cmd.Context(), id)
			if err != nil {
				return err
			}

			if output == "" {
				return export.Write(cmd.OutOrStdout(), format, series)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := export.Write(f, format, series); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"run_id":      id,
					"format":      format,
					"path":        output,
					"generations": len(series),
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d generations of run %d to %s (%s)\n", len(series), id, output, format)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "", "Output format: arrow, csv, or jsonl")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")

	return cmd
}
