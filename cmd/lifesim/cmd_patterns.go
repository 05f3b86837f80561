package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/nvandessel/lifesim/internal/patterns"
	"github.com/spf13/cobra"
)

// patternInfo is the JSON shape of a pattern.
type patternInfo struct {
	Name       string   `json:"name"`
	Height     int      `json:"height"`
	Width      int      `json:"width"`
	Population int      `json:"population"`
	Rows       []string `json:"rows,omitempty"`
}

func describePattern(p patterns.Pattern, withRows bool) patternInfo {
	info := patternInfo{
		Name:       p.Name(),
		Height:     p.Height(),
		Width:      p.Width(),
		Population: p.Population(),
	}
	if withRows {
		info.Rows = strings.Split(strings.TrimSuffix(p.String(), "\n"), "\n")
	}
	return info
}

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List and inspect seed patterns",
		Long: `List the built-in seed patterns or show the cells of one pattern.

Examples:
  lifesim patterns list
  lifesim patterns show grower
  lifesim patterns show ./gosper.cells --json`,
	}

	cmd.AddCommand(
		newPatternsListCmd(),
		newPatternsShowCmd(),
	)

	return cmd
}

func newPatternsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			infos := make([]patternInfo, 0, len(patterns.Names()))
			for _, name := range patterns.Names() {
				p, err := patterns.Lookup(name)
				if err != nil {
					return err
				}
				infos = append(infos, describePattern(p, false))
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"patterns": infos,
					"count":    len(infos),
				})
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSIZE\tCELLS")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%dx%d\t%d\n", info.Name, info.Height, info.Width, info.Population)
			}
			return tw.Flush()
		},
	}
}

func newPatternsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name|file>",
		Short: "Show the cells of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			p, err := patterns.Resolve(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(describePattern(p, true))
			}

			fmt.Fprintf(out, "%s (%dx%d, %d live cells)\n", p.Name(), p.Height(), p.Width(), p.Population())
			fmt.Fprint(out, p.String())
			return nil
		},
	}
}
