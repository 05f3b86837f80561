// Package bench measures how the engine scales with worker count and
// verifies that every worker count evolves the same history.
package bench

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/grid"
)

// ErrNondeterministic is returned when two worker counts disagree.
var ErrNondeterministic = errors.New("population history differs between worker counts")

// Result is one timed configuration.
type Result struct {
	Workers     int           `json:"workers"`
	Elapsed     time.Duration `json:"elapsed"`
	Speedup     float64       `json:"speedup"`
	Generations int           `json:"generations"`
	Population  int           `json:"final_population"`
	// History fingerprints the population sequence, Final the last grid.
	History uint64 `json:"history"`
	Final   uint64 `json:"final"`
}

// Report collects the results of Run in worker-count order.
type Report struct {
	Pattern    string   `json:"pattern"`
	Size       int      `json:"size"`
	Iterations int      `json:"iterations"`
	Strategy   string   `json:"strategy"`
	Repeats    int      `json:"repeats"`
	Results    []Result `json:"results"`
}

// Run simulates p once per worker count (the best of repeats runs is kept)
// and reports elapsed time and speedup relative to the first count. It
// returns the partial report and ErrNondeterministic if any count produces
// a different population sequence or final grid than the first.
func Run(ctx context.Context, p engine.Params, workerCounts []int, repeats int) (Report, error) {
	if len(workerCounts) == 0 {
		return Report{}, fmt.Errorf("no worker counts given")
	}
	repeats = max(repeats, 1)

	strategy := "bbox"
	if p.Strategy != nil {
		strategy = p.Strategy.Name()
	}
	rep := Report{
		Pattern:    p.Pattern.Name(),
		Size:       p.Size,
		Iterations: p.Iterations,
		Strategy:   strategy,
		Repeats:    repeats,
	}

	for _, w := range workerCounts {
		if w <= 0 {
			return rep, fmt.Errorf("invalid worker count %d", w)
		}
		res, err := measure(ctx, p, w, repeats)
		if err != nil {
			return rep, err
		}
		if len(rep.Results) > 0 {
			base := rep.Results[0]
			res.Speedup = base.Elapsed.Seconds() / max(res.Elapsed.Seconds(), 1e-9)
			if res.History != base.History || res.Final != base.Final {
				rep.Results = append(rep.Results, res)
				return rep, fmt.Errorf("%w: %d workers vs %d workers", ErrNondeterministic, w, base.Workers)
			}
		} else {
			res.Speedup = 1
		}
		rep.Results = append(rep.Results, res)
	}
	return rep, nil
}

func measure(ctx context.Context, p engine.Params, workers, repeats int) (Result, error) {
	p.Workers = workers
	var best Result
	for i := 0; i < repeats; i++ {
		out, err := engine.Simulate(ctx, p, nil)
		if err != nil {
			return Result{}, fmt.Errorf("%d workers: %w", workers, err)
		}
		res := Result{
			Workers:     workers,
			Elapsed:     out.Elapsed,
			Generations: out.Generations,
			Population:  out.Population,
			History:     HistoryHash(out.Populations),
			Final:       GridHash(out.Final),
		}
		if i == 0 || res.Elapsed < best.Elapsed {
			best = res
		}
	}
	return best, nil
}

// HistoryHash fingerprints a population sequence.
func HistoryHash(populations []int) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, p := range populations {
		binary.LittleEndian.PutUint64(buf[:], uint64(p))
		_, _ = d.Write(buf[:])
	}
	return d.Sum64()
}

// GridHash fingerprints the cells of g.
func GridHash(g *grid.Grid) uint64 {
	d := xxhash.New()
	for r := 0; r < g.Size(); r++ {
		_, _ = d.Write(g.Row(r))
	}
	return d.Sum64()
}

// Counts returns 1, 2, 4, ... up to and including limit.
func Counts(limit int) []int {
	var counts []int
	for w := 1; w < limit; w *= 2 {
		counts = append(counts, w)
	}
	if limit >= 1 && !slices.Contains(counts, limit) {
		counts = append(counts, limit)
	}
	return counts
}

// WriteTable prints the report as an aligned table.
func WriteTable(w io.Writer, r Report) error {
	fmt.Fprintf(w, "%s on %dx%d, %d iterations, %s strategy, best of %d\n\n",
		r.Pattern, r.Size, r.Size, r.Iterations, r.Strategy, r.Repeats)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "workers\tseconds\tspeedup\tgenerations\tpopulation\thistory\t")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%d\t%.4f\t%.2fx\t%d\t%d\t%016x\t\n",
			res.Workers, res.Elapsed.Seconds(), res.Speedup, res.Generations, res.Population, res.History)
	}
	return tw.Flush()
}
