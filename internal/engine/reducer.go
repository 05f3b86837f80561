package engine

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/rule"
)

// Partial is the population and live-cell box of some set of evaluated cells.
// Partials combine with Merge, which is commutative and associative, so the
// merged result does not depend on which band finishes first.
type Partial struct {
	Population int
	Box        bbox.Box
}

func emptyPartial() Partial {
	return Partial{Box: bbox.Empty()}
}

// Merge combines two partials.
func (p Partial) Merge(o Partial) Partial {
	return Partial{Population: p.Population + o.Population, Box: p.Box.Merge(o.Box)}
}

// Reducer evaluates a scan region of the current generation across a fixed
// number of goroutines and merges their partial results.
type Reducer struct {
	workers int
	rule    rule.Rule
}

// NewReducer returns a reducer running up to workers goroutines per
// generation. workers <= 0 means GOMAXPROCS.
func NewReducer(workers int, r rule.Rule) *Reducer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Reducer{workers: workers, rule: r}
}

// Workers returns the goroutine count.
func (rd *Reducer) Workers() int { return rd.workers }

// Rule returns the rule applied to every cell.
func (rd *Reducer) Rule() rule.Rule { return rd.rule }

// Reduce writes the next state of every cell of region into next and
// returns the merged population and live-cell box. cur is only read; each
// goroutine owns a disjoint band of rows in next. Cells of next outside
// region are left untouched. The only error is ctx cancellation.
func (rd *Reducer) Reduce(ctx context.Context, cur, next *grid.Grid, region bbox.Box) (Partial, error) {
	region = region.Clamp(cur.Size())
	if region.IsEmpty() {
		return emptyPartial(), nil
	}

	var (
		mu    sync.Mutex
		total = emptyPartial()
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, band := range Partition(region, rd.workers) {
		g.Go(func() error {
			local := emptyPartial()
			for row := band.MinRow; row <= band.MaxRow; row++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				pop, first, last := stepRow(cur, next, rd.rule, row, band.MinCol, band.MaxCol)
				if pop > 0 {
					local.Population += pop
					local.Box = local.Box.Include(row, first).Include(row, last)
				}
			}

			// One short critical section per band, never per cell.
			mu.Lock()
			total = total.Merge(local)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Partial{}, err
	}
	return total, nil
}

// Partition splits region into at most parts bands of whole rows. Band
// heights differ by at most one, and the earlier bands take the extra rows.
func Partition(region bbox.Box, parts int) []bbox.Box {
	h := region.Height()
	if h == 0 {
		return nil
	}
	parts = max(1, min(parts, h))

	bands := make([]bbox.Box, 0, parts)
	base, extra := h/parts, h%parts
	row := region.MinRow
	for i := 0; i < parts; i++ {
		rows := base
		if i < extra {
			rows++
		}
		bands = append(bands, bbox.Box{
			MinRow: row,
			MaxRow: row + rows - 1,
			MinCol: region.MinCol,
			MaxCol: region.MaxCol,
		})
		row += rows
	}
	return bands
}
