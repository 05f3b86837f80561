package engine

import (
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/rule"
)

// CountNeighbours returns the number of live cells among the 8 neighbours of
// (row, col). Positions outside the grid count as dead.
func CountNeighbours(g *grid.Grid, row, col int) int {
	last := g.Size() - 1
	r0, r1 := max(row-1, 0), min(row+1, last)
	c0, c1 := max(col-1, 0), min(col+1, last)

	count := 0
	for r := r0; r <= r1; r++ {
		cells := g.Row(r)
		for c := c0; c <= c1; c++ {
			count += int(cells[c])
		}
	}
	return count - int(g.Get(row, col))
}

// NextState returns the state of (row, col) in the next generation. It only
// reads g, so it is safe to call concurrently.
func NextState(g *grid.Grid, r rule.Rule, row, col int) uint8 {
	if r.Next(g.Get(row, col) == grid.Alive, CountNeighbours(g, row, col)) {
		return grid.Alive
	}
	return grid.Dead
}

// stepRow evaluates columns [c0, c1] of one row of cur into next and returns
// the number of live cells written with the first and last live column.
// It is the row-at-a-time form of NextState used by the reducer.
func stepRow(cur, next *grid.Grid, r rule.Rule, row, c0, c1 int) (pop, first, last int) {
	n := cur.Size()
	var above, below []uint8
	if row > 0 {
		above = cur.Row(row - 1)
	}
	if row < n-1 {
		below = cur.Row(row + 1)
	}
	mid := cur.Row(row)
	out := next.Row(row)

	// column sums of the 3-row window at col-1, col and col+1
	colSum := func(c int) int {
		if c < 0 || c >= n {
			return 0
		}
		s := int(mid[c])
		if above != nil {
			s += int(above[c])
		}
		if below != nil {
			s += int(below[c])
		}
		return s
	}

	first, last = -1, -1
	left, centre := colSum(c0-1), colSum(c0)
	for c := c0; c <= c1; c++ {
		right := colSum(c + 1)
		alive := mid[c] == grid.Alive
		neighbours := left + centre + right - int(mid[c])
		if r.Next(alive, neighbours) {
			out[c] = grid.Alive
			pop++
			if first < 0 {
				first = c
			}
			last = c
		} else {
			out[c] = grid.Dead
		}
		left, centre = centre, right
	}
	return pop, first, last
}
