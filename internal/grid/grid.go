// Package grid provides the square cell buffer the simulation evolves.
//
// A Grid is one contiguous []uint8 of side N indexed row*N+col. Cells hold
// Dead (0) or Alive (1). Everything outside [0,N) x [0,N) is dead; there is
// no wraparound.
package grid

import (
	"errors"
	"fmt"

	"github.com/nvandessel/lifesim/internal/bbox"
)

// Cell states.
const (
	Dead  uint8 = 0
	Alive uint8 = 1
)

// MaxSize bounds the side length; a MaxSize grid is 4 GiB. It is the only
// allocation guard: the runtime aborts the process, without a recoverable
// panic, when the heap cannot grow to satisfy make.
const MaxSize = 1 << 16

// ErrAllocation reports that a grid buffer could not be obtained.
var ErrAllocation = errors.New("grid allocation failed")

// Grid is a fixed-size square cell buffer.
type Grid struct {
	size  int
	cells []uint8
}

// New allocates a zeroed size x size grid.
func New(size int) (*Grid, error) {
	if size <= 0 || size > MaxSize {
		return nil, fmt.Errorf("%w: side length %d outside [1, %d]", ErrAllocation, size, MaxSize)
	}
	return &Grid{size: size, cells: make([]uint8, size*size)}, nil
}

// Size returns the side length N.
func (g *Grid) Size() int { return g.size }

// Bounds returns the box covering the whole grid.
func (g *Grid) Bounds() bbox.Box { return bbox.Full(g.size) }

// Get returns the cell at (row, col). Callers must keep both in [0, N).
func (g *Grid) Get(row, col int) uint8 {
	return g.cells[row*g.size+col]
}

// Set writes the cell at (row, col). Callers must keep both in [0, N).
func (g *Grid) Set(row, col int, v uint8) {
	g.cells[row*g.size+col] = v
}

// Row returns the backing slice of one row. Writes through it mutate the grid.
func (g *Grid) Row(row int) []uint8 {
	off := row * g.size
	return g.cells[off : off+g.size]
}

// Alive reports whether (row, col) is alive; coordinates outside the grid
// are dead.
func (g *Grid) Alive(row, col int) bool {
	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		return false
	}
	return g.cells[row*g.size+col] == Alive
}

// Zero clears the whole grid.
func (g *Grid) Zero() {
	clear(g.cells)
}

// ZeroRegion clears the cells of r that fall inside the grid.
func (g *Grid) ZeroRegion(r bbox.Box) {
	r = r.Clamp(g.size)
	if r.IsEmpty() {
		return
	}
	for row := r.MinRow; row <= r.MaxRow; row++ {
		off := row * g.size
		clear(g.cells[off+r.MinCol : off+r.MaxCol+1])
	}
}

// Population counts live cells in the whole grid.
func (g *Grid) Population() int {
	n := 0
	for _, c := range g.cells {
		n += int(c)
	}
	return n
}

// LiveBounds returns the exact box of live cells, or the empty box.
func (g *Grid) LiveBounds() bbox.Box {
	b := bbox.Empty()
	for row := 0; row < g.size; row++ {
		r := g.Row(row)
		for col, c := range r {
			if c == Alive {
				b = b.Include(row, col)
			}
		}
	}
	return b
}

// Equal reports whether both grids have the same size and cells.
func (g *Grid) Equal(o *Grid) bool {
	if g.size != o.size {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{size: g.size, cells: make([]uint8, len(g.cells))}
	copy(c.cells, g.cells)
	return c
}
