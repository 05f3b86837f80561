// Package patterns supplies the seed shapes stamped onto a grid before
// evolution starts.
package patterns

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/grid"
)

var (
	// ErrOutOfBounds reports a placement whose extent leaves the grid.
	ErrOutOfBounds = errors.New("pattern does not fit within the grid bounds")

	// ErrUnknown reports a pattern name with no definition.
	ErrUnknown = errors.New("unknown pattern")
)

// Pattern is an immutable rectangular matrix of cell states.
type Pattern struct {
	name  string
	cells [][]uint8
}

// New builds a pattern from rows of equal length. Cells must be 0 or 1.
func New(name string, rows [][]uint8) (Pattern, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Pattern{}, fmt.Errorf("pattern %q: empty matrix", name)
	}
	width := len(rows[0])
	cells := make([][]uint8, len(rows))
	for i, r := range rows {
		if len(r) != width {
			return Pattern{}, fmt.Errorf("pattern %q: row %d has %d cells, want %d", name, i, len(r), width)
		}
		for j, c := range r {
			if c > grid.Alive {
				return Pattern{}, fmt.Errorf("pattern %q: cell (%d,%d) = %d, want 0 or 1", name, i, j, c)
			}
		}
		cells[i] = append([]uint8(nil), r...)
	}
	return Pattern{name: name, cells: cells}, nil
}

// FromStrings builds a pattern from plaintext rows where 'O', '*' or '#'
// is alive and anything else is dead. Short rows are padded with dead cells.
func FromStrings(name string, rows ...string) (Pattern, error) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	matrix := make([][]uint8, len(rows))
	for i, r := range rows {
		matrix[i] = make([]uint8, width)
		for j := 0; j < len(r); j++ {
			switch r[j] {
			case 'O', 'o', '*', '#', '1':
				matrix[i][j] = grid.Alive
			}
		}
	}
	return New(name, matrix)
}

func mustStrings(name string, rows ...string) Pattern {
	p, err := FromStrings(name, rows...)
	if err != nil {
		panic(err)
	}
	return p
}

// Name returns the pattern name.
func (p Pattern) Name() string { return p.name }

// Height returns the number of rows.
func (p Pattern) Height() int { return len(p.cells) }

// Width returns the number of columns.
func (p Pattern) Width() int {
	if len(p.cells) == 0 {
		return 0
	}
	return len(p.cells[0])
}

// At returns the cell at (row, col) of the pattern.
func (p Pattern) At(row, col int) uint8 { return p.cells[row][col] }

// Population counts live cells.
func (p Pattern) Population() int {
	n := 0
	for _, r := range p.cells {
		for _, c := range r {
			n += int(c)
		}
	}
	return n
}

// String renders the pattern in plaintext notation.
func (p Pattern) String() string {
	var b strings.Builder
	for _, r := range p.cells {
		for _, c := range r {
			if c == grid.Alive {
				b.WriteByte('O')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Extent returns the box the pattern covers when placed at (row, col).
func (p Pattern) Extent(row, col int) bbox.Box {
	return bbox.Rect(row, col, p.Height(), p.Width())
}

// Place stamps p onto g with its top-left corner at (row, col). Live and dead
// pattern cells both overwrite the grid. The whole extent must lie inside g.
func Place(g *grid.Grid, p Pattern, row, col int) error {
	if !g.Bounds().ContainsBox(p.Extent(row, col)) || p.Height() == 0 {
		return fmt.Errorf("%w: %q (%dx%d) at (%d,%d) on %dx%d grid",
			ErrOutOfBounds, p.name, p.Height(), p.Width(), row, col, g.Size(), g.Size())
	}
	for i, r := range p.cells {
		copy(g.Row(row + i)[col:col+len(r)], r)
	}
	return nil
}

// Center returns the offset that centres p on a size x size grid.
func Center(p Pattern, size int) (row, col int) {
	return (size - p.Height()) / 2, (size - p.Width()) / 2
}

var builtins = map[string]Pattern{
	"beehive": mustStrings("beehive",
		".OO.",
		"O..O",
		".OO.",
	),
	// Smallest-box infinite growth pattern; spawns block-laying switch engines.
	"grower": mustStrings("grower",
		"OOO.O",
		"O....",
		"...OO",
		".OO.O",
		"O.O.O",
	),
	"blinker": mustStrings("blinker",
		"OOO",
	),
	"block": mustStrings("block",
		"OO",
		"OO",
	),
	"glider": mustStrings("glider",
		".O.",
		"..O",
		"OOO",
	),
	"r-pentomino": mustStrings("r-pentomino",
		".OO",
		"OO.",
		".O.",
	),
	// Dies out in two generations.
	"diagonal": mustStrings("diagonal",
		"O..",
		".O.",
		"..O",
	),
}

// Lookup returns the built-in pattern with the given name.
func Lookup(name string) (Pattern, error) {
	p, ok := builtins[strings.ToLower(name)]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknown, name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the built-in patterns in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
