// Package bbox tracks the rectangle of a grid that can contain live cells.
//
// A Box is a closed rectangle [MinRow, MaxRow] x [MinCol, MaxCol]. The empty
// box is any box with MinRow > MaxRow; Empty() returns the canonical one, which
// is also the identity element for Include and Merge.
package bbox

import (
	"fmt"
	"math"
)

// Box is an inclusive, axis-aligned rectangle of grid cells.
type Box struct {
	MinRow int `json:"min_row"`
	MaxRow int `json:"max_row"`
	MinCol int `json:"min_col"`
	MaxCol int `json:"max_col"`
}

// Empty returns the empty-box sentinel.
func Empty() Box {
	return Box{
		MinRow: math.MaxInt,
		MaxRow: math.MinInt,
		MinCol: math.MaxInt,
		MaxCol: math.MinInt,
	}
}

// Full returns the box covering a size x size grid.
func Full(size int) Box {
	if size <= 0 {
		return Empty()
	}
	return Box{MinRow: 0, MaxRow: size - 1, MinCol: 0, MaxCol: size - 1}
}

// Rect returns the box with top-left corner (row, col) spanning height rows
// and width columns.
func Rect(row, col, height, width int) Box {
	if height <= 0 || width <= 0 {
		return Empty()
	}
	return Box{MinRow: row, MaxRow: row + height - 1, MinCol: col, MaxCol: col + width - 1}
}

// IsEmpty reports whether the box contains no cells.
func (b Box) IsEmpty() bool {
	return b.MinRow > b.MaxRow || b.MinCol > b.MaxCol
}

// Height returns the number of rows covered, 0 for the empty box.
func (b Box) Height() int {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxRow - b.MinRow + 1
}

// Width returns the number of columns covered, 0 for the empty box.
func (b Box) Width() int {
	if b.IsEmpty() {
		return 0
	}
	return b.MaxCol - b.MinCol + 1
}

// Area returns Height*Width.
func (b Box) Area() int {
	return b.Height() * b.Width()
}

// Contains reports whether (row, col) lies inside the box.
func (b Box) Contains(row, col int) bool {
	return row >= b.MinRow && row <= b.MaxRow && col >= b.MinCol && col <= b.MaxCol
}

// ContainsBox reports whether every cell of o lies inside b.
// The empty box is contained in every box.
func (b Box) ContainsBox(o Box) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Contains(o.MinRow, o.MinCol) && b.Contains(o.MaxRow, o.MaxCol)
}

// Include returns the smallest box containing b and the cell (row, col).
func (b Box) Include(row, col int) Box {
	b.MinRow = min(b.MinRow, row)
	b.MaxRow = max(b.MaxRow, row)
	b.MinCol = min(b.MinCol, col)
	b.MaxCol = max(b.MaxCol, col)
	return b
}

// Merge returns the smallest box containing both b and o. It is commutative
// and associative, with Empty() as identity.
func (b Box) Merge(o Box) Box {
	if o.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return o
	}
	return Box{
		MinRow: min(b.MinRow, o.MinRow),
		MaxRow: max(b.MaxRow, o.MaxRow),
		MinCol: min(b.MinCol, o.MinCol),
		MaxCol: max(b.MaxCol, o.MaxCol),
	}
}

// Expand grows the box by margin cells on every side. The empty box stays empty.
func (b Box) Expand(margin int) Box {
	if b.IsEmpty() {
		return b
	}
	return Box{
		MinRow: b.MinRow - margin,
		MaxRow: b.MaxRow + margin,
		MinCol: b.MinCol - margin,
		MaxCol: b.MaxCol + margin,
	}
}

// Clamp intersects the box with [0, size) x [0, size).
func (b Box) Clamp(size int) Box {
	return b.Intersect(Full(size))
}

// Intersect returns the overlap of b and o, or the empty box.
func (b Box) Intersect(o Box) Box {
	if b.IsEmpty() || o.IsEmpty() {
		return Empty()
	}
	r := Box{
		MinRow: max(b.MinRow, o.MinRow),
		MaxRow: min(b.MaxRow, o.MaxRow),
		MinCol: max(b.MinCol, o.MinCol),
		MaxCol: min(b.MaxCol, o.MaxCol),
	}
	if r.IsEmpty() {
		return Empty()
	}
	return r
}

func (b Box) String() string {
	if b.IsEmpty() {
		return "[empty]"
	}
	return fmt.Sprintf("[%d..%d]x[%d..%d]", b.MinRow, b.MaxRow, b.MinCol, b.MaxCol)
}
