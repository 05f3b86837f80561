// Package render draws a region of a grid as text.
package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/grid"
)

// Glyphs are the characters used for live and dead cells.
type Glyphs struct {
	Alive rune
	Dead  rune
}

// DefaultGlyphs draws live cells as '#' and dead cells as a space.
var DefaultGlyphs = Glyphs{Alive: '#', Dead: ' '}

// GlyphsFrom builds Glyphs from config strings, keeping the default for
// any empty string.
func GlyphsFrom(alive, dead string) Glyphs {
	g := DefaultGlyphs
	if r := []rune(alive); len(r) > 0 {
		g.Alive = r[0]
	}
	if r := []rune(dead); len(r) > 0 {
		g.Dead = r[0]
	}
	return g
}

// Render writes region of g, one line per row. The region is clamped to the
// grid; an empty region writes nothing.
func Render(w io.Writer, g *grid.Grid, region bbox.Box, glyphs Glyphs) error {
	region = region.Clamp(g.Size())
	if region.IsEmpty() {
		return nil
	}

	bw := bufio.NewWriter(w)
	for row := region.MinRow; row <= region.MaxRow; row++ {
		cells := g.Row(row)[region.MinCol : region.MaxCol+1]
		for _, c := range cells {
			ch := glyphs.Dead
			if c == grid.Alive {
				ch = glyphs.Alive
			}
			if _, err := bw.WriteRune(ch); err != nil {
				return fmt.Errorf("rendering row %d: %w", row, err)
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("rendering row %d: %w", row, err)
		}
	}
	return bw.Flush()
}

// Around returns the h x w window at (row, col) grown by margin on every
// side and clamped to the grid.
func Around(g *grid.Grid, row, col, h, w, margin int) bbox.Box {
	return bbox.Rect(row, col, h, w).Expand(margin).Clamp(g.Size())
}

// String renders region of g with the default glyphs.
func String(g *grid.Grid, region bbox.Box) string {
	var sb strings.Builder
	_ = Render(&sb, g, region, DefaultGlyphs)
	return sb.String()
}
