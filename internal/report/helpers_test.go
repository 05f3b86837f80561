package report

import (
	"testing"

	"github.com/nvandessel/lifesim/internal/grid"
)

func newBlinkerGrid(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New(8)
	if err != nil {
		t.Fatal(err)
	}
	for col := 2; col <= 4; col++ {
		g.Set(3, col, grid.Alive)
	}
	return g
}
