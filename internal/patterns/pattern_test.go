package patterns

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/lifesim/internal/grid"
)

func TestBuiltins(t *testing.T) {
	tests := []struct {
		name       string
		height     int
		width      int
		population int
	}{
		{"beehive", 3, 4, 6},
		{"grower", 5, 5, 13},
		{"blinker", 1, 3, 3},
		{"block", 2, 2, 4},
		{"glider", 3, 3, 5},
		{"r-pentomino", 3, 3, 5},
		{"diagonal", 3, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.name, err)
			}
			if p.Height() != tt.height || p.Width() != tt.width {
				t.Errorf("dims = %dx%d, want %dx%d", p.Height(), p.Width(), tt.height, tt.width)
			}
			if p.Population() != tt.population {
				t.Errorf("Population() = %d, want %d", p.Population(), tt.population)
			}
		})
	}
	if len(Names()) != len(tests) {
		t.Errorf("Names() has %d entries, want %d", len(Names()), len(tests))
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup("gosper-gun"); !errors.Is(err, ErrUnknown) {
		t.Errorf("Lookup error = %v, want ErrUnknown", err)
	}
}

func TestLookup_CaseInsensitive(t *testing.T) {
	if _, err := Lookup("BeeHive"); err != nil {
		t.Errorf("Lookup(BeeHive) failed: %v", err)
	}
}

func TestPlace(t *testing.T) {
	g, _ := grid.New(10)
	p, _ := Lookup("beehive")
	if err := Place(g, p, 2, 3); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if g.Population() != 6 {
		t.Errorf("Population() = %d, want 6", g.Population())
	}
	for i := 0; i < p.Height(); i++ {
		for j := 0; j < p.Width(); j++ {
			if g.Get(2+i, 3+j) != p.At(i, j) {
				t.Errorf("cell (%d,%d) = %d, want %d", 2+i, 3+j, g.Get(2+i, 3+j), p.At(i, j))
			}
		}
	}
}

func TestPlace_OutOfBounds(t *testing.T) {
	p, _ := Lookup("grower")
	tests := []struct {
		name     string
		row, col int
	}{
		{"past bottom", 8, 0},
		{"past right", 0, 6},
		{"negative row", -1, 0},
		{"negative col", 0, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := grid.New(10)
			err := Place(g, p, tt.row, tt.col)
			if !errors.Is(err, ErrOutOfBounds) {
				t.Fatalf("Place error = %v, want ErrOutOfBounds", err)
			}
			if g.Population() != 0 {
				t.Error("failed placement must not touch the grid")
			}
		})
	}
}

func TestPlace_ExactFit(t *testing.T) {
	g, _ := grid.New(5)
	p, _ := Lookup("grower")
	if err := Place(g, p, 0, 0); err != nil {
		t.Errorf("5x5 pattern on 5x5 grid should fit: %v", err)
	}
}

func TestCenter(t *testing.T) {
	p, _ := Lookup("beehive")
	row, col := Center(p, 11)
	if row != 4 || col != 3 {
		t.Errorf("Center = (%d,%d), want (4,3)", row, col)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New("ragged", [][]uint8{{1, 0}, {1}}); err == nil {
		t.Error("expected error for ragged rows")
	}
	if _, err := New("bad", [][]uint8{{2}}); err == nil {
		t.Error("expected error for non-binary cell")
	}
	if _, err := New("empty", nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestNew_CopiesInput(t *testing.T) {
	rows := [][]uint8{{1, 0}, {0, 1}}
	p, err := New("copy", rows)
	if err != nil {
		t.Fatal(err)
	}
	rows[0][0] = 0
	if p.At(0, 0) != 1 {
		t.Error("pattern should not alias caller's rows")
	}
}

func TestParsePlaintext(t *testing.T) {
	text := "!Name: Toad\n! period 2\n.OOO\nOOO.\n\n"
	p, err := ParsePlaintext(text, "fallback")
	if err != nil {
		t.Fatalf("ParsePlaintext failed: %v", err)
	}
	if p.Name() != "Toad" {
		t.Errorf("Name() = %q, want Toad", p.Name())
	}
	if p.Height() != 2 || p.Width() != 4 || p.Population() != 6 {
		t.Errorf("got %dx%d pop %d, want 2x4 pop 6", p.Height(), p.Width(), p.Population())
	}
	if p.String() != ".OOO\nOOO.\n" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()

	yamlPath := filepath.Join(tmpDir, "ship.yaml")
	yamlContent := `
name: ship
rows:
  - "OO."
  - "O.O"
  - ".OO"
`
	if err := os.WriteFile(yamlPath, []byte(yamlContent), 0600); err != nil {
		t.Fatal(err)
	}
	cellsPath := filepath.Join(tmpDir, "boat.cells")
	if err := os.WriteFile(cellsPath, []byte("OO.\nO.O\n.O.\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path       string
		name       string
		population int
	}{
		{yamlPath, "ship", 6},
		{cellsPath, "boat", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := LoadFile(tt.path)
			if err != nil {
				t.Fatalf("LoadFile failed: %v", err)
			}
			if p.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.name)
			}
			if p.Population() != tt.population {
				t.Errorf("Population() = %d, want %d", p.Population(), tt.population)
			}
		})
	}

	if _, err := Resolve(cellsPath); err != nil {
		t.Errorf("Resolve(file) failed: %v", err)
	}
	if _, err := Resolve("beehive"); err != nil {
		t.Errorf("Resolve(builtin) failed: %v", err)
	}
	if _, err := Resolve(filepath.Join(tmpDir, "missing.cells")); !errors.Is(err, ErrUnknown) {
		t.Errorf("Resolve(missing) error = %v, want ErrUnknown", err)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tmpDir := t.TempDir()
	if _, err := LoadFile(filepath.Join(tmpDir, "nope.cells")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(tmpDir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: nothing\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(empty); err == nil {
		t.Error("expected error for pattern without rows")
	}
}
