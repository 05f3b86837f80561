package engine

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/patterns"
	"github.com/nvandessel/lifesim/internal/rule"
)

// collectReporter records everything the engine reports.
type collectReporter struct {
	results []GenerationResult
	summary *Summary
	failAt  int
}

var errReporter = errors.New("reporter failed")

func (c *collectReporter) ReportGeneration(r GenerationResult) error {
	c.results = append(c.results, r)
	if c.failAt > 0 && r.Generation == c.failAt {
		return errReporter
	}
	return nil
}

func (c *collectReporter) ReportSummary(s Summary) error {
	c.summary = &s
	return nil
}

func mustPattern(t *testing.T, name string) patterns.Pattern {
	t.Helper()
	p, err := patterns.Lookup(name)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func placed(t *testing.T, size int, name string, row, col int) *grid.Grid {
	t.Helper()
	g := newGrid(t, size)
	if err := patterns.Place(g, mustPattern(t, name), row, col); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestRun_BeehiveIsStill(t *testing.T) {
	for _, s := range []Strategy{FullScan{}, BoundingBox{}} {
		t.Run(s.Name(), func(t *testing.T) {
			g := placed(t, 20, "beehive", 8, 8)
			initial := g.Clone()

			e, err := New(g, WithStrategy(s), WithWorkers(3))
			if err != nil {
				t.Fatal(err)
			}
			rep := &collectReporter{}
			sum, err := e.Run(context.Background(), 50, rep)
			if err != nil {
				t.Fatal(err)
			}

			if sum.Generations != 50 || sum.Extinct {
				t.Errorf("summary = %+v, want 50 generations, not extinct", sum)
			}
			for _, r := range rep.results {
				if r.Population != 6 {
					t.Fatalf("generation %d population = %d, want 6", r.Generation, r.Population)
				}
			}
			if !e.Current().Equal(initial) {
				t.Error("beehive live-cell set changed")
			}
		})
	}
}

func TestRun_ExtinctionStopsEarly(t *testing.T) {
	tests := []struct {
		name        string
		cells       [][2]int
		generations int
	}{
		{"single cell", [][2]int{{5, 5}}, 1},
		{"diagonal line", [][2]int{{4, 4}, {5, 5}, {6, 6}}, 2},
		{"pair", [][2]int{{5, 5}, {5, 6}}, 1},
	}
	for _, tt := range tests {
		for _, s := range []Strategy{FullScan{}, BoundingBox{}} {
			t.Run(tt.name+"/"+s.Name(), func(t *testing.T) {
				e, err := New(newGrid(t, 12, tt.cells...), WithStrategy(s))
				if err != nil {
					t.Fatal(err)
				}
				rep := &collectReporter{}
				sum, err := e.Run(context.Background(), 1000, rep)
				if err != nil {
					t.Fatal(err)
				}
				if !sum.Extinct || sum.Population != 0 {
					t.Errorf("summary = %+v, want extinct", sum)
				}
				if sum.Generations != tt.generations {
					t.Errorf("Generations = %d, want %d", sum.Generations, tt.generations)
				}
				if len(rep.results) != tt.generations {
					t.Errorf("reported %d generations, want %d", len(rep.results), tt.generations)
				}
				if rep.summary == nil || rep.summary.Generations != tt.generations {
					t.Errorf("summary not reported correctly: %+v", rep.summary)
				}
			})
		}
	}
}

func TestRun_EmptyGridIsAlreadyExtinct(t *testing.T) {
	e, err := New(newGrid(t, 8))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := e.Run(context.Background(), 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Generations != 0 || !sum.Extinct {
		t.Errorf("summary = %+v, want 0 generations and extinct", sum)
	}
}

func TestStep_EdgeDoesNotWrap(t *testing.T) {
	const n = 10
	// Horizontal blinker on the top edge.
	g := newGrid(t, n, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2})
	e, err := New(g, WithStrategy(FullScan{}))
	if err != nil {
		t.Fatal(err)
	}

	res, err := e.Step(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Population != 2 {
		t.Errorf("Population = %d, want 2", res.Population)
	}
	cur := e.Current()
	if cur.Get(0, 1) != grid.Alive || cur.Get(1, 1) != grid.Alive {
		t.Error("expected (0,1) and (1,1) alive")
	}
	if cur.Get(n-1, 1) != grid.Dead {
		t.Error("birth wrapped to the bottom edge")
	}

	sum, err := e.Run(context.Background(), 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Extinct || e.Generation() != 2 {
		t.Errorf("edge blinker should die at generation 2, got %+v at %d", sum, e.Generation())
	}
}

func TestRun_CornerBlockIsStill(t *testing.T) {
	for _, s := range []Strategy{FullScan{}, BoundingBox{}} {
		t.Run(s.Name(), func(t *testing.T) {
			g := placed(t, 9, "block", 0, 0)
			e, err := New(g, WithStrategy(s))
			if err != nil {
				t.Fatal(err)
			}
			sum, err := e.Run(context.Background(), 20, nil)
			if err != nil {
				t.Fatal(err)
			}
			if sum.Population != 4 || sum.Generations != 20 {
				t.Errorf("summary = %+v, want population 4 after 20", sum)
			}
		})
	}
}

func TestRun_BlinkerOscillates(t *testing.T) {
	g := placed(t, 9, "blinker", 4, 3)
	initial := g.Clone()
	e, err := New(g)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 6; i++ {
		res, err := e.Step(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if res.Population != 3 {
			t.Fatalf("generation %d population = %d, want 3", i, res.Population)
		}
		if (i%2 == 0) != e.Current().Equal(initial) {
			t.Errorf("generation %d: period-2 oscillation broken", i)
		}
	}
}

// TestStrategies_Lockstep runs both strategies side by side and compares
// every generation cell for cell.
func TestStrategies_Lockstep(t *testing.T) {
	tests := []struct {
		pattern     string
		size        int
		generations int
	}{
		{"grower", 96, 400},
		{"r-pentomino", 80, 300},
		{"glider", 24, 120},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p := mustPattern(t, tt.pattern)
			row, col := patterns.Center(p, tt.size)

			full, err := New(placed(t, tt.size, tt.pattern, row, col), WithStrategy(FullScan{}), WithWorkers(4))
			if err != nil {
				t.Fatal(err)
			}
			boxed, err := New(placed(t, tt.size, tt.pattern, row, col), WithStrategy(BoundingBox{}), WithWorkers(4))
			if err != nil {
				t.Fatal(err)
			}

			ctx := context.Background()
			for gen := 1; gen <= tt.generations; gen++ {
				fr, err := full.Step(ctx)
				if err != nil {
					t.Fatal(err)
				}
				br, err := boxed.Step(ctx)
				if err != nil {
					t.Fatal(err)
				}
				if fr.Population != br.Population {
					t.Fatalf("generation %d: full population %d, bbox %d", gen, fr.Population, br.Population)
				}
				if !full.Current().Equal(boxed.Current()) {
					t.Fatalf("generation %d: grids diverge", gen)
				}
				if live := boxed.Current().LiveBounds(); br.Box != live {
					t.Fatalf("generation %d: tracked box %v, live bounds %v", gen, br.Box, live)
				}
				if !br.Scanned.ContainsBox(br.Box) {
					t.Fatalf("generation %d: live box %v outside scanned %v", gen, br.Box, br.Scanned)
				}
				if fr.Population == 0 {
					break
				}
			}
		})
	}
}

// TestStrategies_ReferenceRun evolves the grower at (1500,1500) on the
// 3000x3000 reference grid with both strategies.
func TestStrategies_ReferenceRun(t *testing.T) {
	if testing.Short() {
		t.Skip("reference-size run skipped in short mode")
	}

	const size, offset, generations = 3000, 1500, 1000
	p := mustPattern(t, "grower")

	run := func(s Strategy) Outcome {
		t.Helper()
		out, err := Simulate(context.Background(), Params{
			Size:       size,
			Pattern:    p,
			Row:        offset,
			Col:        offset,
			Iterations: generations,
			Strategy:   s,
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}

	boxed := run(BoundingBox{})
	full := run(FullScan{})

	if boxed.Generations != generations || boxed.Extinct {
		t.Fatalf("bbox run = %+v, want %d generations without extinction", boxed.Summary, generations)
	}
	if !slices.Equal(boxed.Populations, full.Populations) {
		for i := range boxed.Populations {
			if boxed.Populations[i] != full.Populations[i] {
				t.Fatalf("generation %d: bbox population %d, full %d", i+1, boxed.Populations[i], full.Populations[i])
			}
		}
		t.Fatalf("population series lengths differ: %d vs %d", len(boxed.Populations), len(full.Populations))
	}
	if !boxed.Final.Equal(full.Final) {
		t.Error("final grids diverge")
	}
	if boxed.Box != full.Box || boxed.Box != boxed.Final.LiveBounds() {
		t.Errorf("final box bbox %v, full %v, live %v", boxed.Box, full.Box, boxed.Final.LiveBounds())
	}
}

func TestSimulate_DeterministicAcrossWorkers(t *testing.T) {
	p := mustPattern(t, "grower")
	var want []int
	for _, workers := range []int{1, 2, 5, 16} {
		for _, s := range []Strategy{BoundingBox{}, FullScan{}} {
			out, err := Simulate(context.Background(), Params{
				Size:       64,
				Pattern:    p,
				Row:        30,
				Col:        30,
				Iterations: 150,
				Workers:    workers,
				Strategy:   s,
			}, nil)
			if err != nil {
				t.Fatal(err)
			}
			if want == nil {
				want = out.Populations
				continue
			}
			if !slices.Equal(out.Populations, want) {
				t.Errorf("workers=%d strategy=%s: population sequence differs", workers, s.Name())
			}
		}
	}
	if len(want) != 150 {
		t.Errorf("recorded %d generations, want 150", len(want))
	}
}

func TestRun_ReportsGenerationIndex(t *testing.T) {
	e, err := New(placed(t, 12, "blinker", 5, 4))
	if err != nil {
		t.Fatal(err)
	}
	rep := &collectReporter{}
	if _, err := e.Run(context.Background(), 5, rep); err != nil {
		t.Fatal(err)
	}
	for i, r := range rep.results {
		if r.Generation != i+1 {
			t.Errorf("result %d has Generation %d, want %d", i, r.Generation, i+1)
		}
	}
}

func TestRun_ReporterErrorAborts(t *testing.T) {
	e, err := New(placed(t, 12, "blinker", 5, 4))
	if err != nil {
		t.Fatal(err)
	}
	rep := &collectReporter{failAt: 3}
	_, err = e.Run(context.Background(), 10, rep)
	if !errors.Is(err, errReporter) {
		t.Fatalf("Run error = %v, want errReporter", err)
	}
	if e.Generation() != 3 {
		t.Errorf("Generation() = %d, want 3", e.Generation())
	}
}

func TestRun_Cancelled(t *testing.T) {
	e, err := New(placed(t, 12, "blinker", 5, 4))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Run(ctx, 10, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestWithRule(t *testing.T) {
	// Without survival a block dies immediately; under Conway it is still.
	e, err := New(placed(t, 8, "block", 3, 3), WithRule(rule.MustParse("B3/S")))
	if err != nil {
		t.Fatal(err)
	}
	sum, err := e.Run(context.Background(), 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Extinct || sum.Generations != 1 {
		t.Errorf("summary = %+v, want extinct after 1", sum)
	}
}

func TestPrepare_EmptyRule(t *testing.T) {
	// B/S has no births and no survivors, so everything dies in one step.
	empty := rule.MustParse("B/S")
	out, err := Simulate(context.Background(), Params{
		Size:       12,
		Pattern:    mustPattern(t, "beehive"),
		Row:        4,
		Col:        4,
		Iterations: 3,
		Rule:       &empty,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Extinct || out.Generations != 1 || !slices.Equal(out.Populations, []int{0}) {
		t.Errorf("B/S run = %+v populations %v, want extinct after 1", out.Summary, out.Populations)
	}
}

func TestPrepare_NilRuleIsConway(t *testing.T) {
	e, err := Prepare(Params{Size: 12, Pattern: mustPattern(t, "beehive"), Row: 4, Col: 4})
	if err != nil {
		t.Fatal(err)
	}
	if e.Rule() != rule.Conway {
		t.Errorf("rule = %s, want %s", e.Rule(), rule.Conway)
	}
}

func TestPrepare_Errors(t *testing.T) {
	p := mustPattern(t, "grower")

	_, err := Prepare(Params{Size: 10, Pattern: p, Row: 8, Col: 8})
	if !errors.Is(err, patterns.ErrOutOfBounds) {
		t.Errorf("Prepare error = %v, want ErrOutOfBounds", err)
	}

	_, err = Prepare(Params{Size: 0, Pattern: p})
	if !errors.Is(err, grid.ErrAllocation) {
		t.Errorf("Prepare error = %v, want ErrAllocation", err)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"", "bbox", false},
		{"bbox", "bbox", false},
		{"bounding-box", "bbox", false},
		{"FULL", "full", false},
		{"full-scan", "full", false},
		{"sparse", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := ParseStrategy(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", s.Name(), tt.want)
			}
		})
	}
}
