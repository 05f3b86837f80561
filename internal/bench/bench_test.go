package bench

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/patterns"
)

func growerParams(t *testing.T) engine.Params {
	t.Helper()
	p, err := patterns.Lookup("grower")
	if err != nil {
		t.Fatal(err)
	}
	return engine.Params{Size: 96, Pattern: p, Row: 45, Col: 45, Iterations: 60}
}

func TestRun_Deterministic(t *testing.T) {
	rep, err := Run(context.Background(), growerParams(t), []int{1, 2, 3, 8}, 1)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rep.Results) != 4 {
		t.Fatalf("got %d results, want 4", len(rep.Results))
	}

	base := rep.Results[0]
	if base.Speedup != 1 {
		t.Errorf("baseline speedup = %v, want 1", base.Speedup)
	}
	for _, res := range rep.Results[1:] {
		if res.History != base.History || res.Final != base.Final {
			t.Errorf("%d workers fingerprint differs from 1 worker", res.Workers)
		}
		if res.Generations != 60 {
			t.Errorf("%d workers ran %d generations, want 60", res.Workers, res.Generations)
		}
	}
	if rep.Pattern != "grower" || rep.Strategy != "bbox" {
		t.Errorf("report header = %+v", rep)
	}
}

func TestRun_FullScanStrategy(t *testing.T) {
	p := growerParams(t)
	p.Strategy = engine.FullScan{}
	p.Iterations = 20

	full, err := Run(context.Background(), p, []int{1, 4}, 1)
	if err != nil {
		t.Fatal(err)
	}
	p.Strategy = engine.BoundingBox{}
	box, err := Run(context.Background(), p, []int{1}, 1)
	if err != nil {
		t.Fatal(err)
	}

	if full.Strategy != "full" {
		t.Errorf("Strategy = %q, want full", full.Strategy)
	}
	if full.Results[0].History != box.Results[0].History {
		t.Error("full-scan and bounding-box histories differ")
	}
}

func TestRun_InvalidInput(t *testing.T) {
	p := growerParams(t)
	if _, err := Run(context.Background(), p, nil, 1); err == nil {
		t.Error("expected error for no worker counts")
	}
	if _, err := Run(context.Background(), p, []int{1, 0}, 1); err == nil {
		t.Error("expected error for zero workers")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, growerParams(t), []int{1}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestHistoryHash(t *testing.T) {
	a := HistoryHash([]int{5, 6, 7})
	if a != HistoryHash([]int{5, 6, 7}) {
		t.Error("HistoryHash is not stable")
	}
	if a == HistoryHash([]int{5, 7, 6}) {
		t.Error("HistoryHash ignores order")
	}
	if HistoryHash(nil) == HistoryHash([]int{0}) {
		t.Error("HistoryHash ignores length")
	}
}

func TestGridHash(t *testing.T) {
	g1, _ := grid.New(16)
	g2, _ := grid.New(16)
	if GridHash(g1) != GridHash(g2) {
		t.Error("equal grids hash differently")
	}
	g2.Set(3, 4, grid.Alive)
	if GridHash(g1) == GridHash(g2) {
		t.Error("different grids hash equally")
	}
}

func TestCounts(t *testing.T) {
	tests := []struct {
		limit int
		want  []int
	}{
		{1, []int{1}},
		{4, []int{1, 2, 4}},
		{6, []int{1, 2, 4, 6}},
		{0, nil},
	}
	for _, tt := range tests {
		if got := Counts(tt.limit); !slices.Equal(got, tt.want) {
			t.Errorf("Counts(%d) = %v, want %v", tt.limit, got, tt.want)
		}
	}
}

func TestWriteTable(t *testing.T) {
	rep, err := Run(context.Background(), growerParams(t), []int{1, 2}, 2)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, rep); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"grower on 96x96", "best of 2", "workers", "speedup", "1.00x"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}
