package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/patterns"
)

func openTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testMeta(pattern string) RunMeta {
	return RunMeta{
		Pattern:    pattern,
		GridSize:   64,
		Row:        30,
		Col:        30,
		Iterations: 10,
		Workers:    2,
		Strategy:   "bbox",
		Rule:       "B3/S23",
	}
}

func TestOpen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	s, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "lifesim.db")); os.IsNotExist(err) {
		t.Error("lifesim.db was not created")
	}
	if s.Path() != DBPath(dir) {
		t.Errorf("Path() = %q, want %q", s.Path(), DBPath(dir))
	}
}

func TestRecorder_Completed(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, err := s.BeginRun(ctx, testMeta("blinker"))
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}

	run, err := s.Run(ctx, rec.ID())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if run.Status != StatusRunning || run.FinishedAt != nil {
		t.Errorf("new run = %+v, want running and unfinished", run)
	}

	boxes := []bbox.Box{bbox.Rect(9, 10, 3, 1), bbox.Rect(10, 9, 1, 3)}
	for i := 1; i <= 4; i++ {
		_ = rec.ReportGeneration(engine.GenerationResult{Generation: i, Population: 3, Box: boxes[i%2]})
	}
	if err := rec.ReportSummary(engine.Summary{Generations: 4, Population: 3}); err != nil {
		t.Fatalf("ReportSummary() error = %v", err)
	}

	run, err = s.Run(ctx, rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusCompleted || run.Generations != 4 || run.FinalPopulation != 3 {
		t.Errorf("finished run = %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("FinishedAt not set")
	}
	if run.RunMeta != testMeta("blinker") {
		t.Errorf("RunMeta = %+v, want %+v", run.RunMeta, testMeta("blinker"))
	}

	series, err := s.Generations(ctx, rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 4 {
		t.Fatalf("got %d generations, want 4", len(series))
	}
	for i, g := range series {
		if g.Generation != i+1 || g.Population != 3 || g.Box != boxes[(i+1)%2] {
			t.Errorf("series[%d] = %+v", i, g)
		}
	}
}

func TestRecorder_ExtinctStoresEmptyBox(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, _ := s.BeginRun(ctx, testMeta("diagonal"))
	_ = rec.ReportGeneration(engine.GenerationResult{Generation: 1, Population: 1, Box: bbox.Rect(5, 5, 1, 1)})
	_ = rec.ReportGeneration(engine.GenerationResult{Generation: 2, Population: 0, Box: bbox.Empty()})
	if err := rec.ReportSummary(engine.Summary{Generations: 2, Extinct: true}); err != nil {
		t.Fatal(err)
	}

	run, _ := s.Run(ctx, rec.ID())
	if run.Status != StatusExtinct {
		t.Errorf("Status = %s, want extinct", run.Status)
	}

	series, _ := s.Generations(ctx, rec.ID())
	if len(series) != 2 || !series[1].Box.IsEmpty() {
		t.Errorf("expected empty box for generation 2, got %+v", series)
	}
}

func TestRecorder_Fail(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	rec, err := s.BeginRun(ctx, testMeta("grower"))
	if err != nil {
		t.Fatal(err)
	}
	_ = rec.ReportGeneration(engine.GenerationResult{Generation: 1, Population: 15})
	cancel()

	if err := rec.Fail(context.Canceled); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}
	// Second finish is ignored.
	if err := rec.ReportSummary(engine.Summary{Generations: 9}); err != nil {
		t.Fatalf("ReportSummary() after Fail error = %v", err)
	}

	run, err := s.Run(context.Background(), rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != StatusFailed || run.Generations != 1 || run.FinalPopulation != 15 {
		t.Errorf("failed run = %+v", run)
	}
	if run.Error != context.Canceled.Error() {
		t.Errorf("Error = %q, want %q", run.Error, context.Canceled.Error())
	}
}

func TestRecorder_WithEngine(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := patterns.Lookup("grower")
	if err != nil {
		t.Fatal(err)
	}
	rec, err := s.BeginRun(ctx, testMeta("grower"))
	if err != nil {
		t.Fatal(err)
	}
	out, err := engine.Simulate(ctx, engine.Params{Size: 64, Pattern: p, Row: 30, Col: 30, Iterations: 10, Workers: 2}, rec)
	if err != nil {
		t.Fatal(err)
	}

	series, err := s.Generations(ctx, rec.ID())
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != len(out.Populations) {
		t.Fatalf("stored %d generations, simulated %d", len(series), len(out.Populations))
	}
	for i, g := range series {
		if g.Population != out.Populations[i] {
			t.Errorf("generation %d: stored %d, simulated %d", i+1, g.Population, out.Populations[i])
		}
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, name := range []string{"beehive", "grower", "beehive"} {
		rec, err := s.BeginRun(ctx, testMeta(name))
		if err != nil {
			t.Fatal(err)
		}
		_ = rec.ReportSummary(engine.Summary{})
	}

	tests := []struct {
		name    string
		pattern string
		limit   int
		want    int
	}{
		{"all", "", 0, 3},
		{"limited", "", 2, 2},
		{"by pattern", "beehive", 0, 2},
		{"no match", "glider", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := s.ListRuns(ctx, tt.pattern, tt.limit)
			if err != nil {
				t.Fatal(err)
			}
			if len(runs) != tt.want {
				t.Errorf("ListRuns() returned %d runs, want %d", len(runs), tt.want)
			}
			for i := 1; i < len(runs); i++ {
				if runs[i].ID > runs[i-1].ID {
					t.Error("runs not ordered newest first")
				}
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Run(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Run() error = %v, want ErrNotFound", err)
	}
	if _, err := s.Generations(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("Generations() error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteRun(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteRun() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteRun_Cascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec, _ := s.BeginRun(ctx, testMeta("block"))
	_ = rec.ReportGeneration(engine.GenerationResult{Generation: 1, Population: 4, Box: bbox.Rect(0, 0, 2, 2)})
	_ = rec.ReportSummary(engine.Summary{Generations: 1, Population: 4})

	if err := s.DeleteRun(ctx, rec.ID()); err != nil {
		t.Fatalf("DeleteRun() error = %v", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations WHERE run_id = ?`, rec.ID()).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d generation rows survived the delete", n)
	}
}

func TestPersistence(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ := s.BeginRun(ctx, testMeta("glider"))
	_ = rec.ReportGeneration(engine.GenerationResult{Generation: 1, Population: 5})
	_ = rec.ReportSummary(engine.Summary{Generations: 1, Population: 5})
	s.Close()

	s2, err := Open(ctx, dir)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s2.Close()

	runs, err := s2.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Pattern != "glider" {
		t.Errorf("after reopen got %+v", runs)
	}
}

func TestConnectionPoolSettings(t *testing.T) {
	s := openTestStore(t)
	if got := s.db.Stats().MaxOpenConnections; got != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", got)
	}
}
