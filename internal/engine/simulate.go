package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/patterns"
	"github.com/nvandessel/lifesim/internal/rule"
)

// Params describes a complete run from an empty grid.
type Params struct {
	Size       int
	Pattern    patterns.Pattern
	Row, Col   int
	Iterations int
	Workers    int
	Strategy   Strategy
	// Rule is nil for Conway. B/S, where every cell dies, is a valid rule.
	Rule   *rule.Rule
	Logger *slog.Logger
}

// Outcome is what Simulate returns.
type Outcome struct {
	Summary
	// Populations[i] is the population after generation i+1.
	Populations []int
	Final       *grid.Grid
}

// Prepare allocates the grid, stamps the pattern and builds the engine.
// Errors wrap grid.ErrAllocation or patterns.ErrOutOfBounds.
func Prepare(p Params) (*Engine, error) {
	g, err := grid.New(p.Size)
	if err != nil {
		return nil, err
	}
	if err := patterns.Place(g, p.Pattern, p.Row, p.Col); err != nil {
		return nil, err
	}

	r := rule.Conway
	if p.Rule != nil {
		r = *p.Rule
	}
	return New(g,
		WithWorkers(p.Workers),
		WithStrategy(p.Strategy),
		WithRule(r),
		WithLogger(p.Logger),
	)
}

// Simulate prepares an engine, runs it for p.Iterations generations and
// collects the population sequence. rep may be nil.
func Simulate(ctx context.Context, p Params, rep Reporter) (Outcome, error) {
	e, err := Prepare(p)
	if err != nil {
		return Outcome{}, err
	}

	rec := &sequenceRecorder{next: rep}
	sum, err := e.Run(ctx, p.Iterations, rec)
	if err != nil {
		return Outcome{}, fmt.Errorf("simulating %q: %w", p.Pattern.Name(), err)
	}
	return Outcome{Summary: sum, Populations: rec.populations, Final: e.Current()}, nil
}

// sequenceRecorder keeps the population sequence and forwards to next.
type sequenceRecorder struct {
	populations []int
	next        Reporter
}

func (s *sequenceRecorder) ReportGeneration(r GenerationResult) error {
	s.populations = append(s.populations, r.Population)
	if s.next != nil {
		return s.next.ReportGeneration(r)
	}
	return nil
}

func (s *sequenceRecorder) ReportSummary(sum Summary) error {
	if s.next != nil {
		return s.next.ReportSummary(sum)
	}
	return nil
}
