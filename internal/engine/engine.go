// Package engine evolves a grid generation by generation.
//
// An Engine owns two grids, current and next. Each Step clears next, asks
// the Strategy for the scan region, runs the Reducer over it, then swaps the
// two grid handles. The population and live-cell box of the new generation
// are returned in a GenerationResult and carried on the Engine for the next
// step; nothing is shared outside it.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/logging"
	"github.com/nvandessel/lifesim/internal/rule"
)

// GenerationResult is the outcome of one Step.
type GenerationResult struct {
	// Generation is 1 for the first computed generation.
	Generation int `json:"generation"`
	Population int `json:"population"`
	// Box is the exact live-cell box of this generation.
	Box bbox.Box `json:"box"`
	// Scanned is the region the reducer visited to produce it.
	Scanned bbox.Box `json:"scanned"`
	// Grid is the engine's current grid after the swap. It is overwritten
	// two steps later; Clone it to keep it.
	Grid *grid.Grid `json:"-"`
}

// Summary describes a finished Run.
type Summary struct {
	Generations int           `json:"generations"`
	Population  int           `json:"population"`
	Extinct     bool          `json:"extinct"`
	Box         bbox.Box      `json:"box"`
	Elapsed     time.Duration `json:"elapsed"`
}

// ElapsedSeconds returns Elapsed as fractional seconds.
func (s Summary) ElapsedSeconds() float64 { return s.Elapsed.Seconds() }

// Reporter consumes progress. Returning an error aborts the run.
type Reporter interface {
	ReportGeneration(GenerationResult) error
	ReportSummary(Summary) error
}

type nopReporter struct{}

func (nopReporter) ReportGeneration(GenerationResult) error { return nil }
func (nopReporter) ReportSummary(Summary) error             { return nil }

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the reducer goroutine count; <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithRule replaces the Conway rule.
func WithRule(r rule.Rule) Option {
	return func(e *Engine) { e.rule = r }
}

// WithStrategy selects full-grid or bounding-box scanning.
func WithStrategy(s Strategy) Option {
	return func(e *Engine) {
		if s != nil {
			e.strategy = s
		}
	}
}

// WithLogger sets the logger used for debug and trace output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine drives generations over a double-buffered grid.
type Engine struct {
	current  *grid.Grid
	next     *grid.Grid
	reducer  *Reducer
	strategy Strategy
	rule     rule.Rule
	workers  int
	logger   *slog.Logger

	tracker    bbox.Tracker
	population int
	generation int
}

// New builds an engine that evolves current in place. It allocates the
// second buffer; the error wraps grid.ErrAllocation if that fails.
func New(current *grid.Grid, opts ...Option) (*Engine, error) {
	e := &Engine{
		current:  current,
		strategy: BoundingBox{},
		rule:     rule.Conway,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}

	next, err := grid.New(current.Size())
	if err != nil {
		return nil, fmt.Errorf("allocating next buffer: %w", err)
	}
	e.next = next
	e.reducer = NewReducer(e.workers, e.rule)
	e.tracker = bbox.NewTracker(current.Size(), current.LiveBounds())
	e.population = current.Population()

	e.logger.Debug("engine ready",
		"size", current.Size(),
		"strategy", e.strategy.Name(),
		"workers", e.reducer.Workers(),
		"rule", e.rule.String(),
		"population", e.population,
		"box", e.tracker.Box().String(),
	)
	return e, nil
}

// Current returns the grid holding the latest generation.
func (e *Engine) Current() *grid.Grid { return e.current }

// Generation returns the number of generations computed so far.
func (e *Engine) Generation() int { return e.generation }

// Population returns the live-cell count of the latest generation.
func (e *Engine) Population() int { return e.population }

// Tracker returns the bounding-box tracker of the latest generation.
func (e *Engine) Tracker() bbox.Tracker { return e.tracker }

// Rule returns the birth/survival rule.
func (e *Engine) Rule() rule.Rule { return e.rule }

// Strategy returns the scan strategy.
func (e *Engine) Strategy() Strategy { return e.strategy }

// Workers returns the reducer goroutine count.
func (e *Engine) Workers() int { return e.reducer.Workers() }

// Step computes one generation.
func (e *Engine) Step(ctx context.Context) (GenerationResult, error) {
	// Clear all of next: cells outside this scan region may still hold the
	// generation before last.
	e.next.Zero()

	region := e.strategy.ScanRegion(e.tracker)
	part, err := e.reducer.Reduce(ctx, e.current, e.next, region)
	if err != nil {
		return GenerationResult{}, fmt.Errorf("generation %d: %w", e.generation+1, err)
	}

	e.current, e.next = e.next, e.current
	e.generation++
	e.population = part.Population
	e.tracker = e.tracker.Advance(part.Box)

	e.logger.Log(ctx, logging.LevelTrace, "generation",
		"generation", e.generation,
		"population", e.population,
		"scanned", region.String(),
		"box", part.Box.String(),
	)

	return GenerationResult{
		Generation: e.generation,
		Population: e.population,
		Box:        part.Box,
		Scanned:    region,
		Grid:       e.current,
	}, nil
}

// Run steps until budget generations have been computed or the population
// reaches zero, reporting each generation and then the summary. A nil
// reporter discards progress.
func (e *Engine) Run(ctx context.Context, budget int, rep Reporter) (Summary, error) {
	if rep == nil {
		rep = nopReporter{}
	}

	start := time.Now()
	done := 0
	for done < budget && e.tracker.State() == bbox.Active {
		res, err := e.Step(ctx)
		if err != nil {
			return Summary{}, err
		}
		done++
		if err := rep.ReportGeneration(res); err != nil {
			return Summary{}, fmt.Errorf("reporting generation %d: %w", res.Generation, err)
		}
	}

	sum := Summary{
		Generations: done,
		Population:  e.population,
		Extinct:     e.tracker.State() == bbox.Extinct,
		Box:         e.tracker.Box(),
		Elapsed:     time.Since(start),
	}
	if sum.Extinct {
		e.logger.Info("population extinct", "generation", e.generation, "budget", budget)
	}
	if err := rep.ReportSummary(sum); err != nil {
		return sum, fmt.Errorf("reporting summary: %w", err)
	}
	return sum, nil
}
