package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/grid"
	"github.com/nvandessel/lifesim/internal/patterns"
	"github.com/nvandessel/lifesim/internal/ratelimit"
	"github.com/nvandessel/lifesim/internal/render"
	"github.com/nvandessel/lifesim/internal/rule"
	"github.com/nvandessel/lifesim/internal/store"
)

// Bounds on tool arguments. A run allocates two size*size grids.
const (
	maxToolSize        = 4096
	maxToolIterations  = 10000
	maxRenderGens      = 1000
	maxRenderDimension = 200
	defaultHistory     = 20
)

// registerTools registers all lifesim MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "lifesim_run",
		Description: "Evolve a Game of Life pattern on an N x N grid and return the population after every generation",
	}, s.handleLifesimRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "lifesim_patterns",
		Description: "List the built-in patterns with their dimensions and cells",
	}, s.handleLifesimPatterns)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "lifesim_render",
		Description: "Evolve a pattern on an unbounded plane for some generations and draw it as text",
	}, s.handleLifesimRender)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "lifesim_history",
		Description: "List recorded runs, or return one run with its population series",
	}, s.handleLifesimHistory)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         "lifesim://patterns",
		Name:        "lifesim-patterns",
		Description: "Catalogue of built-in Game of Life patterns drawn as text.",
		MIMEType:    "text/markdown",
	}, s.handlePatternsResource)
}

func (s *Server) handlePatternsResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var sb strings.Builder
	sb.WriteString("# Built-in patterns\n\n")
	for _, name := range patterns.Names() {
		p, err := patterns.Lookup(name)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&sb, "## %s\n\n%dx%d, %d live cells\n\n```\n%s```\n\n", p.Name(), p.Height(), p.Width(), p.Population(), p.String())
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      "lifesim://patterns",
				MIMEType: "text/markdown",
				Text:     sb.String(),
			},
		},
	}, nil
}

// resolvePattern returns the inline pattern if cells is set, else the named
// built-in. File paths are not accepted over MCP.
func resolvePattern(name, cells, fallback string) (patterns.Pattern, error) {
	if strings.TrimSpace(cells) != "" {
		return patterns.ParsePlaintext(cells, "inline")
	}
	if name == "" {
		name = fallback
	}
	return patterns.Lookup(name)
}

func (s *Server) handleLifesimRun(ctx context.Context, req *sdk.CallToolRequest, args LifesimRunInput) (_ *sdk.CallToolResult, _ LifesimRunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("lifesim_run", start, retErr, sanitizeToolParams(map[string]any{
			"pattern": args.Pattern, "size": args.Size, "iterations": args.Iterations,
			"workers": args.Workers, "strategy": args.Strategy, "rule": args.Rule, "record": args.Record,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "lifesim_run"); err != nil {
		return nil, LifesimRunOutput{}, err
	}

	sim := s.defaults.Simulation
	p, err := resolvePattern(args.Pattern, args.Cells, sim.Pattern)
	if err != nil {
		return nil, LifesimRunOutput{}, err
	}

	size := args.Size
	if size == 0 {
		size = s.defaults.Grid.Size
	}
	if size < 1 || size > maxToolSize {
		return nil, LifesimRunOutput{}, fmt.Errorf("size must be between 1 and %d, got %d", maxToolSize, size)
	}

	iterations := args.Iterations
	if iterations == 0 {
		iterations = sim.Iterations
	}
	if iterations < 0 || iterations > maxToolIterations {
		return nil, LifesimRunOutput{}, fmt.Errorf("iterations must be between 0 and %d, got %d", maxToolIterations, iterations)
	}

	workers := args.Workers
	if workers == 0 {
		workers = sim.Workers
	}

	strategyName := args.Strategy
	if strategyName == "" {
		strategyName = sim.Strategy
	}
	strategy, err := engine.ParseStrategy(strategyName)
	if err != nil {
		return nil, LifesimRunOutput{}, err
	}

	ruleText := args.Rule
	if ruleText == "" {
		ruleText = sim.Rule
	}
	r, err := rule.Parse(ruleText)
	if err != nil {
		return nil, LifesimRunOutput{}, err
	}

	row, col := patterns.Center(p, size)
	if args.Row != nil || args.Col != nil {
		row, col = deref(args.Row), deref(args.Col)
	}

	params := engine.Params{
		Size:       size,
		Pattern:    p,
		Row:        row,
		Col:        col,
		Iterations: iterations,
		Workers:    workers,
		Strategy:   strategy,
		Rule:       &r,
		Logger:     s.logger,
	}

	var rec *store.Recorder
	var rep engine.Reporter
	if args.Record {
		rec, err = s.store.BeginRun(ctx, store.RunMeta{
			Pattern:    p.Name(),
			GridSize:   size,
			Row:        row,
			Col:        col,
			Iterations: iterations,
			Workers:    workers,
			Strategy:   strategy.Name(),
			Rule:       r.String(),
		})
		if err != nil {
			return nil, LifesimRunOutput{}, fmt.Errorf("failed to record run: %w", err)
		}
		rep = rec
	}

	out, err := engine.Simulate(ctx, params, rep)
	if err != nil {
		if rec != nil {
			_ = rec.Fail(err)
		}
		return nil, LifesimRunOutput{}, err
	}

	result := LifesimRunOutput{
		Pattern:        p.Name(),
		Size:           size,
		Generations:    out.Generations,
		Population:     out.Population,
		Extinct:        out.Extinct,
		ElapsedSeconds: out.ElapsedSeconds(),
		Box:            out.Box,
		Populations:    out.Populations,
	}
	if result.Populations == nil {
		result.Populations = []int{}
	}
	if rec != nil {
		result.RunID = rec.ID()
	}
	return nil, result, nil
}

func (s *Server) handleLifesimPatterns(ctx context.Context, req *sdk.CallToolRequest, args LifesimPatternsInput) (_ *sdk.CallToolResult, _ LifesimPatternsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("lifesim_patterns", start, retErr, sanitizeToolParams(map[string]any{}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "lifesim_patterns"); err != nil {
		return nil, LifesimPatternsOutput{}, err
	}

	names := patterns.Names()
	infos := make([]PatternInfo, 0, len(names))
	for _, name := range names {
		p, err := patterns.Lookup(name)
		if err != nil {
			return nil, LifesimPatternsOutput{}, err
		}
		infos = append(infos, PatternInfo{
			Name:       p.Name(),
			Height:     p.Height(),
			Width:      p.Width(),
			Population: p.Population(),
			Cells:      p.String(),
		})
	}

	return nil, LifesimPatternsOutput{Patterns: infos, Count: len(infos)}, nil
}

func (s *Server) handleLifesimRender(ctx context.Context, req *sdk.CallToolRequest, args LifesimRenderInput) (_ *sdk.CallToolResult, _ LifesimRenderOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("lifesim_render", start, retErr, sanitizeToolParams(map[string]any{
			"pattern": args.Pattern, "generations": args.Generations, "margin": args.Margin, "rule": args.Rule,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "lifesim_render"); err != nil {
		return nil, LifesimRenderOutput{}, err
	}

	p, err := resolvePattern(args.Pattern, args.Cells, s.defaults.Simulation.Pattern)
	if err != nil {
		return nil, LifesimRenderOutput{}, err
	}
	if args.Generations < 0 || args.Generations > maxRenderGens {
		return nil, LifesimRenderOutput{}, fmt.Errorf("generations must be between 0 and %d, got %d", maxRenderGens, args.Generations)
	}
	if args.Margin > maxRenderDimension {
		return nil, LifesimRenderOutput{}, fmt.Errorf("margin must be at most %d, got %d", maxRenderDimension, args.Margin)
	}
	margin := args.Margin
	if margin <= 0 {
		margin = 1
	}
	r := rule.Conway
	if args.Rule != "" {
		if r, err = rule.Parse(args.Rule); err != nil {
			return nil, LifesimRenderOutput{}, err
		}
	}

	// Live cells spread at most one cell per generation, so this grid never
	// lets the pattern reach an edge: the result matches an unbounded plane.
	size := max(p.Height(), p.Width()) + 2*args.Generations + 2*margin + 2
	if size > maxToolSize {
		return nil, LifesimRenderOutput{}, fmt.Errorf("pattern, generations and margin need a %dx%d grid, more than the %d limit", size, size, maxToolSize)
	}
	row, col := patterns.Center(p, size)
	out, err := engine.Simulate(ctx, engine.Params{
		Size:       size,
		Pattern:    p,
		Row:        row,
		Col:        col,
		Iterations: args.Generations,
		Rule:       &r,
		Logger:     s.logger,
	}, nil)
	if err != nil {
		return nil, LifesimRenderOutput{}, err
	}

	live := out.Final.LiveBounds()
	population := out.Final.Population()
	text, truncated := drawLive(out.Final, live, margin)

	return nil, LifesimRenderOutput{
		Generation: out.Generations,
		Population: population,
		Box:        live,
		Text:       text,
		Truncated:  truncated,
	}, nil
}

// drawLive renders the live box grown by margin, cropped to
// maxRenderDimension on each axis.
func drawLive(g *grid.Grid, live bbox.Box, margin int) (string, bool) {
	if live.IsEmpty() {
		return "", false
	}
	region := live.Expand(margin).Clamp(g.Size())
	cropped := region.Intersect(bbox.Rect(region.MinRow, region.MinCol, maxRenderDimension, maxRenderDimension))

	var sb strings.Builder
	_ = render.Render(&sb, g, cropped, render.Glyphs{Alive: '#', Dead: '.'})
	return sb.String(), cropped != region
}

func (s *Server) handleLifesimHistory(ctx context.Context, req *sdk.CallToolRequest, args LifesimHistoryInput) (_ *sdk.CallToolResult, _ LifesimHistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("lifesim_history", start, retErr, sanitizeToolParams(map[string]any{
			"run_id": args.RunID, "pattern": args.Pattern, "limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "lifesim_history"); err != nil {
		return nil, LifesimHistoryOutput{}, err
	}

	if args.RunID != 0 {
		run, err := s.store.Run(ctx, args.RunID)
		if err != nil {
			return nil, LifesimHistoryOutput{}, err
		}
		series, err := s.store.Generations(ctx, args.RunID)
		if err != nil {
			return nil, LifesimHistoryOutput{}, err
		}
		if series == nil {
			series = []store.Generation{}
		}
		return nil, LifesimHistoryOutput{Runs: []store.Run{run}, Generations: series, Count: 1}, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultHistory
	}
	runs, err := s.store.ListRuns(ctx, args.Pattern, limit)
	if err != nil {
		return nil, LifesimHistoryOutput{}, err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return nil, LifesimHistoryOutput{Runs: runs, Count: len(runs)}, nil
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
