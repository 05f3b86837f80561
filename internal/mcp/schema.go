package mcp

import (
	"github.com/nvandessel/lifesim/internal/bbox"
	"github.com/nvandessel/lifesim/internal/store"
)

// LifesimRunInput defines the input for lifesim_run tool.
type LifesimRunInput struct {
	Pattern    string `json:"pattern,omitempty" jsonschema:"Built-in pattern name (see lifesim_patterns); default from config"`
	Cells      string `json:"cells,omitempty" jsonschema:"Inline pattern in plaintext .cells format (O alive, . dead); overrides pattern"`
	Size       int    `json:"size,omitempty" jsonschema:"Grid side length N for an N x N grid; default from config"`
	Row        *int   `json:"row,omitempty" jsonschema:"Top row of the pattern; the pattern is centered when row and col are omitted"`
	Col        *int   `json:"col,omitempty" jsonschema:"Left column of the pattern"`
	Iterations int    `json:"iterations,omitempty" jsonschema:"Generation budget; the run stops early on extinction"`
	Workers    int    `json:"workers,omitempty" jsonschema:"Goroutines per generation (default GOMAXPROCS)"`
	Strategy   string `json:"strategy,omitempty" jsonschema:"Scan strategy: 'bbox' (live box plus one cell) or 'full' (whole grid)"`
	Rule       string `json:"rule,omitempty" jsonschema:"Birth/survival rule in B/S notation (default B3/S23)"`
	Record     bool   `json:"record,omitempty" jsonschema:"Save the run and its population series in history (default false)"`
}

// LifesimRunOutput defines the output for lifesim_run tool.
type LifesimRunOutput struct {
	RunID          int64    `json:"run_id,omitempty" jsonschema:"History id when the run was recorded"`
	Pattern        string   `json:"pattern" jsonschema:"Pattern that was evolved"`
	Size           int      `json:"size" jsonschema:"Grid side length"`
	Generations    int      `json:"generations" jsonschema:"Generations computed"`
	Population     int      `json:"population" jsonschema:"Live cells after the last generation"`
	Extinct        bool     `json:"extinct" jsonschema:"Whether the population reached zero before the budget"`
	ElapsedSeconds float64  `json:"elapsed_seconds" jsonschema:"Wall-clock time of the evolution"`
	Box            bbox.Box `json:"box" jsonschema:"Live-cell bounding box after the last generation"`
	Populations    []int    `json:"populations" jsonschema:"Population after each generation, starting at generation 1"`
}

// LifesimPatternsInput defines the input for lifesim_patterns tool.
type LifesimPatternsInput struct{}

// LifesimPatternsOutput defines the output for lifesim_patterns tool.
type LifesimPatternsOutput struct {
	Patterns []PatternInfo `json:"patterns" jsonschema:"Built-in patterns"`
	Count    int           `json:"count" jsonschema:"Number of patterns"`
}

// PatternInfo describes one built-in pattern.
type PatternInfo struct {
	Name       string `json:"name"`
	Height     int    `json:"height"`
	Width      int    `json:"width"`
	Population int    `json:"population"`
	Cells      string `json:"cells"`
}

// LifesimRenderInput defines the input for lifesim_render tool.
type LifesimRenderInput struct {
	Pattern     string `json:"pattern,omitempty" jsonschema:"Built-in pattern name"`
	Cells       string `json:"cells,omitempty" jsonschema:"Inline pattern in plaintext .cells format; overrides pattern"`
	Generations int    `json:"generations,omitempty" jsonschema:"Generations to evolve before drawing (default 0)"`
	Margin      int    `json:"margin,omitempty" jsonschema:"Dead cells drawn around the live box (default 1)"`
	Rule        string `json:"rule,omitempty" jsonschema:"Birth/survival rule in B/S notation (default B3/S23)"`
}

// LifesimRenderOutput defines the output for lifesim_render tool.
type LifesimRenderOutput struct {
	Generation int      `json:"generation" jsonschema:"Generation drawn"`
	Population int      `json:"population" jsonschema:"Live cells in that generation"`
	Box        bbox.Box `json:"box" jsonschema:"Live-cell bounding box in grid coordinates"`
	Text       string   `json:"text" jsonschema:"The drawing, '#' alive and '.' dead"`
	Truncated  bool     `json:"truncated" jsonschema:"Whether the drawing was cropped"`
}

// LifesimHistoryInput defines the input for lifesim_history tool.
type LifesimHistoryInput struct {
	RunID   int64  `json:"run_id,omitempty" jsonschema:"Return this run with its population series"`
	Pattern string `json:"pattern,omitempty" jsonschema:"Only list runs of this pattern"`
	Limit   int    `json:"limit,omitempty" jsonschema:"Maximum runs to list (default 20)"`
}

// LifesimHistoryOutput defines the output for lifesim_history tool.
type LifesimHistoryOutput struct {
	Runs        []store.Run        `json:"runs" jsonschema:"Recorded runs, newest first"`
	Generations []store.Generation `json:"generations,omitempty" jsonschema:"Population series of run_id"`
	Count       int                `json:"count" jsonschema:"Number of runs returned"`
}
