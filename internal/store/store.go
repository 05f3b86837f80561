// Package store records simulation runs and their population series in
// SQLite. Grid state is never stored; a run is reproducible from its
// parameters.
package store

import (
	"errors"
	"time"

	"github.com/nvandessel/lifesim/internal/bbox"
)

// ErrNotFound is returned when a run id does not exist.
var ErrNotFound = errors.New("run not found")

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"   // BeginRun called, no summary yet
	StatusCompleted Status = "completed" // budget exhausted
	StatusExtinct   Status = "extinct"   // population reached zero
	StatusFailed    Status = "failed"    // aborted by error or cancellation
)

// RunMeta is the configuration of a run, written when it begins.
type RunMeta struct {
	Pattern    string `json:"pattern"`
	GridSize   int    `json:"grid_size"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Iterations int    `json:"iterations"`
	Workers    int    `json:"workers"`
	Strategy   string `json:"strategy"`
	Rule       string `json:"rule"`
}

// Run is a recorded run with its outcome.
type Run struct {
	ID int64 `json:"id"`
	RunMeta
	Status          Status     `json:"status"`
	Generations     int        `json:"generations"`
	FinalPopulation int        `json:"final_population"`
	ElapsedSeconds  float64    `json:"elapsed_seconds"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Generation is one row of a run's population series.
type Generation struct {
	RunID      int64    `json:"run_id"`
	Generation int      `json:"generation"`
	Population int      `json:"population"`
	Box        bbox.Box `json:"box"`
}
