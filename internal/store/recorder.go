package store

import (
	"context"
	"sync"

	"github.com/nvandessel/lifesim/internal/engine"
)

// Recorder is an engine.Reporter that buffers a run's population series
// and writes it with the outcome in a single transaction when the summary
// arrives. Call Fail instead if the run aborts.
type Recorder struct {
	store *RunStore
	// ctx bounds the final write; Reporter methods carry no context.
	ctx context.Context
	id  int64

	mu     sync.Mutex
	series []Generation
	done   bool
}

// ID returns the run id.
func (r *Recorder) ID() int64 { return r.id }

// ReportGeneration buffers one generation.
func (r *Recorder) ReportGeneration(res engine.GenerationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = append(r.series, Generation{
		RunID:      r.id,
		Generation: res.Generation,
		Population: res.Population,
		Box:        res.Box,
	})
	return nil
}

// ReportSummary flushes the series and marks the run completed or extinct.
func (r *Recorder) ReportSummary(sum engine.Summary) error {
	status := StatusCompleted
	if sum.Extinct {
		status = StatusExtinct
	}
	return r.finish(status, sum.Generations, sum.Population, sum.ElapsedSeconds(), "")
}

// Fail flushes whatever was recorded and marks the run failed with cause.
// It is a no-op once the run has finished.
func (r *Recorder) Fail(cause error) error {
	r.mu.Lock()
	gens, pop := len(r.series), 0
	if gens > 0 {
		pop = r.series[gens-1].Population
	}
	r.mu.Unlock()

	msg := "aborted"
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(StatusFailed, gens, pop, 0, msg)
}

func (r *Recorder) finish(status Status, generations, population int, elapsed float64, runErr string) error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return nil
	}
	r.done = true
	series := r.series
	r.series = nil
	r.mu.Unlock()

	// A cancelled run context must not stop the failure record.
	ctx := context.WithoutCancel(r.ctx)
	return r.store.finishRun(ctx, r.id, series, status, generations, population, elapsed, runErr)
}
