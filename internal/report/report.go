// Package report provides engine.Reporter sinks for generation progress.
package report

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nvandessel/lifesim/internal/engine"
	"github.com/nvandessel/lifesim/internal/logging"
)

// TextReporter prints one line per generation and a completion line.
type TextReporter struct {
	w     io.Writer
	quiet bool
}

// NewText returns a TextReporter writing to w. When quiet is set only the
// summary is printed.
func NewText(w io.Writer, quiet bool) *TextReporter {
	return &TextReporter{w: w, quiet: quiet}
}

// ReportGeneration prints "Iteration <n>; Population <p>".
func (t *TextReporter) ReportGeneration(r engine.GenerationResult) error {
	if t.quiet {
		return nil
	}
	_, err := fmt.Fprintf(t.w, "Iteration %d; Population %d\n", r.Generation, r.Population)
	return err
}

// ReportSummary prints the generation count and wall-clock time.
func (t *TextReporter) ReportSummary(s engine.Summary) error {
	if s.Extinct {
		if _, err := fmt.Fprintf(t.w, "Population extinct after %d generations\n", s.Generations); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(t.w, "Program completed successfully. %d generations took %f seconds\n",
		s.Generations, s.ElapsedSeconds())
	return err
}

// LogReporter writes progress to a slog.Logger: generations at debug,
// the summary at info.
type LogReporter struct {
	logger *slog.Logger
}

// NewLog returns a LogReporter. A nil logger discards output.
func NewLog(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LogReporter{logger: logger}
}

func (l *LogReporter) ReportGeneration(r engine.GenerationResult) error {
	l.logger.Debug("generation complete",
		"generation", r.Generation,
		"population", r.Population,
		"box", r.Box.String(),
	)
	return nil
}

func (l *LogReporter) ReportSummary(s engine.Summary) error {
	l.logger.Info("run complete",
		"generations", s.Generations,
		"population", s.Population,
		"extinct", s.Extinct,
		"elapsed", s.Elapsed,
	)
	return nil
}

// TraceReporter copies progress into a generation trace. A nil Trace makes
// it a no-op.
type TraceReporter struct {
	tr *logging.Trace
}

// NewTrace returns a TraceReporter over tr.
func NewTrace(tr *logging.Trace) *TraceReporter {
	return &TraceReporter{tr: tr}
}

func (t *TraceReporter) ReportGeneration(r engine.GenerationResult) error {
	return t.tr.Generation(logging.GenerationEvent{
		Generation: r.Generation,
		Population: r.Population,
		Box:        r.Box,
		Scanned:    r.Scanned,
	})
}

func (t *TraceReporter) ReportSummary(s engine.Summary) error {
	return t.tr.Summary(logging.SummaryEvent{
		Generations: s.Generations,
		Population:  s.Population,
		Extinct:     s.Extinct,
		Elapsed:     s.Elapsed,
	})
}

// every forwards every nth generation and always the last before extinction.
type every struct {
	n    int
	next engine.Reporter
}

// Every forwards generation n, 2n, 3n... to next, plus any generation whose
// population is zero so extinction is never hidden. Summaries always pass
// through. n <= 1 returns next unchanged.
func Every(n int, next engine.Reporter) engine.Reporter {
	if n <= 1 {
		return next
	}
	return &every{n: n, next: next}
}

func (e *every) ReportGeneration(r engine.GenerationResult) error {
	if r.Generation%e.n != 0 && r.Population != 0 {
		return nil
	}
	return e.next.ReportGeneration(r)
}

func (e *every) ReportSummary(s engine.Summary) error {
	return e.next.ReportSummary(s)
}

// multi fans out to several reporters.
type multi []engine.Reporter

// Multi returns a Reporter that calls each non-nil reporter in order. A
// generation error stops the fan-out for that generation; summary errors
// are collected so every sink sees the summary.
func Multi(reporters ...engine.Reporter) engine.Reporter {
	var m multi
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multi) ReportGeneration(r engine.GenerationResult) error {
	for _, rep := range m {
		if err := rep.ReportGeneration(r); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) ReportSummary(s engine.Summary) error {
	var errs []error
	for _, rep := range m {
		if err := rep.ReportSummary(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
