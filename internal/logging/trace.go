package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/lifesim/internal/bbox"
)

// TraceFile is the trace file name inside the store directory.
const TraceFile = "trace.jsonl"

// GenerationEvent records one computed generation.
type GenerationEvent struct {
	Generation int      `json:"generation"`
	Population int      `json:"population"`
	Box        bbox.Box `json:"box"`
	Scanned    bbox.Box `json:"scanned"`
}

// SummaryEvent closes a run.
type SummaryEvent struct {
	Generations int           `json:"generations"`
	Population  int           `json:"population"`
	Extinct     bool          `json:"extinct"`
	Elapsed     time.Duration `json:"-"`
}

type generationLine struct {
	Time  string `json:"time"`
	Event string `json:"event"`
	GenerationEvent
	ScannedCells int `json:"scanned_cells"`
}

type summaryLine struct {
	Time  string `json:"time"`
	Event string `json:"event"`
	SummaryEvent
	ElapsedSec float64 `json:"elapsed_s"`
}

// Trace appends generation and summary events to a JSONL file.
//
// At debug level only summaries are written; at trace level every generation
// is written too. Lines are buffered and reach the file on each summary and
// on Close. A nil *Trace discards everything, so callers need no level checks.
type Trace struct {
	mu          sync.Mutex
	file        *os.File
	buf         *bufio.Writer
	enc         *json.Encoder
	generations bool
	now         func() time.Time
}

// OpenTrace opens <dir>/TraceFile for append when level is debug or trace.
// At info level it returns nil and creates nothing.
func OpenTrace(dir, level string) (*Trace, error) {
	lvl := ParseLevel(level)
	if lvl >= slog.LevelInfo {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating trace directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, TraceFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &Trace{
		file:        f,
		buf:         buf,
		enc:         json.NewEncoder(buf),
		generations: lvl <= LevelTrace,
		now:         time.Now,
	}, nil
}

// Generation records ev when the trace was opened at trace level.
func (t *Trace) Generation(ev GenerationEvent) error {
	if t == nil || !t.generations {
		return nil
	}
	return t.write(generationLine{
		Time:            t.stamp(),
		Event:           "generation",
		GenerationEvent: ev,
		ScannedCells:    ev.Scanned.Area(),
	}, false)
}

// Summary records ev and flushes buffered lines.
func (t *Trace) Summary(ev SummaryEvent) error {
	if t == nil {
		return nil
	}
	return t.write(summaryLine{
		Time:         t.stamp(),
		Event:        "summary",
		SummaryEvent: ev,
		ElapsedSec:   ev.Elapsed.Seconds(),
	}, true)
}

func (t *Trace) stamp() string {
	return t.now().UTC().Format(time.RFC3339Nano)
}

func (t *Trace) write(line any, flush bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	if err := t.enc.Encode(line); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	if flush {
		return t.buf.Flush()
	}
	return nil
}

// Close flushes and closes the file. Later events are dropped.
func (t *Trace) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	flushErr := t.buf.Flush()
	closeErr := t.file.Close()
	t.file = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
