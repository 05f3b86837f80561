package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/lifesim/internal/bbox"
)

// RunStore persists runs in a SQLite database at <dir>/lifesim.db.
type RunStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// Open creates dir if needed and opens (or creates) the run database.
func Open(ctx context.Context, dir string) (*RunStore, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}

	dbPath := DBPath(dir)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &RunStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *RunStore) Path() string { return s.dbPath }

// Close closes the database.
func (s *RunStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// BeginRun inserts a running row for meta and returns a Recorder that
// completes it. ctx is used for the Recorder's writes.
func (s *RunStore) BeginRun(ctx context.Context, meta RunMeta) (*Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (pattern, grid_size, row_offset, col_offset, iterations, workers, strategy, rule, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Pattern, meta.GridSize, meta.Row, meta.Col, meta.Iterations, meta.Workers,
		meta.Strategy, meta.Rule, StatusRunning, formatTime(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read run id: %w", err)
	}

	return &Recorder{store: s, ctx: ctx, id: id}, nil
}

// finishRun writes the series and the outcome of run id in one transaction.
func (s *RunStore) finishRun(ctx context.Context, id int64, series []Generation, status Status, generations, population int, elapsed float64, runErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO generations (run_id, generation, population, min_row, max_row, min_col, max_col)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare generation insert: %w", err)
	}
	defer stmt.Close()

	for _, g := range series {
		minRow, maxRow, minCol, maxCol := boxColumns(g.Box)
		if _, err := stmt.ExecContext(ctx, id, g.Generation, g.Population, minRow, maxRow, minCol, maxCol); err != nil {
			return fmt.Errorf("failed to insert generation %d: %w", g.Generation, err)
		}
	}

	var errCol any
	if runErr != "" {
		errCol = runErr
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE runs SET status = ?, generations = ?, final_population = ?, elapsed_seconds = ?, error = ?, finished_at = ?
		WHERE id = ?`,
		status, generations, population, elapsed, errCol, formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
// A non-empty pattern filters by pattern name.
func (s *RunStore) ListRuns(ctx context.Context, pattern string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + runColumns + ` FROM runs`
	var args []any
	if pattern != "" {
		query += ` WHERE pattern = ?`
		args = append(args, pattern)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns one run, or ErrNotFound.
func (s *RunStore) Run(ctx context.Context, id int64) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return r, err
}

// Generations returns the population series of run id in generation order.
func (s *RunStore) Generations(ctx context.Context, id int64) ([]Generation, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, population, min_row, max_row, min_col, max_col
		FROM generations WHERE run_id = ? ORDER BY generation`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var series []Generation
	for rows.Next() {
		g := Generation{RunID: id}
		var minRow, maxRow, minCol, maxCol sql.NullInt64
		if err := rows.Scan(&g.Generation, &g.Population, &minRow, &maxRow, &minCol, &maxCol); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.Box = boxFromColumns(minRow, maxRow, minCol, maxCol)
		series = append(series, g)
	}
	return series, rows.Err()
}

// DeleteRun removes a run and its series.
func (s *RunStore) DeleteRun(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrNotFound)
	}
	return nil
}

const runColumns = `id, pattern, grid_size, row_offset, col_offset, iterations, workers, strategy, rule,
	status, generations, final_population, elapsed_seconds, error, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var status, startedAt string
	var runErr, finishedAt sql.NullString
	err := sc.Scan(&r.ID, &r.Pattern, &r.GridSize, &r.Row, &r.Col, &r.Iterations, &r.Workers,
		&r.Strategy, &r.Rule, &status, &r.Generations, &r.FinalPopulation, &r.ElapsedSeconds,
		&runErr, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}

	r.Status = Status(status)
	r.Error = runErr.String
	r.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		t := parseTime(finishedAt.String)
		r.FinishedAt = &t
	}
	return r, nil
}

func boxColumns(b bbox.Box) (minRow, maxRow, minCol, maxCol any) {
	if b.IsEmpty() {
		return nil, nil, nil, nil
	}
	return b.MinRow, b.MaxRow, b.MinCol, b.MaxCol
}

func boxFromColumns(minRow, maxRow, minCol, maxCol sql.NullInt64) bbox.Box {
	if !minRow.Valid || !maxRow.Valid || !minCol.Valid || !maxCol.Valid {
		return bbox.Empty()
	}
	return bbox.Box{
		MinRow: int(minRow.Int64),
		MaxRow: int(maxRow.Int64),
		MinCol: int(minCol.Int64),
		MaxCol: int(maxCol.Int64),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
