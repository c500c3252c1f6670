// Package sqlite persists clear-sky detection runs in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/chrissnell/clearsky/pkg/clearsky"
	"github.com/chrissnell/clearsky/pkg/migrate"
)

// ErrRunNotFound is returned when no run has the requested ID
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed-width so stored times sort lexically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed migrations/*.sql
var migrations embed.FS

// Run describes one detection over a series
type Run struct {
	ID           string           `json:"id" msgpack:"id"`
	Station      string           `json:"station" msgpack:"station"`
	Model        string           `json:"model" msgpack:"model"`
	WindowLength int              `json:"window_length" msgpack:"window_length"`
	Summary      clearsky.Summary `json:"summary" msgpack:"summary"`
	RMSE         float64          `json:"rmse" msgpack:"rmse"`
	Start        time.Time        `json:"start" msgpack:"start"`
	End          time.Time        `json:"end" msgpack:"end"`
	CreatedAt    time.Time        `json:"created_at" msgpack:"created_at"`
}

// Interval is a clear period [Start, End) in wall-clock time
type Interval struct {
	Start time.Time `json:"start" msgpack:"start"`
	End   time.Time `json:"end" msgpack:"end"`
}

// Store is a SQLite-backed run store
type Store struct {
	db *sql.DB
}

// Open opens, and if necessary creates, the run database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	migrator := migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", ""))
	if err := migrator.MigrateUp(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate run database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SaveRun stores a run and its clear intervals. A run without an ID is
// assigned a new one, and a zero CreatedAt is set to the current time.
func (s *Store) SaveRun(ctx context.Context, run *Run, intervals []Interval) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, station, model, window_length, total, clear, rmse, start_time, end_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Station, run.Model, run.WindowLength, run.Summary.Total, run.Summary.Clear, run.RMSE,
		formatTime(run.Start), formatTime(run.End), formatTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO clear_intervals (run_id, start_time, end_time) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, iv := range intervals {
		if _, err := stmt.ExecContext(ctx, run.ID, formatTime(iv.Start), formatTime(iv.End)); err != nil {
			return fmt.Errorf("failed to insert interval: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetRun returns a run and its clear intervals
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []Interval, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, station, model, window_length, total, clear, rmse, start_time, end_time, created_at
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time, end_time FROM clear_intervals WHERE run_id = ? ORDER BY start_time`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query intervals: %w", err)
	}
	defer rows.Close()

	var intervals []Interval
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, nil, fmt.Errorf("failed to scan interval: %w", err)
		}
		iv := Interval{}
		if iv.Start, err = parseTime(start); err != nil {
			return nil, nil, err
		}
		if iv.End, err = parseTime(end); err != nil {
			return nil, nil, err
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating intervals: %w", err)
	}

	return run, intervals, nil
}

// ListRuns returns up to limit runs, newest first
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, station, model, window_length, total, clear, rmse, start_time, end_time, created_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                   Run
		start, end, createdAt string
	)
	err := row.Scan(&run.ID, &run.Station, &run.Model, &run.WindowLength,
		&run.Summary.Total, &run.Summary.Clear, &run.RMSE, &start, &end, &createdAt)
	if err != nil {
		return nil, err
	}

	if run.Summary.Total > 0 {
		run.Summary.Fraction = float64(run.Summary.Clear) / float64(run.Summary.Total)
	}
	if run.Start, err = parseTime(start); err != nil {
		return nil, err
	}
	if run.End, err = parseTime(end); err != nil {
		return nil, err
	}
	if run.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &run, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	return t, nil
}
