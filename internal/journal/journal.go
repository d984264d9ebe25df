// Package journal records transfer outcomes in a local SQLite file so that a
// run can be inspected and resumed after the process is gone.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"elmbackup/internal/journal/migrations"
	"elmbackup/internal/model"
)

// Entry is one journaled item outcome.
type Entry struct {
	Folder      string
	Position    model.Position
	Label       string
	Source      string
	Destination string
	Status      model.Status
	Reason      model.SkipReason
	Detail      string
	ExitCode    int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Summary aggregates the journal of one backup folder.
type Summary struct {
	Folder    string
	Archived  int
	Failed    int
	Skipped   int
	Last      model.Position
	HasLast   bool
	UpdatedAt time.Time
}

// Total is the number of journaled items.
func (s Summary) Total() int {
	return s.Archived + s.Failed + s.Skipped
}

// Store persists journal entries in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the journal at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	dsn := "file:" + filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer, one process: a single connection keeps pragmas consistent.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record appends one entry.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("journal is not open")
	}
	if strings.TrimSpace(e.Folder) == "" {
		return fmt.Errorf("folder is required")
	}
	if e.Status == "" {
		return fmt.Errorf("status is required")
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO transfers (
		   folder, row_num, path_index, label, source, destination,
		   status, reason, detail, exit_code, started_at, finished_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Folder, e.Position.Row, e.Position.Index, e.Label, e.Source, e.Destination,
		string(e.Status), string(e.Reason), e.Detail, e.ExitCode,
		toMillis(e.StartedAt), toMillis(e.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// Entries lists the folder's entries in position order; when an item was
// journaled more than once (a rerun), every attempt is listed oldest first.
func (s *Store) Entries(ctx context.Context, folder string) ([]Entry, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT folder, row_num, path_index, label, source, destination,
		        status, reason, detail, exit_code, started_at, finished_at
		   FROM transfers
		  WHERE folder = ?
		  ORDER BY row_num, path_index, id`,
		folder,
	)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                 Entry
			status, reason    string
			started, finished int64
		)
		if err := rows.Scan(
			&e.Folder, &e.Position.Row, &e.Position.Index, &e.Label, &e.Source, &e.Destination,
			&status, &reason, &e.Detail, &e.ExitCode, &started, &finished,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		e.Status = model.Status(status)
		e.Reason = model.SkipReason(reason)
		e.StartedAt = fromMillis(started)
		e.FinishedAt = fromMillis(finished)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Summarize counts the folder's latest outcome per position.
func (s *Store) Summarize(ctx context.Context, folder string) (Summary, error) {
	sum := Summary{Folder: folder}

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT t.status, COUNT(*)
		   FROM transfers t
		   JOIN (SELECT MAX(id) AS id FROM transfers WHERE folder = ? GROUP BY row_num, path_index) latest
		     ON latest.id = t.id
		  GROUP BY t.status`,
		folder,
	)
	if err != nil {
		return sum, fmt.Errorf("count transfers: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return sum, fmt.Errorf("scan count: %w", err)
		}
		switch model.Status(status) {
		case model.StatusArchived:
			sum.Archived = n
		case model.StatusFailed:
			sum.Failed = n
		case model.StatusSkipped:
			sum.Skipped = n
		}
	}
	if err := rows.Err(); err != nil {
		return sum, err
	}

	last, updated, ok, err := s.last(ctx, folder)
	if err != nil {
		return sum, err
	}
	sum.Last, sum.UpdatedAt, sum.HasLast = last, updated, ok
	return sum, nil
}

// NextPosition returns the position after the most recently journaled item of
// the folder, which is where the latest run stopped. ok is false when nothing
// has been journaled yet.
func (s *Store) NextPosition(ctx context.Context, folder string) (model.Position, bool, error) {
	last, _, ok, err := s.last(ctx, folder)
	if err != nil || !ok {
		return model.Position{}, false, err
	}
	return last.Next(), true, nil
}

func (s *Store) last(ctx context.Context, folder string) (model.Position, time.Time, bool, error) {
	var (
		p        model.Position
		finished int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT row_num, path_index, finished_at
		   FROM transfers
		  WHERE folder = ?
		  ORDER BY id DESC
		  LIMIT 1`,
		folder,
	).Scan(&p.Row, &p.Index, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Position{}, time.Time{}, false, nil
	}
	if err != nil {
		return model.Position{}, time.Time{}, false, fmt.Errorf("query last transfer: %w", err)
	}
	return p, fromMillis(finished), true, nil
}
