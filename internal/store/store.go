// Package store handles SQLite persistence of generation runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/chi2plookup/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			generated_at TEXT NOT NULL,
			output_path TEXT NOT NULL,
			precision INTEGER NOT NULL,
			max_df INTEGER NOT NULL,
			start_chi INTEGER NOT NULL,
			cutoffs TEXT NOT NULL,
			sha256 TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_generated_at ON runs(generated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun records a completed generation and returns its id.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (generated_at, output_path, precision, max_df, start_chi, cutoffs, sha256, bytes, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.GeneratedAt.UTC().Format(time.RFC3339Nano),
		run.OutputPath,
		run.Precision,
		run.MaxDegreesOfFreedom,
		run.ReferenceCutoff,
		encodeCutoffs(run.Cutoffs),
		run.SHA256,
		run.Bytes,
		run.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	query := `SELECT id, generated_at, output_path, precision, max_df, start_chi, cutoffs, sha256, bytes, duration_ms
		FROM runs
		ORDER BY generated_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var runs []model.RunRecord
	for rows.Next() {
		var run model.RunRecord
		var generatedAt, cutoffs string
		if err := rows.Scan(&run.ID, &generatedAt, &run.OutputPath, &run.Precision, &run.MaxDegreesOfFreedom,
			&run.ReferenceCutoff, &cutoffs, &run.SHA256, &run.Bytes, &run.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, generatedAt)
		if err != nil {
			return nil, err
		}
		run.GeneratedAt = parsed
		run.Cutoffs, err = decodeCutoffs(cutoffs)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

func encodeCutoffs(cutoffs model.CutoffTable) string {
	parts := make([]string, len(cutoffs))
	for i, c := range cutoffs {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func decodeCutoffs(value string) (model.CutoffTable, error) {
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	cutoffs := make(model.CutoffTable, len(parts))
	for i, part := range parts {
		c, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid cutoff %q: %w", part, err)
		}
		cutoffs[i] = c
	}
	return cutoffs, nil
}
