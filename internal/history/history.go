// Package history handles SQLite persistence of grading runs.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/gradekit/autograde/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for grading run history.
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
			graded_at TEXT NOT NULL,
			dir TEXT NOT NULL,
			codefile TEXT NOT NULL,
			student TEXT NOT NULL,
			email TEXT NOT NULL,
			version INTEGER NOT NULL,
			pre_points REAL NOT NULL,
			post_points REAL NOT NULL,
			total_points INTEGER NOT NULL,
			score REAL NOT NULL,
			has_score INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_graded_at ON runs(graded_at);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_codefile ON runs(codefile);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertRun stores one completed grading run.
func (s *Store) InsertRun(ctx context.Context, run model.RunRecord) (int64, error) {
	hasScore := 0
	if run.HasScore {
		hasScore = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (graded_at, dir, codefile, student, email, version, pre_points, post_points, total_points, score, has_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.GradedAt.Format(time.RFC3339Nano),
		run.Dir,
		run.Codefile,
		run.Student,
		run.Email,
		run.Version,
		run.PrePoints,
		run.PostPoints,
		run.TotalPoints,
		run.Score,
		hasScore,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListRuns returns the most recent runs, newest first, optionally
// filtered by codefile.
func (s *Store) ListRuns(ctx context.Context, codefile string, last int) ([]model.RunRecord, error) {
	if last <= 0 {
		return nil, nil
	}
	query := `SELECT id, graded_at, dir, codefile, student, email, version, pre_points, post_points, total_points, score, has_score
		FROM runs
		WHERE (? = '' OR codefile = ?)
		ORDER BY graded_at DESC, id DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, codefile, codefile, last)
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
		var gradedAt string
		var hasScore int
		if err := rows.Scan(&run.ID, &gradedAt, &run.Dir, &run.Codefile, &run.Student, &run.Email,
			&run.Version, &run.PrePoints, &run.PostPoints, &run.TotalPoints, &run.Score, &hasScore); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, gradedAt)
		if err != nil {
			return nil, err
		}
		run.GradedAt = parsed
		run.HasScore = hasScore != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}
