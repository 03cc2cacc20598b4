package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"bftnet/pkg/api"
)

// Store is a SQLite-backed record of past harness runs.
type Store struct{ db *sql.DB }

//go:embed migrations/*.sql
var migrationFS embed.FS

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema, err := migrationFS.ReadFile("migrations/0001_init.sql")
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordRun persists one finished run and its per-node exits atomically.
func (s *Store) RecordRun(ctx context.Context, run api.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, variant, test_dir, status, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Variant, run.TestDir, string(run.Status), run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, n := range run.Nodes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO node_exits (run_id, node_index, exit_code, torn_down)
			 VALUES (?, ?, ?, ?)`,
			run.ID, n.Index, n.ExitCode, n.TornDown)
		if err != nil {
			return fmt.Errorf("insert node exit: %w", err)
		}
	}
	return tx.Commit()
}

// RecentRuns returns up to limit runs, newest first, each with its node
// exits in index order.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]api.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, variant, test_dir, status, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []api.Run
	for rows.Next() {
		var r api.Run
		var status string
		if err := rows.Scan(&r.ID, &r.Variant, &r.TestDir, &status, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = api.RunStatus(status)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		nodes, err := s.nodeExits(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Nodes = nodes
	}
	return runs, nil
}

func (s *Store) nodeExits(ctx context.Context, runID string) ([]api.NodeExit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_index, exit_code, torn_down FROM node_exits
		 WHERE run_id = ? ORDER BY node_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query node exits: %w", err)
	}
	defer rows.Close()

	var nodes []api.NodeExit
	for rows.Next() {
		var n api.NodeExit
		if err := rows.Scan(&n.Index, &n.ExitCode, &n.TornDown); err != nil {
			return nil, fmt.Errorf("scan node exit: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}
