// Package archive persists extraction-run summaries to SQLite so that
// fabrics can be compared across runs without reparsing the dumps.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Store is the SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the archive database at the given path,
// applies recommended pragmas, and runs pending migrations.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}

	// SQLite performs best with a single write connection. WAL enables concurrent readers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	// Apply recommended pragmas (modernc.org/sqlite requires SQL statements, not DSN params).
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Tx executes fn within a database transaction. The transaction is
// committed if fn returns nil, rolled back otherwise.
func (s *Store) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, err)
		}
		return err
	}

	return tx.Commit()
}

// migration is one schema step; migrations run in ascending Version order.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "runs, run_partitions, run_hosts",
		SQL: `
			CREATE TABLE IF NOT EXISTS runs (
				id              TEXT PRIMARY KEY,
				subnet          TEXT NOT NULL,
				created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				node_count      INTEGER NOT NULL,
				edge_count      INTEGER NOT NULL,
				link_count      INTEGER NOT NULL,
				path_count      INTEGER NOT NULL,
				partition_count INTEGER NOT NULL
			);
			CREATE TABLE IF NOT EXISTS run_partitions (
				run_id     TEXT NOT NULL REFERENCES runs(id),
				name       TEXT NOT NULL,
				host_count INTEGER NOT NULL
			);
			CREATE TABLE IF NOT EXISTS run_hosts (
				run_id    TEXT NOT NULL REFERENCES runs(id),
				guid      TEXT NOT NULL,
				hostname  TEXT NOT NULL,
				lid       INTEGER NOT NULL,
				partition TEXT NOT NULL
			);
		`,
	},
}

// migrate applies pending migrations, tracked in the _migrations table.
func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS _migrations (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM _migrations WHERE version = ?", m.Version,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		err = s.Tx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx,
				"INSERT INTO _migrations (version, description) VALUES (?, ?)",
				m.Version, m.Description,
			)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

// PartitionSummary is one partition's archived size.
type PartitionSummary struct {
	Name  string
	Hosts int
}

// HostRow is one host's archived inventory entry.
type HostRow struct {
	GUID      string
	Hostname  string
	LID       int64
	Partition string
}

// Run is one subnet extraction's archived summary.
type Run struct {
	ID         string
	Subnet     string
	Nodes      int
	Edges      int
	Links      int
	Paths      int
	Partitions []PartitionSummary
	Hosts      []HostRow
}

// RecordRun stores a run and its partition/host rows in one
// transaction. An empty run ID gets a fresh UUID; the final ID is
// returned.
func (s *Store) RecordRun(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, subnet, node_count, edge_count, link_count, path_count, partition_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.Subnet, run.Nodes, run.Edges, run.Links, run.Paths, len(run.Partitions),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		for _, p := range run.Partitions {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO run_partitions (run_id, name, host_count) VALUES (?, ?, ?)",
				run.ID, p.Name, p.Hosts,
			); err != nil {
				return fmt.Errorf("insert partition %q: %w", p.Name, err)
			}
		}

		for _, h := range run.Hosts {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO run_hosts (run_id, guid, hostname, lid, partition) VALUES (?, ?, ?, ?, ?)",
				run.ID, h.GUID, h.Hostname, h.LID, h.Partition,
			); err != nil {
				return fmt.Errorf("insert host %q: %w", h.Hostname, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// RunCount returns the number of archived runs.
func (s *Store) RunCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

// HostCount returns the number of archived host rows for a run.
func (s *Store) HostCount(ctx context.Context, runID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM run_hosts WHERE run_id = ?", runID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count hosts: %w", err)
	}
	return count, nil
}
