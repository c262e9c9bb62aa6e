package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is the on-disk state store: tracked configuration files,
// package pins, and run history.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the store at path and brings its
// schema up to date.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// TrackedFiles returns every tracked configuration target with the hash
// of the content last written there.
func (s *SQLiteStore) TrackedFiles(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target, hash FROM tracked_files`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked files: %w", err)
	}
	defer rows.Close()

	files := make(map[string]string)
	for rows.Next() {
		var target, hash string
		if err := rows.Scan(&target, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan tracked file: %w", err)
		}
		files[target] = hash
	}
	return files, rows.Err()
}

// TrackFile records that a configure action wrote content with the
// given hash at target.
func (s *SQLiteStore) TrackFile(ctx context.Context, f TrackedFile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tracked_files (target, package, slot, hash, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(target) DO UPDATE SET
			package = excluded.package,
			slot = excluded.slot,
			hash = excluded.hash,
			updated_at = excluded.updated_at
	`, f.Target, f.Package, f.Slot, f.Hash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to track file %s: %w", f.Target, err)
	}
	return nil
}

// ForgetFile drops a target from tracking.
func (s *SQLiteStore) ForgetFile(ctx context.Context, target string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tracked_files WHERE target = ?`, target); err != nil {
		return fmt.Errorf("failed to forget file %s: %w", target, err)
	}
	return nil
}

// Repos returns the display strings of every repository a previous run
// successfully added. The snapshot folds these in so applied
// repositories stop replanning; xbps only reports binary-repo URLs,
// which never match desired-state references.
func (s *SQLiteStore) Repos(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT display FROM repos`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repos: %w", err)
	}
	defer rows.Close()

	repos := make(map[string]struct{})
	for rows.Next() {
		var display string
		if err := rows.Scan(&display); err != nil {
			return nil, fmt.Errorf("failed to scan repo: %w", err)
		}
		repos[display] = struct{}{}
	}
	return repos, rows.Err()
}

// TrackRepo records that a repository was successfully added.
func (s *SQLiteStore) TrackRepo(ctx context.Context, display string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO repos (display, created_at) VALUES (?, ?)
		ON CONFLICT(display) DO NOTHING
	`, display, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to track repo %s: %w", display, err)
	}
	return nil
}

// ForgetRepo drops a repository from tracking, so the next pass plans
// it again.
func (s *SQLiteStore) ForgetRepo(ctx context.Context, display string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM repos WHERE display = ?`, display); err != nil {
		return fmt.Errorf("failed to forget repo %s: %w", display, err)
	}
	return nil
}

// Pins returns the preserve set: package-manager names that removal
// planning leaves installed.
func (s *SQLiteStore) Pins(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pins`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	pins := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins[name] = struct{}{}
	}
	return pins, rows.Err()
}

// ListPins returns pins with their reasons, sorted by name.
func (s *SQLiteStore) ListPins(ctx context.Context) ([]Pin, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, reason, created_at FROM pins ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pins: %w", err)
	}
	defer rows.Close()

	var pins []Pin
	for rows.Next() {
		var p Pin
		if err := rows.Scan(&p.Name, &p.Reason, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pin: %w", err)
		}
		pins = append(pins, p)
	}
	return pins, rows.Err()
}

// AddPin pins a package. Pinning an already-pinned package updates the
// reason.
func (s *SQLiteStore) AddPin(ctx context.Context, name, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pins (name, reason, created_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET reason = excluded.reason
	`, name, reason, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to pin %s: %w", name, err)
	}
	return nil
}

// RemovePin unpins a package.
func (s *SQLiteStore) RemovePin(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pins WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to unpin %s: %w", name, err)
	}
	return nil
}

// RecordRun stores a run and its per-action outcomes in one
// transaction.
func (s *SQLiteStore) RecordRun(ctx context.Context, run Run, actions []RunAction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, plan_id, status, started_at, duration_ms, succeeded, failed, skipped, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.PlanID, run.Status, run.StartedAt, run.DurationMS,
		run.Succeeded, run.Failed, run.Skipped, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, a := range actions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_actions (run_id, seq, kind, package, service, target, status, error, reason, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, run.ID, a.Seq, a.Kind, a.Package, a.Service, a.Target, a.Status, a.Error, a.Reason, a.DurationMS)
		if err != nil {
			return fmt.Errorf("failed to record action %d: %w", a.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run record: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent runs, newest first.
func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, plan_id, status, started_at, duration_ms, succeeded, failed, skipped, created_at
		FROM runs ORDER BY started_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.PlanID, &r.Status, &r.StartedAt, &r.DurationMS,
			&r.Succeeded, &r.Failed, &r.Skipped, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
