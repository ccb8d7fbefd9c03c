package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"
)

var migrationName = regexp.MustCompile(`^(\d+)_.*\.(up|down)\.sql$`)

// Migration is one numbered schema change with its up and down scripts.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// LoadMigrations reads NNNN_name.up.sql / NNNN_name.down.sql pairs from fsys,
// ordered by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := map[string]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationName.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		m := byVersion[match[1]]
		if m == nil {
			m = &Migration{Version: match[1]}
			byVersion[match[1]] = m
		}
		switch match[2] {
		case "up":
			if m.Up != "" {
				return nil, fmt.Errorf("duplicate up migration for version %s", m.Version)
			}
			m.Up = entry.Name()
		case "down":
			if m.Down != "" {
				return nil, fmt.Errorf("duplicate down migration for version %s", m.Version)
			}
			m.Down = entry.Name()
		}
	}

	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("version %s must include both up and down files", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ApplyMigrations runs every pending up migration from migrationsDir.
func ApplyMigrations(ctx context.Context, db *sql.DB, migrationsDir string) error {
	return ApplyMigrationsFS(ctx, db, os.DirFS(migrationsDir))
}

func ApplyMigrationsFS(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	if err := ensureMigrationsTable(ctx, db); err != nil {
		return err
	}
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if migrated, err := isMigrated(ctx, db, m.Up); err != nil {
			return err
		} else if migrated {
			continue
		}

		contents, err := fs.ReadFile(fsys, m.Up)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.Up, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", m.Up, err)
		}

		if _, err := tx.ExecContext(ctx, string(contents)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", m.Up, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES($1)`, m.Up); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Up, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.Up, err)
		}
	}

	return nil
}

// RollbackMigrations runs every down script, newest first, and forgets the
// applied versions.
func RollbackMigrations(ctx context.Context, db *sql.DB, fsys fs.FS) error {
	migrations, err := LoadMigrations(fsys)
	if err != nil {
		return err
	}
	for i := len(migrations) - 1; i >= 0; i-- {
		m := migrations[i]
		contents, err := fs.ReadFile(fsys, m.Down)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", m.Down, err)
		}
		if text := strings.TrimSpace(string(contents)); text != "" {
			if _, err := db.ExecContext(ctx, text); err != nil {
				return fmt.Errorf("execute migration %s: %w", m.Down, err)
			}
		}
		if _, err := db.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version=$1`, m.Up); err != nil {
			return fmt.Errorf("forget migration %s: %w", m.Up, err)
		}
	}
	return nil
}

func ensureMigrationsTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return nil
}

func isMigrated(ctx context.Context, db *sql.DB, version string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", version, err)
	}
	return exists, nil
}
