package migrations

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"crosspred/internal"
)

//go:embed sql/*.sql
var embedded embed.FS

// Migrator applies the embedded schema migrations
type Migrator struct {
	db     *sql.DB
	files  fs.FS
	logger *internal.Logger
}

// NewMigrator creates a migrator over the embedded SQL files
func NewMigrator(db *sql.DB, logger *internal.Logger) *Migrator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	sub, _ := fs.Sub(embedded, "sql")
	return &Migrator{db: db, files: sub, logger: logger}
}

// MigrationFile is one versioned migration with its up and down scripts
type MigrationFile struct {
	Version string
	Name    string
	Up      string
	Down    string
}

// MigrationStatus reports whether a version has been applied
type MigrationStatus struct {
	Version string
	Name    string
	Applied bool
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMPTZ DEFAULT NOW()
	)`

// Up executes all pending migrations in version order
func (m *Migrator) Up(ctx context.Context) error {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}
	files, err := m.findMigrationFiles()
	if err != nil {
		return fmt.Errorf("failed to find migration files: %w", err)
	}

	for _, file := range files {
		if applied[file.Version] {
			continue
		}
		if err := m.applyMigration(ctx, file); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Version, err)
		}
		m.logger.Info("[Migrate] applied %s_%s", file.Version, file.Name)
	}
	return nil
}

// Down rolls back the most recently applied migration
func (m *Migrator) Down(ctx context.Context) error {
	var version string
	err := m.db.QueryRowContext(ctx, `
		SELECT version FROM schema_migrations
		ORDER BY version DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return fmt.Errorf("no migrations to rollback")
	}
	if err != nil {
		return fmt.Errorf("failed to get last migration: %w", err)
	}

	files, err := m.findMigrationFiles()
	if err != nil {
		return err
	}
	var target *MigrationFile
	for i := range files {
		if files[i].Version == version {
			target = &files[i]
		}
	}
	if target == nil || target.Down == "" {
		return fmt.Errorf("no down migration for version %s", version)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, target.Down); err != nil {
		return fmt.Errorf("failed to execute down migration: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM schema_migrations WHERE version = $1", version); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	m.logger.Info("[Migrate] rolled back %s_%s", target.Version, target.Name)
	return nil
}

// Status lists every known migration and whether it is applied
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if _, err := m.db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to ensure migrations table: %w", err)
	}
	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	files, err := m.findMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find migration files: %w", err)
	}
	out := make([]MigrationStatus, len(files))
	for i, f := range files {
		out[i] = MigrationStatus{Version: f.Version, Name: f.Name, Applied: applied[f.Version]}
	}
	return out, nil
}

// getAppliedMigrations returns map of applied migration versions
func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// calculateChecksum computes SHA256 checksum of migration content
func calculateChecksum(data string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

// findMigrationFiles pairs NNN_name.up.sql and NNN_name.down.sql files
func (m *Migrator) findMigrationFiles() ([]MigrationFile, error) {
	return parseMigrationFiles(m.files)
}

func parseMigrationFiles(fsys fs.FS) ([]MigrationFile, error) {
	byVersion := make(map[string]*MigrationFile)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".sql") {
			return nil
		}
		base := path.Base(p)
		parts := strings.SplitN(base, "_", 2)
		if len(parts) < 2 {
			return nil
		}
		version, rest := parts[0], parts[1]

		var direction string
		switch {
		case strings.HasSuffix(rest, ".up.sql"):
			direction, rest = "up", strings.TrimSuffix(rest, ".up.sql")
		case strings.HasSuffix(rest, ".down.sql"):
			direction, rest = "down", strings.TrimSuffix(rest, ".down.sql")
		default:
			return nil
		}

		body, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		f, ok := byVersion[version]
		if !ok {
			f = &MigrationFile{Version: version, Name: rest}
			byVersion[version] = f
		}
		if direction == "up" {
			f.Up = string(body)
		} else {
			f.Down = string(body)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	files := make([]MigrationFile, 0, len(byVersion))
	for _, f := range byVersion {
		if f.Up == "" {
			return nil, fmt.Errorf("migration %s has no up script", f.Version)
		}
		files = append(files, *f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Version < files[j].Version
	})
	return files, nil
}

// applyMigration executes a single migration and records its checksum
func (m *Migrator) applyMigration(ctx context.Context, file MigrationFile) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, file.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	_, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, checksum) VALUES ($1, $2)",
		file.Version, calculateChecksum(file.Up))
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return tx.Commit()
}
