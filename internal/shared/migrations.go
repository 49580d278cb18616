package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// Migration is one schema version with the SQL that applies and reverts it.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator applies versioned migrations read from a directory of NNNN_name_up.sql / NNNN_name_down.sql pairs.
//
// Applied versions are tracked in the schema_migrations table.
type Migrator struct {
	db     *sql.DB
	source fs.FS
	dir    string
}

// NewMigrator reads migrations from dir in source.
func NewMigrator(db *sql.DB, source fs.FS, dir string) *Migrator {
	return &Migrator{db: db, source: source, dir: dir}
}

// RunMigrations brings db up to the latest embedded session schema.
func RunMigrations(db *sql.DB) error {
	_, err := NewMigrator(db, migrationFiles, "sql").Up()
	return err
}

// RollbackMigration reverts the most recently applied embedded migration.
func RollbackMigration(db *sql.DB) error {
	return NewMigrator(db, migrationFiles, "sql").Down()
}

// Migrations returns every complete migration in source, ordered by version.
func (m *Migrator) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.source, m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	byVersion := map[int]*Migration{}
	for _, entry := range entries {
		version, name, direction, ok := parseMigrationName(entry.Name())
		if entry.IsDir() || !ok {
			continue
		}

		content, err := fs.ReadFile(m.source, path.Join(m.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		mig, seen := byVersion[version]
		if !seen {
			mig = &Migration{Version: version, Name: name}
			byVersion[version] = mig
		}
		if direction == "up" {
			mig.Up = string(content)
		} else {
			mig.Down = string(content)
		}
	}

	versions := lo.Keys(byVersion)
	slices.Sort(versions)

	migrations := make([]Migration, 0, len(versions))
	for _, v := range versions {
		mig := byVersion[v]
		if mig.Up == "" || mig.Down == "" {
			return nil, fmt.Errorf("incomplete migration for version %d", v)
		}
		migrations = append(migrations, *mig)
	}
	return migrations, nil
}

// Version returns the highest applied version, or -1 when nothing has been applied.
func (m *Migrator) Version() (int, error) {
	if err := m.ensureTable(); err != nil {
		return 0, err
	}

	var version int
	if err := m.db.QueryRow("SELECT COALESCE(MAX(version), -1) FROM schema_migrations").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// Up applies every migration newer than the current version and returns how many ran.
func (m *Migrator) Up() (int, error) {
	migrations, err := m.Migrations()
	if err != nil {
		return 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	current, err := m.Version()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, mig := range migrations {
		if mig.Version <= current {
			continue
		}
		if err := m.exec(mig.Up, "INSERT INTO schema_migrations (version) VALUES (?)", mig.Version); err != nil {
			return applied, fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		applied++
	}
	return applied, nil
}

// Down reverts the current version.
func (m *Migrator) Down() error {
	migrations, err := m.Migrations()
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	current, err := m.Version()
	if err != nil {
		return err
	}
	if current < 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	mig, ok := lo.Find(migrations, func(mig Migration) bool { return mig.Version == current })
	if !ok {
		return fmt.Errorf("migration version %d not found", current)
	}

	if err := m.exec(mig.Down, "DELETE FROM schema_migrations WHERE version = ?", mig.Version); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", mig.Version, mig.Name, err)
	}
	return nil
}

func (m *Migrator) ensureTable() error {
	_, err := m.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// exec runs script and the bookkeeping statement in one transaction.
func (m *Migrator) exec(script, record string, version int) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute statement: %w\nStatement: %s", err, stmt)
		}
	}
	if _, err := tx.Exec(record, version); err != nil {
		return err
	}
	return tx.Commit()
}

// parseMigrationName splits "0001_add_index_up.sql" into 1, "add_index", "up".
func parseMigrationName(file string) (version int, name, direction string, ok bool) {
	base, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}

	switch {
	case strings.HasSuffix(base, "_up"):
		base, direction = strings.TrimSuffix(base, "_up"), "up"
	case strings.HasSuffix(base, "_down"):
		base, direction = strings.TrimSuffix(base, "_down"), "down"
	default:
		return 0, "", "", false
	}

	prefix, name, _ := strings.Cut(base, "_")
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}

// splitStatements strips -- comments and splits script on semicolons, dropping empty statements.
func splitStatements(script string) []string {
	return lo.FilterMap(strings.Split(removeComments(script), ";"), func(stmt string, _ int) (string, bool) {
		stmt = strings.TrimSpace(stmt)
		return stmt, stmt != ""
	})
}

func removeComments(sql string) string {
	lines := lo.FilterMap(strings.Split(sql, "\n"), func(line string, _ int) (string, bool) {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		return line, line != ""
	})
	return strings.Join(lines, "\n")
}
