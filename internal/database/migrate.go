package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"perpetua/internal/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrVersionUnsupported is returned by Version for drivers without a migration ledger.
var ErrVersionUnsupported = errors.New("migration version tracking is only available for pgx")

// Oracle errors that mean a migration statement already took effect.
var oracleIdempotentErrors = map[string][]string{
	"up":   {"ORA-00955", "ORA-01408"}, // name already used; column list already indexed
	"down": {"ORA-00942", "ORA-01418"}, // table or index does not exist
}

// MigrateUp applies every pending migration.
func MigrateUp(ctx context.Context, db *sqlx.DB, driver string) error {
	if driver == DriverOracle {
		return runOracle(ctx, db, "up")
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	logger.Get().Info("Migrations applied", zap.String("driver", driver))
	return nil
}

// MigrateDown reverts every applied migration.
func MigrateDown(ctx context.Context, db *sqlx.DB, driver string) error {
	if driver == DriverOracle {
		return runOracle(ctx, db, "down")
	}
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	logger.Get().Info("Migrations reverted", zap.String("driver", driver))
	return nil
}

// Version reports the current schema version and whether the last migration left it dirty.
func Version(db *sqlx.DB, driver string) (uint, bool, error) {
	if driver == DriverOracle {
		return 0, false, ErrVersionUnsupported
	}
	m, err := newMigrator(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := migratepgx.WithInstance(db.DB, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// migrationFiles lists the embedded files for direction in application order.
func migrationFiles(direction string) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "."+direction+".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if direction == "down" {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	return names, nil
}

// splitStatements breaks a migration file into statements go-ora can execute one at a time.
func splitStatements(content string) []string {
	var stmts []string
	for _, part := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(part, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				lines = append(lines, line)
			}
		}
		if stmt := strings.TrimSpace(strings.Join(lines, "\n")); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func isIdempotentOracleError(direction string, err error) bool {
	for _, code := range oracleIdempotentErrors[direction] {
		if strings.Contains(err.Error(), code) {
			return true
		}
	}
	return false
}

func runOracle(ctx context.Context, db *sqlx.DB, direction string) error {
	l := logger.Get()

	files, err := migrationFiles(direction)
	if err != nil {
		return err
	}
	for _, name := range files {
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				if isIdempotentOracleError(direction, err) {
					l.Info("Skipping statement already applied", zap.String("file", name), zap.Error(err))
					continue
				}
				return fmt.Errorf("could not execute migration %s: %w", name, err)
			}
		}
		l.Info("Executed migration", zap.String("file", name))
	}
	return nil
}
