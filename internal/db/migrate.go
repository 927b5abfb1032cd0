package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/edvin/billing/migrations"
)

func init() {
	goose.SetBaseFS(migrations.FS)
}

// Migrator applies the embedded goose migrations.
type Migrator struct {
	db *sql.DB
}

// OpenMigrator opens a database/sql connection through the pgx driver.
func OpenMigrator(databaseURL string) (*Migrator, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	return &Migrator{db: db}, nil
}

func (m *Migrator) Close() error {
	return m.db.Close()
}

// Up runs all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	if err := goose.UpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration.
func (m *Migrator) Down(ctx context.Context) error {
	if err := goose.DownContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("roll back migration: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func (m *Migrator) Status(ctx context.Context) error {
	if err := goose.StatusContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return 0, fmt.Errorf("get schema version: %w", err)
	}
	return v, nil
}

// RunMigrations opens a connection to the database and runs all pending
// migrations.
func RunMigrations(ctx context.Context, databaseURL string) error {
	m, err := OpenMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up(ctx)
}
