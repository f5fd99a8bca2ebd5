// Package sqlstore keeps scores that could not reach the backend in a local
// SQLite file or a Postgres database, through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"kibaro-cli/internal/infra/sqlstore/migrations"
	"kibaro-cli/internal/logger"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects to the offline store. It does not run migrations.
func Open(driver, dsn string) (*bun.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("offline store dsn not configured")
	}
	switch driver {
	case DriverSQLite:
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers; one connection also keeps :memory: databases alive
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unknown offline driver %q", driver)
	}
}

// Migrate applies pending migrations.
func Migrate(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return err
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx)
	if group.IsZero() {
		log.Debug("offline store up to date")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}

// Rollback reverts the last applied migration group.
func Rollback(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	_, err := migrator.Rollback(ctx)
	return err
}
