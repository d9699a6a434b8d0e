// Package sqlstore implements the record store and the strategy repository
// on sqlx. PostgreSQL (lib/pq) backs production; SQLite (modernc.org/sqlite,
// pure Go) backs local runs and tests. Queries are written with ? placeholders
// and rebound per driver.
package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"campaignintel/internal/errors"
	"campaignintel/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver names registered by the imported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DriverFor picks a driver from a DATABASE_URL.
func DriverFor(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres, url
	case strings.HasPrefix(url, "sqlite://"):
		return DriverSQLite, strings.TrimPrefix(url, "sqlite://")
	default:
		return DriverSQLite, url
	}
}

// Open connects, pings and migrates the database at url.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	driver, dsn := DriverFor(url)

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError(fmt.Sprintf("failed to connect to %s database", driver), err)
	}
	if driver == DriverSQLite {
		// A single connection keeps in-memory databases shared and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "%s database migration failed", driver)
	}
	return db, nil
}
