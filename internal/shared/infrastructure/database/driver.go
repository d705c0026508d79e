// Package database is the dual-driver storage abstraction the warm-start
// schedule store (internal/store) runs on: the same Connection/Executor
// contract is satisfied by both a local SQLite file (the CLI's zero-config
// default, per SPEC_FULL §10.2) and a shared PostgreSQL instance, selected
// by Driver/DetectDriver without the caller branching on which one it got.
package database

import "strings"

// Driver names a database backend this package can open a Connection for.
type Driver string

const (
	// DriverPostgres selects the pgx/v5-backed Connection.
	DriverPostgres Driver = "postgres"
	// DriverSQLite selects the modernc.org/sqlite-backed Connection, used
	// for the CLI's local warm-start store when no database URL is set.
	DriverSQLite Driver = "sqlite"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// DetectDriver infers a Driver from a connection string: no URL means the
// zero-config local SQLite path, a postgres(ql):// scheme means Postgres,
// and a sqlite/file scheme or .db/.sqlite(3) suffix means SQLite. Anything
// else is assumed to be a Postgres DSN (e.g. a bare "host=... user=..."
// keyword string), since that's the only driver this package supports
// without a recognizable URL shape.
func DetectDriver(url string) Driver {
	if url == "" {
		return DriverSQLite
	}

	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return DriverPostgres
	}

	if strings.HasPrefix(url, "sqlite://") ||
		strings.HasPrefix(url, "file:") ||
		strings.HasSuffix(url, ".db") ||
		strings.HasSuffix(url, ".sqlite") ||
		strings.HasSuffix(url, ".sqlite3") {
		return DriverSQLite
	}

	return DriverPostgres
}

// IsValid returns true if d is a driver this package knows how to open.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite:
		return true
	default:
		return false
	}
}
