package database

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNoRows is the driver-agnostic not-found sentinel; return this from a
// driver adapter instead of leaking a pgx- or sql-specific error.
var ErrNoRows = errors.New("no rows in result set")

// IsNoRows reports whether err is any of the three "no rows" shapes a
// warm-start lookup can hit: pgx.ErrNoRows from the postgres driver,
// sql.ErrNoRows from the sqlite driver, or this package's own ErrNoRows.
// internal/store.sqlRepository.LoadSchedule uses this to turn a missing
// schedule into (nil, false, nil) instead of an error.
func IsNoRows(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, sql.ErrNoRows) ||
		errors.Is(err, ErrNoRows)
}
