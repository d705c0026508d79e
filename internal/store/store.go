// Package store persists the most recently solved schedule per
// (selectedDate, day) so a later solve can warm-start from it (§4.6).
// Warm-start retrieval from persistence is explicitly peripheral to the
// solver core: internal/clinic never imports this package, it always takes
// initialSchedule as a plain value from whatever caller built one. Built on
// top of the teacher's internal/shared/infrastructure/database dual-driver
// abstraction (same Connection/Executor/Driver interfaces, same
// function-variable driver registration via blank imports of its
// postgres/sqlite subpackages). Optionally encrypts the stored schedule
// payload at rest with internal/shared/infrastructure/crypto's AES-GCM
// helper, since a schedule carries client names.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/fiddlerhealth/abasolve/internal/clinic/domain"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/crypto"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/database/sqlite"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/migrations"
	"github.com/fiddlerhealth/abasolve/internal/shared/infrastructure/security"
)

// Repository persists and retrieves warm-start schedules.
type Repository interface {
	SaveSchedule(ctx context.Context, selectedDate string, day domain.Weekday, schedule []domain.ScheduleEntry) error
	LoadSchedule(ctx context.Context, selectedDate string, day domain.Weekday) ([]domain.ScheduleEntry, bool, error)
	Close() error
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS warm_start_schedules (
	selected_date TEXT NOT NULL,
	day TEXT NOT NULL,
	schedule_json TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (selected_date, day)
)`

// sqlRepository implements Repository over a database.Connection, working
// against either driver since both speak the same Executor interface. When
// encrypter is non-nil the schedule_json column holds base64 AES-GCM
// ciphertext instead of plain JSON.
type sqlRepository struct {
	conn      database.Connection
	encrypter crypto.Encrypter
}

// NewRepository opens a connection per cfg (dispatching on cfg.Driver
// exactly as database.NewConnection does) and ensures the warm-start table
// exists. encryptionKey, if non-empty, is a base64-encoded 32-byte AES-GCM
// key used to encrypt the stored schedule payload at rest.
func NewRepository(ctx context.Context, cfg database.Config, encryptionKey string) (Repository, error) {
	if cfg.Driver == database.DriverSQLite && cfg.SQLitePath != "" {
		cleanPath, err := security.ValidateFilePath(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("validate sqlite path: %w", err)
		}
		cfg.SQLitePath = cleanPath
	}

	var encrypter crypto.Encrypter
	if encryptionKey != "" {
		enc, err := crypto.NewAESGCMFromBase64Key(encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("configure store encryption: %w", err)
		}
		encrypter = enc
	}

	conn, err := database.NewConnection(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open warm-start store connection: %w", err)
	}

	if err := ensureSchema(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &sqlRepository{conn: conn, encrypter: encrypter}, nil
}

// ensureSchema creates the warm_start_schedules table. SQLite connections
// run the checked-in migration file through
// internal/shared/infrastructure/migrations; other drivers fall back to the
// same CREATE TABLE statement run directly, since there is only one table.
func ensureSchema(ctx context.Context, conn database.Connection) error {
	if sqliteConn, ok := conn.(*sqlite.Connection); ok {
		if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
			return fmt.Errorf("run sqlite migrations: %w", err)
		}
		return nil
	}

	if _, err := conn.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create warm_start_schedules table: %w", err)
	}
	return nil
}

// SaveSchedule upserts the schedule for (selectedDate, day). Runs against
// whatever transaction database.WithTx placed on ctx, falling back to the
// bare connection, so a caller that later wraps a solve-and-persist
// sequence in a transaction gets that behavior for free.
func (r *sqlRepository) SaveSchedule(ctx context.Context, selectedDate string, day domain.Weekday, schedule []domain.ScheduleEntry) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	stored, err := r.encode(payload)
	if err != nil {
		return fmt.Errorf("encrypt schedule: %w", err)
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, upsertSQL(r.conn.Driver()), selectedDate, string(day), stored)
	if err != nil {
		return fmt.Errorf("save warm-start schedule: %w", err)
	}
	return nil
}

// LoadSchedule returns the most recently saved schedule for
// (selectedDate, day), if one exists.
func (r *sqlRepository) LoadSchedule(ctx context.Context, selectedDate string, day domain.Weekday) ([]domain.ScheduleEntry, bool, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx,
		`SELECT schedule_json FROM warm_start_schedules WHERE selected_date = $1 AND day = $2`,
		selectedDate, string(day))

	var stored string
	if err := row.Scan(&stored); err != nil {
		if database.IsNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load warm-start schedule: %w", err)
	}

	payload, err := r.decode(stored)
	if err != nil {
		return nil, false, fmt.Errorf("decrypt schedule: %w", err)
	}

	var schedule []domain.ScheduleEntry
	if err := json.Unmarshal(payload, &schedule); err != nil {
		return nil, false, fmt.Errorf("unmarshal warm-start schedule: %w", err)
	}
	return schedule, true, nil
}

// encode returns the string to store for payload, encrypting and
// base64-wrapping it when r.encrypter is configured.
func (r *sqlRepository) encode(payload []byte) (string, error) {
	if r.encrypter == nil {
		return string(payload), nil
	}
	ciphertext, err := r.encrypter.Encrypt(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decode reverses encode.
func (r *sqlRepository) decode(stored string) ([]byte, error) {
	if r.encrypter == nil {
		return []byte(stored), nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, err
	}
	return r.encrypter.Decrypt(ciphertext)
}

// Close releases the underlying connection.
func (r *sqlRepository) Close() error {
	return r.conn.Close()
}

// upsertSQL returns the driver-specific upsert statement: pgx uses
// numbered placeholders with ON CONFLICT, modernc.org/sqlite accepts the
// same syntax since SQLite also understands ON CONFLICT upserts.
func upsertSQL(driver database.Driver) string {
	return `
INSERT INTO warm_start_schedules (selected_date, day, schedule_json, updated_at)
VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
ON CONFLICT (selected_date, day)
DO UPDATE SET schedule_json = excluded.schedule_json, updated_at = CURRENT_TIMESTAMP`
}

// NoopRepository never persists, used when warm-start storage is disabled.
type NoopRepository struct{}

func (NoopRepository) SaveSchedule(ctx context.Context, selectedDate string, day domain.Weekday, schedule []domain.ScheduleEntry) error {
	return nil
}

func (NoopRepository) LoadSchedule(ctx context.Context, selectedDate string, day domain.Weekday) ([]domain.ScheduleEntry, bool, error) {
	return nil, false, nil
}

func (NoopRepository) Close() error { return nil }
