package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	appLog "planner/internal/log"
	"planner/internal/model"
)

// SQLStore is the database/sql implementation of the record stores.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// OpenSQL connects to the configured database and applies the schema.
func OpenSQL(ctx context.Context, cfg Config) (*SQLStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var driverName string
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite:
		driverName = "sqlite3"
	case DriverPostgres:
		driverName = "pgx"
	default:
		return nil, fmt.Errorf("store: driver %q is not SQL-backed", cfg.Driver)
	}

	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driverName == "sqlite3" {
		// A single connection keeps ":memory:" databases coherent and
		// avoids SQLITE_BUSY on concurrent writers.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, postgres: driverName == "pgx"}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	appLog.Info("store opened", "driver", cfg.Driver)
	return s, nil
}

func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL DEFAULT '',
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			client_ref TEXT NOT NULL DEFAULT '',
			amount DOUBLE PRECISION NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS appointments (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			time TEXT NOT NULL DEFAULT '',
			client_id TEXT NOT NULL DEFAULT '',
			client_name TEXT NOT NULL DEFAULT '',
			contact_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS callbacks (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			time TEXT NOT NULL DEFAULT '',
			client_id TEXT NOT NULL DEFAULT '',
			client_name TEXT NOT NULL DEFAULT '',
			contact_name TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS planning_blocks (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			start_time TEXT NOT NULL DEFAULT '',
			end_time TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			rrule TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_date ON appointments (date)`,
		`CREATE INDEX IF NOT EXISTS idx_callbacks_date ON callbacks (date)`,
		`CREATE INDEX IF NOT EXISTS idx_planning_blocks_owner_date ON planning_blocks (owner_id, date)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites "?" placeholders into "$n" for PostgreSQL.
func (s *SQLStore) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) ListSessions(ctx context.Context, from, to model.Date) ([]model.Session, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, start_date, end_date, start_time, end_time, title, client_ref, amount
		FROM sessions
		WHERE start_date <= ? AND COALESCE(NULLIF(end_date, ''), start_date) >= ?
		ORDER BY start_date, start_time, id`), to.String(), from.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		var r model.Session
		if err := rows.Scan(&r.ID, &r.StartDate, &r.EndDate, &r.StartTime, &r.EndTime, &r.Title, &r.ClientRef, &r.Amount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAppointments(ctx context.Context, from, to model.Date) ([]model.Appointment, error) {
	rows, err := s.queryDated(ctx, "appointments", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var r model.Appointment
		if err := rows.Scan(&r.ID, &r.Date, &r.Time, &r.ClientID, &r.ClientName, &r.ContactName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListCallbacks(ctx context.Context, from, to model.Date) ([]model.Callback, error) {
	rows, err := s.queryDated(ctx, "callbacks", from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Callback
	for rows.Next() {
		var r model.Callback
		if err := rows.Scan(&r.ID, &r.Date, &r.Time, &r.ClientID, &r.ClientName, &r.ContactName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// queryDated lists appointments or callbacks, which share their columns.
func (s *SQLStore) queryDated(ctx context.Context, table string, from, to model.Date) (*sql.Rows, error) {
	q := `SELECT id, date, time, client_id, client_name, contact_name FROM ` + table + `
		WHERE date >= ? AND date <= ?
		ORDER BY date, time, id`
	return s.db.QueryContext(ctx, s.rebind(q), from.String(), to.String())
}

func (s *SQLStore) ListPlanningBlocks(ctx context.Context, ownerID string, from, to model.Date) ([]model.PlanningBlock, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, owner_id, date, start_time, end_time, kind, title, description, rrule
		FROM planning_blocks
		WHERE (? = '' OR owner_id = ?)
		  AND ((date >= ? AND date <= ?) OR (rrule <> '' AND date <= ?))
		ORDER BY date, start_time, id`),
		ownerID, ownerID, from.String(), to.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlanningBlock
	for rows.Next() {
		var r model.PlanningBlock
		var kind string
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Date, &r.StartTime, &r.EndTime, &kind, &r.Title, &r.Description, &r.RRule); err != nil {
			return nil, err
		}
		r.Kind = model.BlockKind(kind)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpdateAppointmentDate(ctx context.Context, id string, date model.Date) error {
	return s.execOne(ctx, `UPDATE appointments SET date = ? WHERE id = ?`, date.String(), id)
}

func (s *SQLStore) UpdateCallbackDate(ctx context.Context, id string, date model.Date) error {
	return s.execOne(ctx, `UPDATE callbacks SET date = ? WHERE id = ?`, date.String(), id)
}

func (s *SQLStore) UpdatePlanningBlockDate(ctx context.Context, id string, date model.Date) error {
	return s.execOne(ctx, `UPDATE planning_blocks SET date = ? WHERE id = ?`, date.String(), id)
}

func (s *SQLStore) DeletePlanningBlock(ctx context.Context, id string) error {
	return s.execOne(ctx, `DELETE FROM planning_blocks WHERE id = ?`, id)
}

func (s *SQLStore) CreatePlanningBlock(ctx context.Context, b model.PlanningBlock) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO planning_blocks (id, owner_id, date, start_time, end_time, kind, title, description, rrule)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.OwnerID, b.Date, b.StartTime, b.EndTime, string(b.Kind), b.Title, b.Description, b.RRule)
	return err
}

func (s *SQLStore) InsertSession(ctx context.Context, r model.Session) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO sessions (id, start_date, end_date, start_time, end_time, title, client_ref, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		r.ID, r.StartDate, r.EndDate, r.StartTime, r.EndTime, r.Title, r.ClientRef, r.Amount)
	return err
}

func (s *SQLStore) InsertAppointment(ctx context.Context, r model.Appointment) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO appointments (id, date, time, client_id, client_name, contact_name)
		VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.Date, r.Time, r.ClientID, r.ClientName, r.ContactName)
	return err
}

func (s *SQLStore) InsertCallback(ctx context.Context, r model.Callback) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO callbacks (id, date, time, client_id, client_name, contact_name)
		VALUES (?, ?, ?, ?, ?, ?)`),
		r.ID, r.Date, r.Time, r.ClientID, r.ClientName, r.ContactName)
	return err
}

func (s *SQLStore) execOne(ctx context.Context, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, s.rebind(q), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
