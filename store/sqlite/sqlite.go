/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements wfh.TxStore (applications, bookings, withdrawal records) and
  wfh.Directory (employees) on one SQLite database. In production, the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  wfh.Store:     Application / Booking / WithdrawalRecord persistence
  wfh.TxStore:   Atomic units of work
  wfh.Directory: Employee and reporting-line lookups

KEY TABLES:
  employees:       Directory records, reporting_manager is a self-reference
  wfh_application: One row per submission
  wfh_schedule:    One row per booked day (cascades from wfh_application)
  wfh_withdrawal:  Append-only withdrawal log (cascades from wfh_schedule)
  booking_halves:  One row per half-day a booking occupies

LIVE-SLOT CONSTRAINT:
  idx_unique_live_half is a partial UNIQUE index over
  booking_halves(staff_id, wfh_date, half) WHERE live = 1. A FULL booking
  owns both its AM and PM rows, so two racing submissions for overlapping
  slots cannot both commit: the loser gets wfh.ErrSlotTaken. UpdateBooking
  clears live when a booking leaves the live set.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole unit of work, so callers must not call back into the Store or the
  Directory from inside fn except through the Store fn receives.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/wfh.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := wfh.NewService(store, store, wfh.DefaultPolicy())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - wfh/store.go: Interface definitions
  - wfh/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/allinone/wfh-engine/wfh"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees (directory)
	CREATE TABLE IF NOT EXISTS employees (
		staff_id INTEGER PRIMARY KEY,
		staff_fname TEXT NOT NULL,
		staff_lname TEXT NOT NULL,
		dept TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		reporting_manager INTEGER,
		role INTEGER NOT NULL DEFAULT 2,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_manager
		ON employees(reporting_manager);

	-- Applications (one per submission)
	CREATE TABLE IF NOT EXISTS wfh_application (
		application_id TEXT PRIMARY KEY,
		staff_id INTEGER NOT NULL,
		time_slot TEXT NOT NULL CHECK (time_slot IN ('AM', 'PM', 'FULL')),
		staff_apply_reason TEXT NOT NULL DEFAULT '',
		manager_reject_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_application_staff
		ON wfh_application(staff_id);

	-- Bookings (one per day)
	CREATE TABLE IF NOT EXISTS wfh_schedule (
		wfh_id TEXT PRIMARY KEY,
		application_id TEXT NOT NULL
			REFERENCES wfh_application(application_id) ON DELETE CASCADE,
		wfh_date TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN
			('Pending_Approval', 'Approved', 'Rejected', 'Withdrawn', 'Pending_Withdrawal')),
		manager_withdraw_reason TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_schedule_application
		ON wfh_schedule(application_id);
	CREATE INDEX IF NOT EXISTS idx_schedule_status_date
		ON wfh_schedule(status, wfh_date);

	-- Withdrawal log (append-only; newest = highest withdrawal_no)
	CREATE TABLE IF NOT EXISTS wfh_withdrawal (
		withdrawal_no INTEGER PRIMARY KEY AUTOINCREMENT,
		withdrawal_id TEXT NOT NULL UNIQUE,
		wfh_id TEXT NOT NULL
			REFERENCES wfh_schedule(wfh_id) ON DELETE CASCADE,
		staff_withdraw_reason TEXT NOT NULL DEFAULT '',
		manager_reject_withdrawal_reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawal_booking
		ON wfh_withdrawal(wfh_id, withdrawal_no);

	-- Half-day occupancy
	CREATE TABLE IF NOT EXISTS booking_halves (
		wfh_id TEXT NOT NULL
			REFERENCES wfh_schedule(wfh_id) ON DELETE CASCADE,
		staff_id INTEGER NOT NULL,
		wfh_date TEXT NOT NULL,
		half TEXT NOT NULL CHECK (half IN ('AM', 'PM')),
		live INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (wfh_id, half)
	);

	-- CRITICAL: one live booking per staff member per half-day
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_live_half
		ON booking_halves(staff_id, wfh_date, half)
		WHERE live = 1;
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// WFH STORE (wfh.Store interface)
// =============================================================================

// CreateApplication writes the application and its bookings in one transaction.
func (s *Store) CreateApplication(ctx context.Context, app wfh.Application, bookings []wfh.Booking) error {
	return s.WithTx(ctx, func(tx wfh.Store) error {
		return tx.CreateApplication(ctx, app, bookings)
	})
}

func (s *Store) GetApplication(ctx context.Context, id wfh.ApplicationID) (*wfh.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records{s.db}.GetApplication(ctx, id)
}

func (s *Store) SetApplicationRejectReason(ctx context.Context, id wfh.ApplicationID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return records{s.db}.SetApplicationRejectReason(ctx, id, reason)
}

func (s *Store) GetBooking(ctx context.Context, id wfh.BookingID) (*wfh.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records{s.db}.GetBooking(ctx, id)
}

func (s *Store) FindBookings(ctx context.Context, f wfh.BookingFilter) ([]wfh.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records{s.db}.FindBookings(ctx, f)
}

func (s *Store) CountBookings(ctx context.Context, f wfh.BookingFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records{s.db}.CountBookings(ctx, f)
}

// UpdateBooking runs in its own transaction because it touches two tables.
func (s *Store) UpdateBooking(ctx context.Context, b wfh.Booking) error {
	return s.WithTx(ctx, func(tx wfh.Store) error {
		return tx.UpdateBooking(ctx, b)
	})
}

func (s *Store) AppendWithdrawal(ctx context.Context, w wfh.WithdrawalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return records{s.db}.AppendWithdrawal(ctx, w)
}

func (s *Store) LatestWithdrawal(ctx context.Context, bookingID wfh.BookingID) (*wfh.WithdrawalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return records{s.db}.LatestWithdrawal(ctx, bookingID)
}

func (s *Store) UpdateWithdrawal(ctx context.Context, w wfh.WithdrawalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return records{s.db}.UpdateWithdrawal(ctx, w)
}

// Withdrawals returns the full withdrawal log of a booking, oldest first.
func (s *Store) Withdrawals(ctx context.Context, bookingID wfh.BookingID) ([]wfh.WithdrawalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, withdrawalColumns+`
		WHERE wfh_id = ?
		ORDER BY withdrawal_no ASC
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	var out []wfh.WithdrawalRecord
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (wfh.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store wfh.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(records{sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// records runs every wfh.Store operation against one querier. The Store
// uses it with the pool under its lock; WithTx hands one bound to the
// transaction to fn.
type records struct {
	q querier
}

func (r records) CreateApplication(ctx context.Context, app wfh.Application, bookings []wfh.Booking) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO wfh_application
		(application_id, staff_id, time_slot, staff_apply_reason, manager_reject_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		app.ID,
		app.StaffID,
		app.Slot,
		app.Reason,
		nullString(app.RejectReason),
		formatTime(app.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}

	for _, b := range bookings {
		_, err := r.q.ExecContext(ctx, `
			INSERT INTO wfh_schedule (wfh_id, application_id, wfh_date, status, manager_withdraw_reason)
			VALUES (?, ?, ?, ?, ?)
		`, b.ID, app.ID, b.Date.String(), b.Status, nullString(b.ForceWithdrawReason))
		if err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
		}

		for _, half := range app.Slot.Halves() {
			_, err := r.q.ExecContext(ctx, `
				INSERT INTO booking_halves (wfh_id, staff_id, wfh_date, half, live)
				VALUES (?, ?, ?, ?, ?)
			`, b.ID, app.StaffID, b.Date.String(), half, b.Status.IsLive())
			if err != nil {
				if isLiveHalfError(err) {
					return fmt.Errorf("%s %s of staff %d: %w", b.Date, half, app.StaffID, wfh.ErrSlotTaken)
				}
				return fmt.Errorf("failed to insert booking half: %w", err)
			}
		}
	}
	return nil
}

func (r records) GetApplication(ctx context.Context, id wfh.ApplicationID) (*wfh.Application, error) {
	var (
		app          wfh.Application
		rejectReason sql.NullString
		createdAt    string
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT application_id, staff_id, time_slot, staff_apply_reason, manager_reject_reason, created_at
		FROM wfh_application
		WHERE application_id = ?
	`, id).Scan(&app.ID, &app.StaffID, &app.Slot, &app.Reason, &rejectReason, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	app.RejectReason = stringPtr(rejectReason)
	app.CreatedAt = parseTime(createdAt)
	return &app, nil
}

func (r records) SetApplicationRejectReason(ctx context.Context, id wfh.ApplicationID, reason string) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE wfh_application SET manager_reject_reason = ? WHERE application_id = ?",
		reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	return requireRow(res, "application", string(id))
}

const bookingColumns = `
	SELECT s.wfh_id, s.application_id, a.staff_id, a.time_slot, s.wfh_date, s.status, s.manager_withdraw_reason
	FROM wfh_schedule s
	JOIN wfh_application a ON a.application_id = s.application_id
`

func (r records) GetBooking(ctx context.Context, id wfh.BookingID) (*wfh.Booking, error) {
	rows, err := r.q.QueryContext(ctx, bookingColumns+" WHERE s.wfh_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	b, err := scanBooking(rows)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r records) FindBookings(ctx context.Context, f wfh.BookingFilter) ([]wfh.Booking, error) {
	where, args := bookingWhere(f)
	rows, err := r.q.QueryContext(ctx, bookingColumns+where+" ORDER BY s.wfh_date ASC, s.wfh_id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []wfh.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r records) CountBookings(ctx context.Context, f wfh.BookingFilter) (int, error) {
	where, args := bookingWhere(f)
	var n int
	err := r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM wfh_schedule s
		JOIN wfh_application a ON a.application_id = s.application_id
	`+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (r records) UpdateBooking(ctx context.Context, b wfh.Booking) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE wfh_schedule SET status = ?, manager_withdraw_reason = ? WHERE wfh_id = ?",
		b.Status, nullString(b.ForceWithdrawReason), b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if err := requireRow(res, "booking", string(b.ID)); err != nil {
		return err
	}

	_, err = r.q.ExecContext(ctx,
		"UPDATE booking_halves SET live = ? WHERE wfh_id = ?",
		b.Status.IsLive(), b.ID,
	)
	if err != nil {
		if isLiveHalfError(err) {
			return fmt.Errorf("booking %s: %w", b.ID, wfh.ErrSlotTaken)
		}
		return fmt.Errorf("failed to update booking halves: %w", err)
	}
	return nil
}

const withdrawalColumns = `
	SELECT withdrawal_id, wfh_id, staff_withdraw_reason, manager_reject_withdrawal_reason, created_at
	FROM wfh_withdrawal
`

func (r records) AppendWithdrawal(ctx context.Context, w wfh.WithdrawalRecord) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO wfh_withdrawal
		(withdrawal_id, wfh_id, staff_withdraw_reason, manager_reject_withdrawal_reason, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, w.ID, w.BookingID, w.StaffReason, nullString(w.RejectReason), formatTime(w.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to append withdrawal: %w", err)
	}
	return nil
}

func (r records) LatestWithdrawal(ctx context.Context, bookingID wfh.BookingID) (*wfh.WithdrawalRecord, error) {
	rows, err := r.q.QueryContext(ctx, withdrawalColumns+`
		WHERE wfh_id = ?
		ORDER BY withdrawal_no DESC
		LIMIT 1
	`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query withdrawals: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	w, err := scanWithdrawal(rows)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r records) UpdateWithdrawal(ctx context.Context, w wfh.WithdrawalRecord) error {
	res, err := r.q.ExecContext(ctx,
		"UPDATE wfh_withdrawal SET manager_reject_withdrawal_reason = ? WHERE withdrawal_id = ?",
		nullString(w.RejectReason), w.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}
	return requireRow(res, "withdrawal", string(w.ID))
}

// bookingWhere renders a filter as a WHERE clause over wfh_schedule s
// joined with wfh_application a.
func bookingWhere(f wfh.BookingFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.StaffID != nil {
		conds = append(conds, "a.staff_id = ?")
		args = append(args, *f.StaffID)
	}
	if len(f.StaffIDs) > 0 {
		conds = append(conds, "a.staff_id IN ("+placeholders(len(f.StaffIDs))+")")
		for _, id := range f.StaffIDs {
			args = append(args, id)
		}
	}
	if f.ApplicationID != "" {
		conds = append(conds, "s.application_id = ?")
		args = append(args, f.ApplicationID)
	}
	if f.BookingID != "" {
		conds = append(conds, "s.wfh_id = ?")
		args = append(args, f.BookingID)
	}
	if len(f.Dates) > 0 {
		conds = append(conds, "s.wfh_date IN ("+placeholders(len(f.Dates))+")")
		for _, d := range f.Dates {
			args = append(args, d.String())
		}
	}
	if len(f.Slots) > 0 {
		conds = append(conds, "a.time_slot IN ("+placeholders(len(f.Slots))+")")
		for _, slot := range f.Slots {
			args = append(args, slot)
		}
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "s.status IN ("+placeholders(len(f.Statuses))+")")
		for _, st := range f.Statuses {
			args = append(args, st)
		}
	}
	if f.DateTo != nil {
		conds = append(conds, "s.wfh_date <= ?")
		args = append(args, f.DateTo.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanBooking(rows *sql.Rows) (wfh.Booking, error) {
	var (
		b           wfh.Booking
		date        string
		forceReason sql.NullString
	)
	if err := rows.Scan(&b.ID, &b.ApplicationID, &b.StaffID, &b.Slot, &date, &b.Status, &forceReason); err != nil {
		return b, fmt.Errorf("failed to scan booking: %w", err)
	}
	parsed, err := wfh.ParseDate(date)
	if err != nil {
		return b, fmt.Errorf("booking %s: %w", b.ID, err)
	}
	b.Date = parsed
	b.ForceWithdrawReason = stringPtr(forceReason)
	return b, nil
}

func scanWithdrawal(rows *sql.Rows) (wfh.WithdrawalRecord, error) {
	var (
		w            wfh.WithdrawalRecord
		rejectReason sql.NullString
		createdAt    string
	)
	if err := rows.Scan(&w.ID, &w.BookingID, &w.StaffReason, &rejectReason, &createdAt); err != nil {
		return w, fmt.Errorf("failed to scan withdrawal: %w", err)
	}
	w.RejectReason = stringPtr(rejectReason)
	w.CreatedAt = parseTime(createdAt)
	return w, nil
}

// =============================================================================
// DIRECTORY (wfh.Directory interface)
// =============================================================================

const employeeColumns = `
	SELECT staff_id, staff_fname, staff_lname, dept, position, country, email, reporting_manager, role
	FROM employees
`

// SaveEmployee inserts or updates an employee.
func (s *Store) SaveEmployee(ctx context.Context, e wfh.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(staff_id, staff_fname, staff_lname, dept, position, country, email, reporting_manager, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(staff_id) DO UPDATE SET
			staff_fname = excluded.staff_fname,
			staff_lname = excluded.staff_lname,
			dept = excluded.dept,
			position = excluded.position,
			country = excluded.country,
			email = excluded.email,
			reporting_manager = excluded.reporting_manager,
			role = excluded.role
	`

	var manager sql.NullInt64
	if e.ManagerID != nil {
		manager = sql.NullInt64{Int64: int64(*e.ManagerID), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.FirstName, e.LastName, e.Department, e.Position, e.Country, e.Email,
		manager, e.Role,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %d: %w", e.ID, err)
	}
	return nil
}

// GetEmployee retrieves an employee by staff id.
func (s *Store) GetEmployee(ctx context.Context, id wfh.StaffID) (*wfh.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, employeeColumns+" WHERE staff_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("staff %d: %w", id, wfh.ErrEmployeeNotFound)
	}
	e, err := scanEmployee(rows)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetReportingManager returns nil, nil for employees without a manager.
func (s *Store) GetReportingManager(ctx context.Context, id wfh.StaffID) (*wfh.Employee, error) {
	e, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.ManagerID == nil {
		return nil, nil
	}
	mgr, err := s.GetEmployee(ctx, *e.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("manager of staff %d: %w", id, err)
	}
	return mgr, nil
}

// ListReports returns the employees whose reporting_manager is managerID.
func (s *Store) ListReports(ctx context.Context, managerID wfh.StaffID) ([]wfh.Employee, error) {
	return s.queryEmployees(ctx, employeeColumns+" WHERE reporting_manager = ? ORDER BY staff_id", managerID)
}

// ListEmployees returns all employees.
func (s *Store) ListEmployees(ctx context.Context) ([]wfh.Employee, error) {
	return s.queryEmployees(ctx, employeeColumns+" ORDER BY staff_id")
}

func (s *Store) queryEmployees(ctx context.Context, query string, args ...any) ([]wfh.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []wfh.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func scanEmployee(rows *sql.Rows) (wfh.Employee, error) {
	var (
		e       wfh.Employee
		manager sql.NullInt64
	)
	err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Department, &e.Position,
		&e.Country, &e.Email, &manager, &e.Role)
	if err != nil {
		return e, fmt.Errorf("failed to scan employee: %w", err)
	}
	if manager.Valid {
		id := wfh.StaffID(manager.Int64)
		e.ManagerID = &id
	}
	return e, nil
}

// Reset deletes all WFH records (employees are kept).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM booking_halves;
		DELETE FROM wfh_withdrawal;
		DELETE FROM wfh_schedule;
		DELETE FROM wfh_application;
	`)
	return err
}

var (
	_ wfh.TxStore   = (*Store)(nil)
	_ wfh.Directory = (*Store)(nil)
	_ wfh.Store     = records{}
)

// Helper functions

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, wfh.ErrNotFound)
	}
	return nil
}

func isLiveHalfError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(sqliteErr.Error(), "booking_halves")
}
