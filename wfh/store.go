/*
store.go - Interfaces the engine consumes

PURPOSE:
  The engine never talks to a database directly. It is handed a TxStore for
  WFH records and a Directory for employee lookups.

KEY INTERFACES:
  Store:     Application / Booking / WithdrawalRecord persistence
  TxStore:   Store + WithTx for atomic units of work
  Directory: Read-only employee and reporting-line lookups

ATOMIC UNITS:
  Every Service operation runs inside one WithTx call. Creating an
  Application with its five weekly Bookings either writes all six rows or
  none. A batch approval moves every pending Booking or none.

LIVE-SLOT CONSTRAINT:
  CreateApplication must return ErrSlotTaken (possibly wrapped) instead of
  writing a Booking that would overlap a live Booking of the same staff member
  on the same half-day. UpdateBooking must keep that bookkeeping in step when
  a Booking leaves the live set.

IMPLEMENTATIONS:
  - wfh/store/memory.go:  In-memory, for tests and development
  - store/sqlite/sqlite.go: SQLite

SEE ALSO:
  - conflict.go: The application-level count that runs before the write
*/
package wfh

import (
	"context"
	"slices"
)

// BookingFilter selects bookings. Zero-valued fields do not filter.
type BookingFilter struct {
	StaffID       *StaffID
	StaffIDs      []StaffID
	ApplicationID ApplicationID
	BookingID     BookingID
	Dates         []Date
	Slots         []Slot // slot of the owning Application
	Statuses      []Status
	DateTo        *Date // inclusive upper bound on the booking date
}

// Matches applies the filter to one booking. Stores that cannot push the
// filter into a query use it directly.
func (f BookingFilter) Matches(b Booking) bool {
	if f.StaffID != nil && b.StaffID != *f.StaffID {
		return false
	}
	if len(f.StaffIDs) > 0 && !slices.Contains(f.StaffIDs, b.StaffID) {
		return false
	}
	if f.ApplicationID != "" && b.ApplicationID != f.ApplicationID {
		return false
	}
	if f.BookingID != "" && b.ID != f.BookingID {
		return false
	}
	if len(f.Slots) > 0 && !slices.Contains(f.Slots, b.Slot) {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status) {
		return false
	}
	if f.DateTo != nil && b.Date.After(*f.DateTo) {
		return false
	}
	if len(f.Dates) > 0 {
		for _, d := range f.Dates {
			if d.Equal(b.Date) {
				return true
			}
		}
		return false
	}
	return true
}

// Store persists applications, bookings and withdrawal records.
type Store interface {
	// CreateApplication writes app and its bookings atomically.
	CreateApplication(ctx context.Context, app Application, bookings []Booking) error

	// GetApplication returns nil, nil when the id is unknown.
	GetApplication(ctx context.Context, id ApplicationID) (*Application, error)

	// SetApplicationRejectReason overwrites the manager rejection reason.
	SetApplicationRejectReason(ctx context.Context, id ApplicationID, reason string) error

	// GetBooking returns nil, nil when the id is unknown.
	GetBooking(ctx context.Context, id BookingID) (*Booking, error)

	// FindBookings returns matching bookings ordered by date, then id.
	FindBookings(ctx context.Context, f BookingFilter) ([]Booking, error)

	// CountBookings counts matching bookings.
	CountBookings(ctx context.Context, f BookingFilter) (int, error)

	// UpdateBooking persists Status and ForceWithdrawReason.
	UpdateBooking(ctx context.Context, b Booking) error

	// AppendWithdrawal adds a record to the booking's withdrawal log.
	AppendWithdrawal(ctx context.Context, w WithdrawalRecord) error

	// LatestWithdrawal returns the most recent record, or nil, nil.
	LatestWithdrawal(ctx context.Context, bookingID BookingID) (*WithdrawalRecord, error)

	// UpdateWithdrawal persists RejectReason.
	UpdateWithdrawal(ctx context.Context, w WithdrawalRecord) error
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, everything fn wrote is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// Directory is the read-only employee service.
type Directory interface {
	// GetEmployee returns ErrEmployeeNotFound for unknown ids.
	GetEmployee(ctx context.Context, id StaffID) (*Employee, error)

	// GetReportingManager returns nil, nil when the employee has no manager.
	// The organisational root is its own reporting manager.
	GetReportingManager(ctx context.Context, id StaffID) (*Employee, error)

	// ListReports returns employees whose ManagerID is managerID (including
	// the root itself when managerID is the root).
	ListReports(ctx context.Context, managerID StaffID) ([]Employee, error)
}
