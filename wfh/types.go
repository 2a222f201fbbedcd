/*
Package wfh implements the work-from-home request engine.

PURPOSE:
  Staff submit WFH requests (a single day or the same weekday every week),
  their reporting manager approves or rejects them, staff may later ask to
  withdraw an approved day, managers may force-withdraw it, and a periodic
  sweep resolves anything left pending for too long.

KEY CONCEPTS IN THIS FILE (types.go):
  - Slot:             AM, PM or FULL day
  - Status:           the per-day lifecycle state (see transitions.go)
  - Application:      one submission event
  - Booking:          one calendar day of one Application
  - WithdrawalRecord: a staff request to withdraw an approved Booking
  - Employee:         a read-only directory record

OWNERSHIP:
  Application 1──* Booking 1──* WithdrawalRecord
  Deleting an Application cascades to its Bookings and their withdrawals.
  Employees belong to the Directory; the engine only holds StaffIDs.

SEE ALSO:
  - transitions.go: State machine
  - service.go:     Operations exposed to the transport layer
  - sweep.go:       Auto-resolution of stale requests
*/
package wfh

import (
	"fmt"
	"time"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type StaffID int64
type ApplicationID string
type BookingID string
type WithdrawalID string

// =============================================================================
// SLOT
// =============================================================================

type Slot string

const (
	SlotAM   Slot = "AM"
	SlotPM   Slot = "PM"
	SlotFull Slot = "FULL"
)

func (s Slot) Valid() bool {
	switch s {
	case SlotAM, SlotPM, SlotFull:
		return true
	}
	return false
}

// Halves returns the half-days a slot occupies.
func (s Slot) Halves() []Slot {
	switch s {
	case SlotAM:
		return []Slot{SlotAM}
	case SlotPM:
		return []Slot{SlotPM}
	case SlotFull:
		return []Slot{SlotAM, SlotPM}
	}
	return nil
}

// ParseSlot validates a client-supplied slot.
func ParseSlot(s string) (Slot, error) {
	slot := Slot(s)
	if !slot.Valid() {
		return "", &ValidationError{Field: "time_slot", Message: fmt.Sprintf("unknown slot %q (use AM, PM or FULL)", s)}
	}
	return slot, nil
}

// =============================================================================
// STATUS
// =============================================================================

type Status string

const (
	StatusPendingApproval   Status = "Pending_Approval"
	StatusApproved          Status = "Approved"
	StatusRejected          Status = "Rejected"
	StatusWithdrawn         Status = "Withdrawn"
	StatusPendingWithdrawal Status = "Pending_Withdrawal"
)

// AllStatuses is the closed set of booking states.
var AllStatuses = []Status{
	StatusPendingApproval,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
	StatusPendingWithdrawal,
}

// LiveStatuses are the states that occupy a slot for conflict purposes.
var LiveStatuses = []Status{StatusApproved, StatusPendingApproval, StatusPendingWithdrawal}

func (s Status) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsLive reports whether a booking in this state blocks new bookings.
func (s Status) IsLive() bool {
	return s == StatusApproved || s == StatusPendingApproval || s == StatusPendingWithdrawal
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusWithdrawn
}

// =============================================================================
// EMPLOYEE - Directory record (read-only to the engine)
// =============================================================================

// RoleTier mirrors the directory's role column: 1 = HR/senior management,
// 2 = staff, 3 = manager.
type RoleTier int

const (
	RoleSenior  RoleTier = 1
	RoleStaff   RoleTier = 2
	RoleManager RoleTier = 3
)

type Employee struct {
	ID         StaffID
	FirstName  string
	LastName   string
	Department string
	Position   string
	Country    string
	Email      string
	ManagerID  *StaffID // nil = no manager; self-reference = organisational root
	Role       RoleTier
}

func (e Employee) FullName() string { return e.FirstName + " " + e.LastName }

// IsRoot reports whether the employee reports to themself.
func (e Employee) IsRoot() bool { return e.ManagerID != nil && *e.ManagerID == e.ID }

// =============================================================================
// APPLICATION / BOOKING / WITHDRAWAL
// =============================================================================

// Application is one submission event. Immutable except RejectReason.
type Application struct {
	ID           ApplicationID
	StaffID      StaffID
	Slot         Slot
	Reason       string
	RejectReason *string
	CreatedAt    time.Time
}

// Booking is one calendar day of WFH. StaffID and Slot mirror the owning
// Application; stores populate them on read.
type Booking struct {
	ID                  BookingID
	ApplicationID       ApplicationID
	StaffID             StaffID
	Slot                Slot
	Date                Date
	Status              Status
	ForceWithdrawReason *string
}

// WithdrawalRecord is append-only per booking; the latest one is authoritative.
type WithdrawalRecord struct {
	ID           WithdrawalID
	BookingID    BookingID
	StaffReason  string
	RejectReason *string
	CreatedAt    time.Time
}

func strPtr(s string) *string { return &s }
