/*
service.go - Operations exposed to the transport layer

PURPOSE:
  Orchestrates every inbound action as one unit of work:
  directory lookup -> (expand -> conflict check, create only) -> transition
  -> commit.

OPERATIONS:
  Submit             staff    create Application + Bookings
  DecideApplication  manager  approve/reject every pending Booking of an Application
  DecideBooking      manager  approve/reject one pending Booking
  RequestWithdrawal  staff    withdraw an Approved or pending Booking
  DecideWithdrawal   manager  approve/reject one withdrawal request
  ForceWithdraw      manager  withdraw an Approved Booking directly
  Sweep              system   see sweep.go

RETURN CONVENTION:
  (Result, nil)    the request was understood; Result.Outcome says what happened
  (Result{}, err)  *ValidationError before touching the store, or a
                   *StoreError after the unit of work was rolled back

CLOCK:
  Service.Now is injectable so window checks are deterministic in tests.

SEE ALSO:
  - transitions.go: Legal status changes
  - conflict.go:    Duplicate detection
  - window.go:      Time-window policy
*/
package wfh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	Store     TxStore
	Directory Directory
	Policy    Policy

	// Now returns the current instant. Defaults to time.Now.
	Now func() time.Time

	// NewID generates record identifiers. Defaults to uuid.NewString.
	NewID func() string

	Logger *log.Logger
}

// NewService wires a service with the default clock, ids and logger.
func NewService(store TxStore, dir Directory, policy Policy) *Service {
	return &Service{
		Store:     store,
		Directory: dir,
		Policy:    policy,
		Now:       time.Now,
		NewID:     uuid.NewString,
		Logger:    log.Default(),
	}
}

// Clock returns the service's current instant, falling back to time.Now
// when no clock is set.
func (s *Service) Clock() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *Service) newID() string {
	if s.NewID == nil {
		return uuid.NewString()
	}
	return s.NewID()
}

func (s *Service) logf(format string, args ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Printf(format, args...)
}

// =============================================================================
// SUBMIT
// =============================================================================

type SubmitRequest struct {
	StaffID   StaffID
	Slot      Slot
	Reason    string
	StartDate Date
	EndDate   Date
}

func (r SubmitRequest) validate() error {
	if r.StaffID == 0 {
		return &ValidationError{Field: "staff_id", Message: "staff_id is required"}
	}
	if !r.Slot.Valid() {
		return &ValidationError{Field: "time_slot", Message: fmt.Sprintf("unknown slot %q", r.Slot)}
	}
	return nil
}

// Submit creates an Application and one Booking per expanded date, or
// refuses the whole submission when any date conflicts.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}
	dates, err := Expand(req.StartDate, req.EndDate, s.Policy.MaxRecurrence)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.Directory.GetEmployee(ctx, req.StaffID); err != nil {
		return Result{}, fmt.Errorf("submit: %w", err)
	}

	app := Application{
		ID:        ApplicationID(s.newID()),
		StaffID:   req.StaffID,
		Slot:      req.Slot,
		Reason:    req.Reason,
		CreatedAt: s.Clock(),
	}
	status := InitialStatus(req.StaffID, s.Policy.TopExecID)
	bookings := make([]Booking, len(dates))
	for i, d := range dates {
		bookings[i] = Booking{
			ID:            BookingID(s.newID()),
			ApplicationID: app.ID,
			StaffID:       app.StaffID,
			Slot:          app.Slot,
			Date:          d,
			Status:        status,
		}
	}

	var res Result
	err = s.Store.WithTx(ctx, func(tx Store) error {
		conflicts, err := CountConflicts(ctx, tx, req.StaffID, req.Slot, dates)
		if err != nil {
			return err
		}
		if outcome := Classify(conflicts, len(dates)); outcome != OutcomeCreated {
			res = result(outcome)
			return nil
		}
		if err := tx.CreateApplication(ctx, app, bookings); err != nil {
			return err
		}
		res = result(OutcomeCreated)
		res.Application = &app
		res.Bookings = bookings
		return nil
	})
	if errors.Is(err, ErrSlotTaken) {
		s.logf("[Submit] staff %d lost a booking race on %s..%s", req.StaffID, req.StartDate, req.EndDate)
		return result(OutcomeDuplicateConflict), nil
	}
	if err != nil {
		return Result{}, storeErr("submit", err)
	}

	if res.OK() {
		s.logf("[Submit] staff %d: application %s, %d booking(s) %s", req.StaffID, app.ID, len(bookings), status)
	}
	return res, nil
}

// =============================================================================
// MANAGER DECISIONS
// =============================================================================

type Decision string

const (
	DecisionApprove Decision = "Approve"
	DecisionReject  Decision = "Reject"
)

// DecisionRequest drives DecideApplication, DecideBooking and DecideWithdrawal.
type DecisionRequest struct {
	ManagerID     StaffID
	ApplicationID ApplicationID
	BookingID     BookingID // required by DecideBooking and DecideWithdrawal
	Decision      Decision
	RejectReason  string // required when Decision is Reject
}

func (r DecisionRequest) validate(needBooking bool) error {
	if r.ManagerID == 0 {
		return &ValidationError{Field: "manager_id", Message: "manager_id is required"}
	}
	if r.ApplicationID == "" {
		return &ValidationError{Field: "application_id", Message: "application_id is required"}
	}
	if needBooking && r.BookingID == "" {
		return &ValidationError{Field: "wfh_id", Message: "wfh_id is required"}
	}
	switch r.Decision {
	case DecisionApprove:
	case DecisionReject:
		if strings.TrimSpace(r.RejectReason) == "" {
			return &ValidationError{Field: "manager_reject_reason", Message: "a reason is required to reject"}
		}
	default:
		return &ValidationError{Field: "status", Message: fmt.Sprintf("decision must be Approve or Reject, got %q", r.Decision)}
	}
	return nil
}

// DecideApplication approves or rejects every Pending_Approval booking of
// the application in one unit of work.
func (s *Service) DecideApplication(ctx context.Context, req DecisionRequest) (Result, error) {
	if err := req.validate(false); err != nil {
		return Result{}, err
	}
	return s.decidePending(ctx, req, BookingFilter{ApplicationID: req.ApplicationID})
}

// DecideBooking approves or rejects one named Pending_Approval booking.
func (s *Service) DecideBooking(ctx context.Context, req DecisionRequest) (Result, error) {
	if err := req.validate(true); err != nil {
		return Result{}, err
	}
	return s.decidePending(ctx, req, BookingFilter{ApplicationID: req.ApplicationID, BookingID: req.BookingID})
}

func (s *Service) decidePending(ctx context.Context, req DecisionRequest, f BookingFilter) (Result, error) {
	action, message := ActionApprove, "Application Approved"
	if req.Decision == DecisionReject {
		action, message = ActionReject, "Application Rejected"
	}
	f.Statuses = []Status{StatusPendingApproval}

	app, outcome, err := s.authorizedApplication(ctx, req)
	if err != nil {
		return Result{}, storeErr("decide", err)
	}
	if outcome != "" {
		return result(outcome), nil
	}

	var res Result
	err = s.Store.WithTx(ctx, func(tx Store) error {
		bookings, err := tx.FindBookings(ctx, f)
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			res = result(OutcomeNothingPending)
			return nil
		}

		for i := range bookings {
			if err := bookings[i].apply(action); err != nil {
				return err
			}
			if err := tx.UpdateBooking(ctx, bookings[i]); err != nil {
				return err
			}
		}
		if action == ActionReject {
			if err := tx.SetApplicationRejectReason(ctx, app.ID, req.RejectReason); err != nil {
				return err
			}
			app.RejectReason = strPtr(req.RejectReason)
		}

		res = Result{Outcome: OutcomeDecided, Message: message, Application: app, Bookings: bookings}
		return nil
	})
	if err != nil {
		return Result{}, storeErr("decide", err)
	}
	if res.OK() {
		s.logf("[Decide] manager %d: %s %s (%d booking(s))", req.ManagerID, action, req.ApplicationID, len(res.Bookings))
	}
	return res, nil
}

// DecideWithdrawal approves or rejects the withdrawal request on one named
// Pending_Withdrawal booking. A rejection stores the reason on the booking's
// latest WithdrawalRecord.
func (s *Service) DecideWithdrawal(ctx context.Context, req DecisionRequest) (Result, error) {
	if err := req.validate(true); err != nil {
		return Result{}, err
	}
	action, message := ActionApproveWithdrawal, "Withdrawal Approved"
	if req.Decision == DecisionReject {
		action, message = ActionRejectWithdrawal, "Withdrawal Rejected"
	}

	app, outcome, err := s.authorizedApplication(ctx, req)
	if err != nil {
		return Result{}, storeErr("decide withdrawal", err)
	}
	if outcome != "" {
		return result(outcome), nil
	}

	var res Result
	err = s.Store.WithTx(ctx, func(tx Store) error {
		bookings, err := tx.FindBookings(ctx, BookingFilter{
			ApplicationID: req.ApplicationID,
			BookingID:     req.BookingID,
			Statuses:      []Status{StatusPendingWithdrawal},
		})
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			res = result(OutcomeNothingPending)
			return nil
		}

		b := bookings[0]
		if err := b.apply(action); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}
		if action == ActionRejectWithdrawal {
			w, err := tx.LatestWithdrawal(ctx, b.ID)
			if err != nil {
				return err
			}
			if w != nil {
				w.RejectReason = strPtr(req.RejectReason)
				if err := tx.UpdateWithdrawal(ctx, *w); err != nil {
					return err
				}
			}
		}

		res = Result{Outcome: OutcomeDecided, Message: message, Application: app, Bookings: []Booking{b}}
		return nil
	})
	if err != nil {
		return Result{}, storeErr("decide withdrawal", err)
	}
	if res.OK() {
		s.logf("[Decide] manager %d: %s booking %s", req.ManagerID, action, req.BookingID)
	}
	return res, nil
}

// authorizedApplication loads the application and checks the acting manager.
// A non-empty outcome means "stop here with this answer". It runs before the
// unit of work opens: an application's owner never changes, and directory
// lookups must not hold the store's write lock.
func (s *Service) authorizedApplication(ctx context.Context, req DecisionRequest) (*Application, Outcome, error) {
	app, err := s.Store.GetApplication(ctx, req.ApplicationID)
	if err != nil {
		return nil, "", err
	}
	if app == nil {
		return nil, OutcomeNothingPending, nil
	}
	ok, err := s.IsReportingManager(ctx, req.ManagerID, app.StaffID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		s.logf("[Decide] manager %d is not the reporting manager of staff %d", req.ManagerID, app.StaffID)
		return nil, OutcomeWrongManager, nil
	}
	return app, "", nil
}

// IsReportingManager reports whether managerID is staffID's direct manager.
func (s *Service) IsReportingManager(ctx context.Context, managerID, staffID StaffID) (bool, error) {
	mgr, err := s.Directory.GetReportingManager(ctx, staffID)
	if errors.Is(err, ErrEmployeeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return mgr != nil && mgr.ID == managerID, nil
}

// =============================================================================
// STAFF WITHDRAWAL
// =============================================================================

type WithdrawalRequest struct {
	StaffID StaffID
	Slot    Slot
	Date    Date
	Reason  string

	// ExpectedStatus is the status the client saw: Approved or
	// Pending_Approval. Empty means Approved.
	ExpectedStatus Status
}

// RequestWithdrawal withdraws the staff member's booking for (slot, date).
// An Approved booking goes to the manager (Pending_Withdrawal) unless the
// requester is the top executive; a still-pending booking is withdrawn
// immediately. A WithdrawalRecord is written in every accepted case.
func (s *Service) RequestWithdrawal(ctx context.Context, req WithdrawalRequest) (Result, error) {
	if req.StaffID == 0 {
		return Result{}, &ValidationError{Field: "staff_id", Message: "staff_id is required"}
	}
	if !req.Slot.Valid() {
		return Result{}, &ValidationError{Field: "time_slot", Message: fmt.Sprintf("unknown slot %q", req.Slot)}
	}
	if req.Date.IsZero() {
		return Result{}, &ValidationError{Field: "date", Message: "date is required"}
	}
	if req.ExpectedStatus == "" {
		req.ExpectedStatus = StatusApproved
	}
	if !req.ExpectedStatus.Valid() {
		return Result{}, &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", req.ExpectedStatus)}
	}
	if req.ExpectedStatus != StatusApproved && req.ExpectedStatus != StatusPendingApproval {
		return result(OutcomeNotFound), nil
	}
	now := s.Clock()

	var res Result
	err := s.Store.WithTx(ctx, func(tx Store) error {
		bookings, err := tx.FindBookings(ctx, BookingFilter{
			StaffID:  &req.StaffID,
			Dates:    []Date{req.Date},
			Slots:    []Slot{req.Slot},
			Statuses: []Status{req.ExpectedStatus},
		})
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			res = result(OutcomeNotFound)
			return nil
		}
		b := bookings[0]

		if !s.Policy.CanWithdraw(b.Date, now) {
			res = result(OutcomeOutOfWindow)
			return nil
		}

		action, outcome := ActionRequestWithdrawal, OutcomeEscalated
		if req.StaffID == s.Policy.TopExecID || b.Status == StatusPendingApproval {
			action, outcome = ActionWithdrawDirect, OutcomeWithdrawn
		}
		if err := b.apply(action); err != nil {
			return err
		}

		if err := tx.AppendWithdrawal(ctx, WithdrawalRecord{
			ID:          WithdrawalID(s.newID()),
			BookingID:   b.ID,
			StaffReason: req.Reason,
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		res = result(outcome)
		res.Bookings = []Booking{b}
		return nil
	})
	if err != nil {
		return Result{}, storeErr("withdraw", err)
	}
	if res.OK() {
		s.logf("[Withdraw] staff %d: booking on %s %s -> %s", req.StaffID, req.Date, req.Slot, res.Bookings[0].Status)
	}
	return res, nil
}

// =============================================================================
// FORCE WITHDRAWAL
// =============================================================================

type ForceWithdrawRequest struct {
	StaffID StaffID
	Slot    Slot
	Date    Date
	Reason  string
}

// ForceWithdraw lets a manager pull an Approved arrangement without a staff
// request. A FULL-day booking matches an AM or PM request for the same date.
func (s *Service) ForceWithdraw(ctx context.Context, req ForceWithdrawRequest) (Result, error) {
	if req.StaffID == 0 {
		return Result{}, &ValidationError{Field: "staff_id", Message: "staff_id is required"}
	}
	if !req.Slot.Valid() {
		return Result{}, &ValidationError{Field: "time_slot", Message: fmt.Sprintf("unknown slot %q", req.Slot)}
	}
	if req.Date.IsZero() {
		return Result{}, &ValidationError{Field: "date", Message: "date is required"}
	}
	if strings.TrimSpace(req.Reason) == "" {
		return Result{}, &ValidationError{Field: "manager_withdraw_reason", Message: "a reason is required"}
	}
	slots := []Slot{req.Slot}
	if req.Slot != SlotFull {
		slots = append(slots, SlotFull)
	}
	now := s.Clock()

	var res Result
	err := s.Store.WithTx(ctx, func(tx Store) error {
		bookings, err := tx.FindBookings(ctx, BookingFilter{
			StaffID:  &req.StaffID,
			Dates:    []Date{req.Date},
			Slots:    slots,
			Statuses: []Status{StatusApproved},
		})
		if err != nil {
			return err
		}
		if len(bookings) == 0 {
			res = result(OutcomeNotFound)
			return nil
		}
		b := bookings[0]

		if !s.Policy.CanForceWithdraw(b.Date, now) {
			res = result(OutcomeOutOfWindow)
			res.Message = "Approved arrangement is more than 3 months forward or 1 month backward!"
			return nil
		}
		if err := b.apply(ActionForceWithdraw); err != nil {
			return err
		}
		b.ForceWithdrawReason = strPtr(req.Reason)
		if err := tx.UpdateBooking(ctx, b); err != nil {
			return err
		}

		res = result(OutcomeWithdrawn)
		res.Bookings = []Booking{b}
		return nil
	})
	if err != nil {
		return Result{}, storeErr("force withdraw", err)
	}
	if res.OK() {
		s.logf("[ForceWithdraw] staff %d: booking on %s %s withdrawn", req.StaffID, req.Date, req.Slot)
	}
	return res, nil
}

// =============================================================================
// READ SIDE
// =============================================================================

// Schedule lists a staff member's live bookings, ordered by date. Days a
// manager rejected or force-withdrew have left the live set and are not
// listed; their siblings in the same application still are.
func (s *Service) Schedule(ctx context.Context, staffID StaffID) ([]Booking, error) {
	bookings, err := s.Store.FindBookings(ctx, BookingFilter{StaffID: &staffID, Statuses: LiveStatuses})
	if err != nil {
		return nil, storeErr("schedule", err)
	}
	if bookings == nil {
		bookings = []Booking{}
	}
	return bookings, nil
}
