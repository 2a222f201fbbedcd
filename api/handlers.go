/*
handlers.go - HTTP API handlers for the WFH request engine

PURPOSE:
  Exposes wfh.Service via REST API. Handles HTTP request/response, JSON
  serialization, and delegates every decision to the domain layer.

ENDPOINTS:
  Staff:
    POST   /api/staff/{id}/applications       Submit a WFH request
    GET    /api/staff/{id}/schedule           Own live bookings
    GET    /api/staff/{id}/subordinates       Everyone under this staff member
    POST   /api/staff/{id}/withdrawals        Withdraw an arrangement
    POST   /api/staff/{id}/force-withdrawals  Manager pulls an Approved day

  Managers:
    GET    /api/managers/{id}/pending               Inbox
    POST   /api/managers/{id}/decisions             Approve/reject application or day
    POST   /api/managers/{id}/withdrawal-decisions  Approve/reject withdrawal

  Employees:
    GET    /api/employees          List directory
    POST   /api/employees          Create or update employee
    GET    /api/employees/{id}     Get employee

  Admin:
    POST   /api/admin/sweep        Run the auto-resolution sweep now
    GET    /api/admin/sweep/runs   Recent sweep runs

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service:   wfh.Service (store, directory, policy, clock)
  - Employees: directory with write access for the admin endpoints
  - Scheduler: sweep scheduler, shared so manual and timed runs never overlap

OUTCOME MAPPING:
  Business refusals are answers, not faults:
  - 201: created
  - 200: decided, escalated, withdrawn
  - 200: out_of_window, wrong_manager, nothing_pending ({"failed": ...})
  - 404: not_found
  - 409: duplicate_conflict, partial_conflict

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown employee
  - 500: Store failures (retryable: true) and internal errors

SECURITY NOTE:
  No authentication. The acting staff or manager id comes from the URL.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// EmployeeStore is the directory plus the writes the admin endpoints need.
type EmployeeStore interface {
	wfh.Directory
	SaveEmployee(ctx context.Context, e wfh.Employee) error
	ListEmployees(ctx context.Context) ([]wfh.Employee, error)
}

// Resetter clears every WFH record. Scenarios need it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	Service   *wfh.Service
	Employees EmployeeStore
	Scheduler *SweepScheduler

	// Records is optional; without it scenarios cannot be loaded.
	Records Resetter

	scenarioMu      sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler whose manual sweeps go through the scheduler.
func NewHandler(svc *wfh.Service, employees EmployeeStore, scheduler *SweepScheduler) *Handler {
	return &Handler{
		Service:   svc,
		Employees: employees,
		Scheduler: scheduler,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the whole directory.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Employees.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// GetEmployee returns one directory record.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := staffIDParam(w, r)
	if !ok {
		return
	}

	emp, err := h.Employees.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or updates a directory record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StaffID <= 0 {
		writeError(w, http.StatusBadRequest, "staff_id is required", nil)
		return
	}
	if req.FirstName == "" {
		writeError(w, http.StatusBadRequest, "staff_fname is required", nil)
		return
	}

	emp := req.toEmployee()
	if err := h.Employees.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// =============================================================================
// STAFF HANDLERS
// =============================================================================

// SubmitApplication creates a single-day or weekly recurring request.
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	staffID, ok := staffIDParam(w, r)
	if !ok {
		return
	}
	var req SubmitApplicationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.Submit(r.Context(), wfh.SubmitRequest{
		StaffID:   staffID,
		Slot:      wfh.Slot(req.TimeSlot),
		Reason:    req.ApplyReason,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeDomainError(w, "Failed to submit application", err)
		return
	}
	writeResult(w, res)
}

// GetSchedule lists the staff member's live arrangements.
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	staffID, ok := staffIDParam(w, r)
	if !ok {
		return
	}

	bookings, err := h.Service.Schedule(r.Context(), staffID)
	if err != nil {
		writeDomainError(w, "Failed to load schedule", err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

// GetSubordinates lists everyone under the staff member, nearest first.
func (h *Handler) GetSubordinates(w http.ResponseWriter, r *http.Request) {
	staffID, ok := staffIDParam(w, r)
	if !ok {
		return
	}

	employees, err := wfh.Subordinates(r.Context(), h.Service.Directory, staffID)
	if err != nil {
		writeDomainError(w, "Failed to list subordinates", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTOs(employees))
}

// RequestWithdrawal withdraws one of the staff member's arrangements.
func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	staffID, ok := staffIDParam(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.RequestWithdrawal(r.Context(), wfh.WithdrawalRequest{
		StaffID:        staffID,
		Slot:           wfh.Slot(req.TimeSlot),
		Date:           req.Date,
		Reason:         req.Reason,
		ExpectedStatus: wfh.Status(req.Status),
	})
	if err != nil {
		writeDomainError(w, "Failed to withdraw", err)
		return
	}
	writeResult(w, res)
}

// ForceWithdraw lets a manager pull an Approved arrangement of staff {id}.
func (h *Handler) ForceWithdraw(w http.ResponseWriter, r *http.Request) {
	staffID, ok := staffIDParam(w, r)
	if !ok {
		return
	}
	var req ForceWithdrawRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.ForceWithdraw(r.Context(), wfh.ForceWithdrawRequest{
		StaffID: staffID,
		Slot:    wfh.Slot(req.TimeSlot),
		Date:    req.Date,
		Reason:  req.Reason,
	})
	if err != nil {
		writeDomainError(w, "Failed to force-withdraw", err)
		return
	}
	writeResult(w, res)
}

// =============================================================================
// MANAGER HANDLERS
// =============================================================================

// ListPending returns the manager's inbox.
func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	managerID, ok := staffIDParam(w, r)
	if !ok {
		return
	}

	groups, err := h.Service.PendingForManager(r.Context(), managerID)
	if err != nil {
		writeDomainError(w, "Failed to load pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toInboxGroupDTOs(groups))
}

// Decide approves or rejects a whole application, or the single day named
// by wfh_id.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	managerID, ok := staffIDParam(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	decide := h.Service.DecideApplication
	if req.WFHID != "" {
		decide = h.Service.DecideBooking
	}
	res, err := decide(r.Context(), req.toDomain(managerID))
	if err != nil {
		writeDomainError(w, "Failed to record decision", err)
		return
	}
	writeResult(w, res)
}

// DecideWithdrawal approves or rejects a pending withdrawal.
func (h *Handler) DecideWithdrawal(w http.ResponseWriter, r *http.Request) {
	managerID, ok := staffIDParam(w, r)
	if !ok {
		return
	}
	var req DecisionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Service.DecideWithdrawal(r.Context(), req.toDomain(managerID))
	if err != nil {
		writeDomainError(w, "Failed to record decision", err)
		return
	}
	writeResult(w, res)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerSweep runs the auto-resolution sweep immediately.
func (h *Handler) TriggerSweep(w http.ResponseWriter, r *http.Request) {
	var (
		summary wfh.SweepSummary
		err     error
	)
	if h.Scheduler != nil {
		summary, err = h.Scheduler.RunNow("manual")
	} else {
		summary, err = h.Service.Sweep(r.Context(), h.Service.Clock())
	}
	if err != nil {
		writeDomainError(w, "Sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListSweepRuns returns the most recent sweep runs, newest first.
func (h *Handler) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeJSON(w, http.StatusOK, []SweepRunDTO{})
		return
	}
	writeJSON(w, http.StatusOK, toSweepRunDTOs(h.Scheduler.Runs()))
}

// =============================================================================
// HELPERS
// =============================================================================

func staffIDParam(w http.ResponseWriter, r *http.Request) (wfh.StaffID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid staff id %q", raw), nil)
		return 0, false
	}
	return wfh.StaffID(id), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// outcomeStatus maps a business outcome onto an HTTP status.
func outcomeStatus(o wfh.Outcome) int {
	switch o {
	case wfh.OutcomeCreated:
		return http.StatusCreated
	case wfh.OutcomeDuplicateConflict, wfh.OutcomePartialConflict:
		return http.StatusConflict
	case wfh.OutcomeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusOK
	}
}

func writeResult(w http.ResponseWriter, res wfh.Result) {
	writeJSON(w, outcomeStatus(res.Outcome), toResultDTO(res))
}

// writeDomainError maps the wfh error taxonomy onto an HTTP status.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	var ve *wfh.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   ve.Message,
			Code:    "validation",
			Details: map[string]string{"field": ve.Field},
		})
	case wfh.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case errors.Is(err, wfh.ErrStore):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     message,
			Code:      "store",
			Details:   err.Error(),
			Retryable: wfh.IsRetryable(err),
		})
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
