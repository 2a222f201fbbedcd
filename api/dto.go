/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model in package wfh from the external API contract. Field
  names follow the directory and schedule columns clients already know
  (staff_fname, wfh_id, time_slot, ...).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO

  Requests:
    SubmitApplicationRequest, WithdrawRequest, ForceWithdrawRequest,
    DecisionRequest

  Results:
    ResultDTO, ApplicationDTO, BookingDTO

  Manager inbox:
    InboxGroupDTO, InboxEntryDTO

  Admin:
    SweepRunDTO, ScenarioDTO, LoadScenarioRequest

DATES:
  Request dates accept YYYY-MM-DD or an RFC3339 timestamp (wfh.Date
  implements encoding.TextUnmarshaler). Responses always use YYYY-MM-DD.

VALIDATION:
  Validation is done by wfh.Service, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// EMPLOYEE DTOs
// =============================================================================

// EmployeeDTO is both the directory response and the create/update body.
type EmployeeDTO struct {
	StaffID          int64  `json:"staff_id"`
	FirstName        string `json:"staff_fname"`
	LastName         string `json:"staff_lname"`
	Department       string `json:"dept"`
	Position         string `json:"position"`
	Country          string `json:"country"`
	Email            string `json:"email"`
	ReportingManager *int64 `json:"reporting_manager,omitempty"`
	Role             int    `json:"role"`
}

func toEmployeeDTO(e wfh.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		StaffID:    int64(e.ID),
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Department: e.Department,
		Position:   e.Position,
		Country:    e.Country,
		Email:      e.Email,
		Role:       int(e.Role),
	}
	if e.ManagerID != nil {
		mgr := int64(*e.ManagerID)
		dto.ReportingManager = &mgr
	}
	return dto
}

func (dto EmployeeDTO) toEmployee() wfh.Employee {
	e := wfh.Employee{
		ID:         wfh.StaffID(dto.StaffID),
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Department: dto.Department,
		Position:   dto.Position,
		Country:    dto.Country,
		Email:      dto.Email,
		Role:       wfh.RoleTier(dto.Role),
	}
	if dto.ReportingManager != nil {
		mgr := wfh.StaffID(*dto.ReportingManager)
		e.ManagerID = &mgr
	}
	return e
}

func toEmployeeDTOs(es []wfh.Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, len(es))
	for i, e := range es {
		out[i] = toEmployeeDTO(e)
	}
	return out
}

// =============================================================================
// REQUEST DTOs
// =============================================================================

// SubmitApplicationRequest is the body of POST /api/staff/{id}/applications.
type SubmitApplicationRequest struct {
	TimeSlot    string   `json:"time_slot"`
	ApplyReason string   `json:"apply_reason"`
	StartDate   wfh.Date `json:"start_date"`
	EndDate     wfh.Date `json:"end_date"`
}

// WithdrawRequest is the body of POST /api/staff/{id}/withdrawals.
type WithdrawRequest struct {
	TimeSlot string   `json:"time_slot"`
	Reason   string   `json:"staff_withdraw_reason"`
	Date     wfh.Date `json:"date"`
	Status   string   `json:"status,omitempty"` // Approved (default) or Pending_Approval
}

// ForceWithdrawRequest is the body of POST /api/staff/{id}/force-withdrawals.
type ForceWithdrawRequest struct {
	TimeSlot string   `json:"time_slot"`
	Reason   string   `json:"manager_withdraw_reason"`
	Date     wfh.Date `json:"date"`
}

// DecisionRequest is the body of both manager decision endpoints.
// Omitting wfh_id on /decisions decides the whole application.
type DecisionRequest struct {
	ApplicationID string `json:"application_id"`
	WFHID         string `json:"wfh_id,omitempty"`
	Status        string `json:"status"` // Approve or Reject
	RejectReason  string `json:"manager_reject_reason,omitempty"`
}

func (dto DecisionRequest) toDomain(managerID wfh.StaffID) wfh.DecisionRequest {
	return wfh.DecisionRequest{
		ManagerID:     managerID,
		ApplicationID: wfh.ApplicationID(dto.ApplicationID),
		BookingID:     wfh.BookingID(dto.WFHID),
		Decision:      wfh.Decision(dto.Status),
		RejectReason:  dto.RejectReason,
	}
}

// =============================================================================
// RESULT DTOs
// =============================================================================

type ApplicationDTO struct {
	ApplicationID string  `json:"application_id"`
	StaffID       int64   `json:"staff_id"`
	TimeSlot      string  `json:"time_slot"`
	ApplyReason   string  `json:"apply_reason"`
	RejectReason  *string `json:"manager_reject_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

type BookingDTO struct {
	WFHID               string  `json:"wfh_id"`
	ApplicationID       string  `json:"application_id"`
	StaffID             int64   `json:"staff_id"`
	TimeSlot            string  `json:"time_slot"`
	Date                string  `json:"wfh_date"`
	Status              string  `json:"status"`
	ForceWithdrawReason *string `json:"manager_withdraw_reason,omitempty"`
}

// ResultDTO is the response of every state-changing endpoint. Success puts
// the outcome text in message; a refusal puts it in failed.
type ResultDTO struct {
	Outcome     string          `json:"outcome"`
	Message     string          `json:"message,omitempty"`
	Failed      string          `json:"failed,omitempty"`
	Application *ApplicationDTO `json:"application,omitempty"`
	Bookings    []BookingDTO    `json:"bookings,omitempty"`
}

func toApplicationDTO(a wfh.Application) ApplicationDTO {
	return ApplicationDTO{
		ApplicationID: string(a.ID),
		StaffID:       int64(a.StaffID),
		TimeSlot:      string(a.Slot),
		ApplyReason:   a.Reason,
		RejectReason:  a.RejectReason,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

func toBookingDTO(b wfh.Booking) BookingDTO {
	return BookingDTO{
		WFHID:               string(b.ID),
		ApplicationID:       string(b.ApplicationID),
		StaffID:             int64(b.StaffID),
		TimeSlot:            string(b.Slot),
		Date:                b.Date.String(),
		Status:              string(b.Status),
		ForceWithdrawReason: b.ForceWithdrawReason,
	}
}

func toBookingDTOs(bs []wfh.Booking) []BookingDTO {
	out := make([]BookingDTO, len(bs))
	for i, b := range bs {
		out[i] = toBookingDTO(b)
	}
	return out
}

func toResultDTO(res wfh.Result) ResultDTO {
	dto := ResultDTO{Outcome: string(res.Outcome)}
	if res.OK() {
		dto.Message = res.Message
	} else {
		dto.Failed = res.Message
	}
	if res.Application != nil {
		app := toApplicationDTO(*res.Application)
		dto.Application = &app
	}
	if len(res.Bookings) > 0 {
		dto.Bookings = toBookingDTOs(res.Bookings)
	}
	return dto
}

// =============================================================================
// MANAGER INBOX DTOs
// =============================================================================

// InboxEntryDTO is one booking awaiting a decision. Percentages are the
// share of the manager's direct team already working from home.
type InboxEntryDTO struct {
	WFHID      string          `json:"wfh_id"`
	StaffID    int64           `json:"staff_id"`
	StaffName  string          `json:"staff_name"`
	Department string          `json:"dept"`
	Position   string          `json:"position"`
	TimeSlot   string          `json:"time_slot"`
	Date       string          `json:"wfh_date"`
	Status     string          `json:"status"`
	Reason     string          `json:"reason"`
	Start      string          `json:"start"`
	End        string          `json:"end"`
	Share      decimal.Decimal `json:"wfh_percentage"`
	AMShare    decimal.Decimal `json:"am_percentage"`
	PMShare    decimal.Decimal `json:"pm_percentage"`
}

// InboxGroupDTO is one unit of decision: a whole application, or one
// booking with a pending withdrawal.
type InboxGroupDTO struct {
	Key           string          `json:"key"`
	Status        string          `json:"status"`
	ApplicationID string          `json:"application_id"`
	ApplyReason   string          `json:"apply_reason"`
	Entries       []InboxEntryDTO `json:"entries"`
}

func toInboxGroupDTOs(groups []wfh.InboxGroup) []InboxGroupDTO {
	out := make([]InboxGroupDTO, len(groups))
	for i, g := range groups {
		entries := make([]InboxEntryDTO, len(g.Entries))
		for j, e := range g.Entries {
			entries[j] = InboxEntryDTO{
				WFHID:      string(e.Booking.ID),
				StaffID:    int64(e.Staff.ID),
				StaffName:  e.Staff.FullName(),
				Department: e.Staff.Department,
				Position:   e.Staff.Position,
				TimeSlot:   string(e.Booking.Slot),
				Date:       e.Booking.Date.String(),
				Status:     string(e.Booking.Status),
				Reason:     e.Reason,
				Start:      e.Start.Format(time.RFC3339),
				End:        e.End.Format(time.RFC3339),
				Share:      e.Share,
				AMShare:    e.AMShare,
				PMShare:    e.PMShare,
			}
		}
		out[i] = InboxGroupDTO{
			Key:           g.Key,
			Status:        string(g.Status),
			ApplicationID: string(g.Application.ID),
			ApplyReason:   g.Application.Reason,
			Entries:       entries,
		}
	}
	return out
}

// =============================================================================
// ADMIN DTOs
// =============================================================================

// SweepRunDTO is one recorded sweep run.
type SweepRunDTO struct {
	ID          string           `json:"id"`
	Trigger     string           `json:"trigger"`
	StartedAt   string           `json:"started_at"`
	CompletedAt string           `json:"completed_at,omitempty"`
	Summary     wfh.SweepSummary `json:"summary"`
	Error       string           `json:"error,omitempty"`
}

func toSweepRunDTOs(runs []SweepRun) []SweepRunDTO {
	out := make([]SweepRunDTO, len(runs))
	for i, r := range runs {
		dto := SweepRunDTO{
			ID:        r.ID,
			Trigger:   r.Trigger,
			StartedAt: r.StartedAt.Format(time.RFC3339),
			Summary:   r.Summary,
			Error:     r.Error,
		}
		if !r.CompletedAt.IsZero() {
			dto.CompletedAt = r.CompletedAt.Format(time.RFC3339)
		}
		out[i] = dto
	}
	return out
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
