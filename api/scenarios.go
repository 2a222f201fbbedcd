/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario seeds a small sales
	organisation and drives requests through wfh.Service, so every record
	is one the engine itself could have produced.

AVAILABLE SCENARIOS:

	sales-team:     A week of mixed requests awaiting the sales director
	stale-requests: Requests left pending for months; run the sweep next
	top-exec:       The top executive's requests skip approval

HOW SCENARIOS WORK:
 1. Reset WFH records (employees are upserted, not deleted)
 2. Save the demo organisation
 3. Submit, decide and withdraw through the service, with the clock
    moved back where a scenario needs history

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "stale-requests"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create loader function: loadXxxScenario(ctx)
 3. Add case to scenarioLoader

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - wfh/service.go: Operations the loaders call
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "sales-team",
		Name:        "Sales Team",
		Description: "Approved, pending, recurring and withdrawal requests for one director",
	},
	{
		ID:          "stale-requests",
		Name:        "Stale Requests",
		Description: "Requests nobody decided for over eight weeks, ready for the sweep",
	},
	{
		ID:          "top-exec",
		Name:        "Top Executive",
		Description: "The CEO's requests and withdrawals apply without review",
	},
}

// Demo organisation staff ids.
const (
	demoCEO      wfh.StaffID = 130002
	demoDirector wfh.StaffID = 140001
	demoSusan    wfh.StaffID = 140002
	demoEmma     wfh.StaffID = 140025
	demoOliver   wfh.StaffID = 140036
	demoHR       wfh.StaffID = 160008
)

func demoManager(id wfh.StaffID) *wfh.StaffID { return &id }

func demoOrganisation() []wfh.Employee {
	return []wfh.Employee{
		{ID: demoCEO, FirstName: "Jack", LastName: "Sim", Department: "CEO", Position: "MD", Country: "Singapore", Email: "jack.sim@allinone.com.sg", ManagerID: demoManager(demoCEO), Role: wfh.RoleSenior},
		{ID: demoDirector, FirstName: "Derek", LastName: "Tan", Department: "Sales", Position: "Director", Country: "Singapore", Email: "derek.tan@allinone.com.sg", ManagerID: demoManager(demoCEO), Role: wfh.RoleSenior},
		{ID: demoSusan, FirstName: "Susan", LastName: "Goh", Department: "Sales", Position: "Account Manager", Country: "Singapore", Email: "susan.goh@allinone.com.sg", ManagerID: demoManager(demoDirector), Role: wfh.RoleStaff},
		{ID: demoEmma, FirstName: "Emma", LastName: "Heng", Department: "Sales", Position: "Account Manager", Country: "Singapore", Email: "emma.heng@allinone.com.sg", ManagerID: demoManager(demoDirector), Role: wfh.RoleStaff},
		{ID: demoOliver, FirstName: "Oliver", LastName: "Tan", Department: "Sales", Position: "Account Manager", Country: "Singapore", Email: "oliver.tan@allinone.com.sg", ManagerID: demoManager(demoDirector), Role: wfh.RoleStaff},
		{ID: demoHR, FirstName: "Sally", LastName: "Loh", Department: "HR", Position: "HR Team", Country: "Singapore", Email: "sally.loh@allinone.com.sg", ManagerID: demoManager(demoCEO), Role: wfh.RoleSenior},
	}
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the last loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.RLock()
	current := h.currentScenario
	h.scenarioMu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]string{"scenario_id": current})
}

// LoadScenario resets WFH records and loads the named scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if h.Records == nil {
		writeError(w, http.StatusNotImplemented, "Scenarios need a resettable store", nil)
		return
	}

	load := h.scenarioLoader(req.ScenarioID)
	if load == nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	ctx := r.Context()
	if err := h.Records.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	for _, e := range demoOrganisation() {
		if err := h.Employees.SaveEmployee(ctx, e); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
			return
		}
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.scenarioMu.Lock()
	h.currentScenario = req.ScenarioID
	h.scenarioMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "loaded",
		"scenario_id": req.ScenarioID,
	})
}

func (h *Handler) scenarioLoader(id string) func(context.Context) error {
	switch id {
	case "sales-team":
		return h.loadSalesTeamScenario
	case "stale-requests":
		return h.loadStaleRequestsScenario
	case "top-exec":
		return h.loadTopExecScenario
	}
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// loadSalesTeamScenario: next week Susan is approved Monday AM, Emma asks
// for every Wednesday for a month, Oliver is withdrawing an approved Friday.
func (h *Handler) loadSalesTeamScenario(ctx context.Context) error {
	svc := h.Service
	monday := nextWeekday(svc.Policy.Today(svc.Clock()), time.Monday)

	if err := submitApproved(ctx, svc, demoSusan, wfh.SlotAM, monday, "client call"); err != nil {
		return err
	}

	wednesday := monday.AddDays(2)
	if _, err := expectOutcome(wfh.OutcomeCreated)(svc.Submit(ctx, wfh.SubmitRequest{
		StaffID: demoEmma, Slot: wfh.SlotFull, Reason: "proposal writing",
		StartDate: wednesday, EndDate: wednesday.AddDays(21),
	})); err != nil {
		return err
	}

	friday := monday.AddDays(4)
	if err := submitApproved(ctx, svc, demoOliver, wfh.SlotPM, friday, "site survey"); err != nil {
		return err
	}
	_, err := expectOutcome(wfh.OutcomeEscalated)(svc.RequestWithdrawal(ctx, wfh.WithdrawalRequest{
		StaffID: demoOliver, Slot: wfh.SlotPM, Date: friday, Reason: "survey moved",
	}))
	return err
}

// loadStaleRequestsScenario writes history ten weeks back: a recurring
// request nobody decided, and a withdrawal nobody answered.
func (h *Handler) loadStaleRequestsScenario(ctx context.Context) error {
	then := h.Service.Clock().AddDate(0, 0, -70)
	past := h.serviceAt(then)
	day := nextWeekday(past.Policy.Today(then), time.Tuesday)

	if _, err := expectOutcome(wfh.OutcomeCreated)(past.Submit(ctx, wfh.SubmitRequest{
		StaffID: demoSusan, Slot: wfh.SlotAM, Reason: "renovation at home",
		StartDate: day, EndDate: day.AddDays(7),
	})); err != nil {
		return err
	}

	thursday := day.AddDays(2)
	if err := submitApproved(ctx, past, demoEmma, wfh.SlotFull, thursday, "offsite prep"); err != nil {
		return err
	}
	_, err := expectOutcome(wfh.OutcomeEscalated)(past.RequestWithdrawal(ctx, wfh.WithdrawalRequest{
		StaffID: demoEmma, Slot: wfh.SlotFull, Date: thursday, Reason: "offsite cancelled",
	}))
	return err
}

// loadTopExecScenario: the CEO books two half-days and withdraws one.
func (h *Handler) loadTopExecScenario(ctx context.Context) error {
	svc := h.Service
	monday := nextWeekday(svc.Policy.Today(svc.Clock()), time.Monday)

	for _, slot := range []wfh.Slot{wfh.SlotAM, wfh.SlotPM} {
		if _, err := expectOutcome(wfh.OutcomeCreated)(svc.Submit(ctx, wfh.SubmitRequest{
			StaffID: demoCEO, Slot: slot, Reason: "board papers",
			StartDate: monday, EndDate: monday,
		})); err != nil {
			return err
		}
	}
	_, err := expectOutcome(wfh.OutcomeWithdrawn)(svc.RequestWithdrawal(ctx, wfh.WithdrawalRequest{
		StaffID: demoCEO, Slot: wfh.SlotPM, Date: monday, Reason: "investor meeting",
	}))
	return err
}

// =============================================================================
// LOADER HELPERS
// =============================================================================

// serviceAt returns a copy of the service whose clock is fixed at t.
func (h *Handler) serviceAt(t time.Time) *wfh.Service {
	svc := *h.Service
	svc.Now = func() time.Time { return t }
	return &svc
}

func submitApproved(ctx context.Context, svc *wfh.Service, staff wfh.StaffID, slot wfh.Slot, date wfh.Date, reason string) error {
	res, err := expectOutcome(wfh.OutcomeCreated)(svc.Submit(ctx, wfh.SubmitRequest{
		StaffID: staff, Slot: slot, Reason: reason, StartDate: date, EndDate: date,
	}))
	if err != nil {
		return err
	}
	_, err = expectOutcome(wfh.OutcomeDecided)(svc.DecideApplication(ctx, wfh.DecisionRequest{
		ManagerID:     demoDirector,
		ApplicationID: res.Application.ID,
		Decision:      wfh.DecisionApprove,
	}))
	return err
}

// expectOutcome turns any other outcome into an error.
func expectOutcome(want wfh.Outcome) func(wfh.Result, error) (wfh.Result, error) {
	return func(res wfh.Result, err error) (wfh.Result, error) {
		if err != nil {
			return res, err
		}
		if res.Outcome != want {
			return res, fmt.Errorf("expected %s, got %s: %s", want, res.Outcome, res.Message)
		}
		return res, nil
	}
}

// nextWeekday returns the first day strictly after from that falls on wd.
func nextWeekday(from wfh.Date, wd time.Weekday) wfh.Date {
	d := from.AddDays(1)
	for d.Weekday() != wd {
		d = d.AddDays(1)
	}
	return d
}
