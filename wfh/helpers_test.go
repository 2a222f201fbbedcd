package wfh_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/allinone/wfh-engine/wfh"
	"github.com/allinone/wfh-engine/wfh/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var sgt = time.FixedZone("SGT", 8*60*60)

const (
	ceo      wfh.StaffID = 130002
	director wfh.StaffID = 140001
	susan    wfh.StaffID = 140002
	emma     wfh.StaffID = 140025
	outsider wfh.StaffID = 150008 // manages nobody in the sales team
)

func idPtr(id wfh.StaffID) *wfh.StaffID { return &id }

// testOrg is a small sales org: CEO -> Director -> two account managers,
// plus an unrelated manager reporting to the CEO.
func testOrg() []wfh.Employee {
	return []wfh.Employee{
		{ID: ceo, FirstName: "Jack", LastName: "Sim", Department: "CEO", Position: "MD", ManagerID: idPtr(ceo), Role: wfh.RoleSenior},
		{ID: director, FirstName: "Derek", LastName: "Tan", Department: "Sales", Position: "Director", ManagerID: idPtr(ceo), Role: wfh.RoleSenior},
		{ID: susan, FirstName: "Susan", LastName: "Goh", Department: "Sales", Position: "Account Manager", ManagerID: idPtr(director), Role: wfh.RoleStaff},
		{ID: emma, FirstName: "Emma", LastName: "Heng", Department: "Sales", Position: "Account Manager", ManagerID: idPtr(director), Role: wfh.RoleStaff},
		{ID: outsider, FirstName: "Eric", LastName: "Loh", Department: "Solutioning", Position: "Director", ManagerID: idPtr(ceo), Role: wfh.RoleManager},
	}
}

type fixture struct {
	svc   *wfh.Service
	store *store.TxMemory
	dir   *store.Directory
	now   time.Time
}

// newFixture returns a service over an empty memory store whose clock reads
// 2024-10-01 10:00 SGT until the test moves it.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store: store.NewTxMemory(),
		dir:   store.NewDirectory(testOrg()...),
		now:   time.Date(2024, time.October, 1, 10, 0, 0, 0, sgt),
	}

	policy := wfh.DefaultPolicy()
	policy.Location = sgt
	f.svc = wfh.NewService(f.store, f.dir, policy)
	f.svc.Now = func() time.Time { return f.now }
	f.svc.Logger = log.New(io.Discard, "", 0)

	n := 0
	f.svc.NewID = func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
	return f
}

func d(s string) wfh.Date { return wfh.MustParseDate(s) }

func (f *fixture) submit(t *testing.T, staff wfh.StaffID, slot wfh.Slot, start, end string) wfh.Result {
	t.Helper()
	res, err := f.svc.Submit(context.Background(), wfh.SubmitRequest{
		StaffID:   staff,
		Slot:      slot,
		Reason:    "client visit",
		StartDate: d(start),
		EndDate:   d(end),
	})
	require.NoError(t, err)
	return res
}

// approved submits and approves a single day.
func (f *fixture) approved(t *testing.T, staff wfh.StaffID, slot wfh.Slot, date string) wfh.Booking {
	t.Helper()
	res := f.submit(t, staff, slot, date, date)
	require.Equal(t, wfh.OutcomeCreated, res.Outcome)

	dec, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID:     director,
		ApplicationID: res.Application.ID,
		Decision:      wfh.DecisionApprove,
	})
	require.NoError(t, err)
	require.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	return dec.Bookings[0]
}

func (f *fixture) booking(t *testing.T, id wfh.BookingID) wfh.Booking {
	t.Helper()
	b, err := f.store.GetBooking(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return *b
}

func (f *fixture) application(t *testing.T, id wfh.ApplicationID) wfh.Application {
	t.Helper()
	app, err := f.store.GetApplication(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, app)
	return *app
}
