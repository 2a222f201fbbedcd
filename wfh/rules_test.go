package wfh_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// RECURRENCE
// =============================================================================

func TestExpand_SingleDay(t *testing.T) {
	dates, err := wfh.Expand(d("2024-10-07"), d("2024-10-07"), 0)
	require.NoError(t, err)
	assert.Equal(t, []wfh.Date{d("2024-10-07")}, dates)
}

func TestExpand_WeeklyInclusive(t *testing.T) {
	// GIVEN: Monday 7 Oct to Monday 4 Nov
	// WHEN: Expanded
	// THEN: Five Mondays, end date included
	dates, err := wfh.Expand(d("2024-10-07"), d("2024-11-04"), 0)
	require.NoError(t, err)

	require.Len(t, dates, 5)
	for i, want := range []string{"2024-10-07", "2024-10-14", "2024-10-21", "2024-10-28", "2024-11-04"} {
		assert.Equal(t, want, dates[i].String())
		assert.Equal(t, time.Monday, dates[i].Weekday())
	}
}

func TestExpand_EndNotOnStep(t *testing.T) {
	dates, err := wfh.Expand(d("2024-10-07"), d("2024-10-20"), 0)
	require.NoError(t, err)
	assert.Len(t, dates, 2)
}

func TestExpand_EndBeforeStart(t *testing.T) {
	_, err := wfh.Expand(d("2024-10-08"), d("2024-10-07"), 0)
	assert.ErrorIs(t, err, wfh.ErrValidation)
}

func TestExpand_ZeroDate(t *testing.T) {
	_, err := wfh.Expand(wfh.Date{}, d("2024-10-07"), 0)
	assert.ErrorIs(t, err, wfh.ErrValidation)
}

func TestExpand_Limit(t *testing.T) {
	_, err := wfh.Expand(d("2024-01-01"), d("2024-12-31"), 12)
	var ve *wfh.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "end_date", ve.Field)
}

// =============================================================================
// TRANSITIONS
// =============================================================================

func TestTransition_Table(t *testing.T) {
	cases := []struct {
		from   wfh.Status
		action wfh.Action
		to     wfh.Status
	}{
		{wfh.StatusPendingApproval, wfh.ActionApprove, wfh.StatusApproved},
		{wfh.StatusPendingApproval, wfh.ActionReject, wfh.StatusRejected},
		{wfh.StatusPendingApproval, wfh.ActionSystemReject, wfh.StatusRejected},
		{wfh.StatusPendingApproval, wfh.ActionWithdrawDirect, wfh.StatusWithdrawn},
		{wfh.StatusApproved, wfh.ActionRequestWithdrawal, wfh.StatusPendingWithdrawal},
		{wfh.StatusApproved, wfh.ActionWithdrawDirect, wfh.StatusWithdrawn},
		{wfh.StatusApproved, wfh.ActionForceWithdraw, wfh.StatusWithdrawn},
		{wfh.StatusPendingWithdrawal, wfh.ActionApproveWithdrawal, wfh.StatusWithdrawn},
		{wfh.StatusPendingWithdrawal, wfh.ActionRejectWithdrawal, wfh.StatusApproved},
		{wfh.StatusPendingWithdrawal, wfh.ActionSystemRevertWithdrawal, wfh.StatusApproved},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"/"+string(tc.action), func(t *testing.T) {
			to, err := wfh.Transition(tc.from, tc.action)
			require.NoError(t, err)
			assert.Equal(t, tc.to, to)
		})
	}
}

func TestTransition_TerminalStatesAreFinal(t *testing.T) {
	actions := []wfh.Action{
		wfh.ActionApprove, wfh.ActionReject, wfh.ActionRequestWithdrawal, wfh.ActionWithdrawDirect,
		wfh.ActionApproveWithdrawal, wfh.ActionRejectWithdrawal, wfh.ActionForceWithdraw,
		wfh.ActionSystemReject, wfh.ActionSystemRevertWithdrawal,
	}
	for _, from := range []wfh.Status{wfh.StatusRejected, wfh.StatusWithdrawn} {
		assert.True(t, from.IsTerminal())
		for _, a := range actions {
			_, err := wfh.Transition(from, a)
			var te *wfh.TransitionError
			require.ErrorAs(t, err, &te, "%s via %s", from, a)
			assert.Equal(t, from, te.From)
			assert.ErrorIs(t, err, wfh.ErrIllegalTransition)
		}
	}
}

func TestTransition_ForceWithdrawNeedsApproved(t *testing.T) {
	assert.False(t, wfh.CanTransition(wfh.StatusPendingApproval, wfh.ActionForceWithdraw))
	assert.False(t, wfh.CanTransition(wfh.StatusPendingWithdrawal, wfh.ActionForceWithdraw))
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, wfh.StatusApproved, wfh.InitialStatus(ceo, ceo))
	assert.Equal(t, wfh.StatusPendingApproval, wfh.InitialStatus(susan, ceo))
}

// =============================================================================
// CONFLICT RULES
// =============================================================================

func TestConflictingSlots(t *testing.T) {
	assert.Equal(t, []wfh.Slot{wfh.SlotAM, wfh.SlotFull}, wfh.ConflictingSlots(wfh.SlotAM))
	assert.Equal(t, []wfh.Slot{wfh.SlotPM, wfh.SlotFull}, wfh.ConflictingSlots(wfh.SlotPM))
	assert.Nil(t, wfh.ConflictingSlots(wfh.SlotFull), "FULL clashes with everything")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, wfh.OutcomeCreated, wfh.Classify(0, 5))
	assert.Equal(t, wfh.OutcomeDuplicateConflict, wfh.Classify(1, 1))
	assert.Equal(t, wfh.OutcomeDuplicateConflict, wfh.Classify(5, 5))
	assert.Equal(t, wfh.OutcomePartialConflict, wfh.Classify(2, 5))
	assert.Equal(t, wfh.OutcomeDuplicateConflict, wfh.Classify(3, 2))
}

// =============================================================================
// TIME WINDOWS
// =============================================================================

func TestWithdrawalWindow_Boundary(t *testing.T) {
	// GIVEN: now is 2024-10-01 10:00 SGT
	// THEN: a booking 14 days ahead can be withdrawn, 15 days ahead cannot
	p := wfh.DefaultPolicy()
	p.Location = sgt
	now := time.Date(2024, time.October, 1, 10, 0, 0, 0, sgt)

	assert.True(t, p.CanWithdraw(d("2024-10-15"), now))
	assert.False(t, p.CanWithdraw(d("2024-10-16"), now))

	// Behind: the window closes at midnight fourteen days after the booking
	assert.True(t, p.CanWithdraw(d("2024-09-18"), now))
	assert.False(t, p.CanWithdraw(d("2024-09-17"), now))
}

func TestForceWindow_Boundary(t *testing.T) {
	p := wfh.DefaultPolicy()
	p.Location = sgt
	now := time.Date(2024, time.October, 1, 10, 0, 0, 0, sgt)

	assert.True(t, p.CanForceWithdraw(d("2024-11-01"), now), "one month ahead")
	assert.False(t, p.CanForceWithdraw(d("2024-11-02"), now))
	assert.True(t, p.CanForceWithdraw(d("2024-07-02"), now), "three months behind")
	assert.False(t, p.CanForceWithdraw(d("2024-07-01"), now))
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, "2024-02-29", d("2024-01-31").AddMonths(1).String())
	assert.Equal(t, "2024-02-29", d("2024-03-31").AddMonths(-1).String())
	assert.Equal(t, "2023-02-28", d("2022-11-30").AddMonths(3).String())
}

func TestIsStale(t *testing.T) {
	p := wfh.DefaultPolicy()
	p.Location = sgt
	now := time.Date(2024, time.October, 1, 10, 0, 0, 0, sgt)

	assert.True(t, p.IsStale(d("2024-08-06"), now), "exactly eight weeks ago")
	assert.False(t, p.IsStale(d("2024-08-07"), now))
}

func TestParseDate_AcceptsTimestamps(t *testing.T) {
	got, err := wfh.ParseDate("2024-10-10T00:00:00.000000Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-10-10", got.String())

	_, err = wfh.ParseDate("10/10/2024")
	assert.Error(t, err)
}
