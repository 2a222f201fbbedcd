package wfh_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allinone/wfh-engine/wfh"
)

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_RecurringCreatesOneBookingPerWeek(t *testing.T) {
	// GIVEN: Susan has no bookings
	// WHEN: She submits AM every Monday from 7 Oct to 4 Nov
	// THEN: One application, five pending bookings
	f := newFixture(t)

	res := f.submit(t, susan, wfh.SlotAM, "2024-10-07", "2024-11-04")

	require.Equal(t, wfh.OutcomeCreated, res.Outcome)
	require.NotNil(t, res.Application)
	assert.Equal(t, susan, res.Application.StaffID)
	require.Len(t, res.Bookings, 5)
	for _, b := range res.Bookings {
		assert.Equal(t, wfh.StatusPendingApproval, b.Status)
		assert.Equal(t, res.Application.ID, b.ApplicationID)
	}

	stored, err := f.store.FindBookings(context.Background(), wfh.BookingFilter{ApplicationID: res.Application.ID})
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestSubmit_FullDayConflictsWithExistingHalf(t *testing.T) {
	// GIVEN: An approved AM booking on 10 Oct
	// WHEN: FULL is requested for 10 Oct
	// THEN: Duplicate conflict, nothing written
	f := newFixture(t)
	f.approved(t, susan, wfh.SlotAM, "2024-10-10")

	res := f.submit(t, susan, wfh.SlotFull, "2024-10-10", "2024-10-10")

	assert.Equal(t, wfh.OutcomeDuplicateConflict, res.Outcome)
	assert.ErrorIs(t, res.Err(), wfh.ErrConflict)
	n, err := f.store.CountBookings(context.Background(), wfh.BookingFilter{StaffID: idPtr(susan)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmit_HalfConflictsWithExistingFull(t *testing.T) {
	f := newFixture(t)
	f.submit(t, susan, wfh.SlotFull, "2024-10-10", "2024-10-10")

	res := f.submit(t, susan, wfh.SlotPM, "2024-10-10", "2024-10-10")

	assert.Equal(t, wfh.OutcomeDuplicateConflict, res.Outcome)
}

func TestSubmit_OppositeHalvesCoexist(t *testing.T) {
	f := newFixture(t)
	f.submit(t, susan, wfh.SlotAM, "2024-10-10", "2024-10-10")

	res := f.submit(t, susan, wfh.SlotPM, "2024-10-10", "2024-10-10")

	assert.Equal(t, wfh.OutcomeCreated, res.Outcome)
}

func TestSubmit_PartialRecurringConflict(t *testing.T) {
	// GIVEN: A PM booking on the third Monday
	// WHEN: PM every Monday for five weeks
	// THEN: Partial conflict, the whole series is refused
	f := newFixture(t)
	f.submit(t, susan, wfh.SlotPM, "2024-10-21", "2024-10-21")

	res := f.submit(t, susan, wfh.SlotPM, "2024-10-07", "2024-11-04")

	assert.Equal(t, wfh.OutcomePartialConflict, res.Outcome)
	n, err := f.store.CountBookings(context.Background(), wfh.BookingFilter{StaffID: idPtr(susan)})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSubmit_InactiveBookingsDoNotConflict(t *testing.T) {
	// GIVEN: A rejected booking on 10 Oct
	// WHEN: The same slot is requested again
	// THEN: Created
	f := newFixture(t)
	first := f.submit(t, susan, wfh.SlotAM, "2024-10-10", "2024-10-10")
	_, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID: director, ApplicationID: first.Application.ID,
		Decision: wfh.DecisionReject, RejectReason: "team offsite",
	})
	require.NoError(t, err)

	res := f.submit(t, susan, wfh.SlotAM, "2024-10-10", "2024-10-10")

	assert.Equal(t, wfh.OutcomeCreated, res.Outcome)
}

func TestSubmit_OtherStaffDoNotConflict(t *testing.T) {
	f := newFixture(t)
	f.submit(t, susan, wfh.SlotFull, "2024-10-10", "2024-10-10")

	res := f.submit(t, emma, wfh.SlotFull, "2024-10-10", "2024-10-10")

	assert.Equal(t, wfh.OutcomeCreated, res.Outcome)
}

func TestSubmit_TopExecIsApprovedImmediately(t *testing.T) {
	f := newFixture(t)

	res := f.submit(t, ceo, wfh.SlotFull, "2024-10-10", "2024-10-24")

	require.Equal(t, wfh.OutcomeCreated, res.Outcome)
	require.Len(t, res.Bookings, 3)
	for _, b := range res.Bookings {
		assert.Equal(t, wfh.StatusApproved, b.Status)
	}
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, wfh.SubmitRequest{StaffID: susan, Slot: "EVENING", StartDate: d("2024-10-10"), EndDate: d("2024-10-10")})
	assert.ErrorIs(t, err, wfh.ErrValidation)

	_, err = f.svc.Submit(ctx, wfh.SubmitRequest{StaffID: susan, Slot: wfh.SlotAM, StartDate: d("2024-10-10"), EndDate: d("2024-10-03")})
	assert.ErrorIs(t, err, wfh.ErrValidation)

	_, err = f.svc.Submit(ctx, wfh.SubmitRequest{StaffID: 999999, Slot: wfh.SlotAM, StartDate: d("2024-10-10"), EndDate: d("2024-10-10")})
	assert.ErrorIs(t, err, wfh.ErrEmployeeNotFound)
	assert.True(t, wfh.IsNotFound(err))
}

// =============================================================================
// MANAGER DECISIONS
// =============================================================================

func TestDecideApplication_BatchApproval(t *testing.T) {
	// GIVEN: Five pending weekly bookings
	// WHEN: The reporting manager approves the application
	// THEN: All five are Approved in one call
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotAM, "2024-10-07", "2024-11-04")

	dec, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID:     director,
		ApplicationID: res.Application.ID,
		Decision:      wfh.DecisionApprove,
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	assert.Equal(t, "Application Approved", dec.Message)
	require.Len(t, dec.Bookings, 5)
	for _, b := range res.Bookings {
		assert.Equal(t, wfh.StatusApproved, f.booking(t, b.ID).Status)
	}
}

func TestDecideApplication_RejectStoresReason(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotAM, "2024-10-07", "2024-10-14")

	dec, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID:     director,
		ApplicationID: res.Application.ID,
		Decision:      wfh.DecisionReject,
		RejectReason:  "quarter close",
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	for _, b := range res.Bookings {
		assert.Equal(t, wfh.StatusRejected, f.booking(t, b.ID).Status)
	}
	app := f.application(t, res.Application.ID)
	require.NotNil(t, app.RejectReason)
	assert.Equal(t, "quarter close", *app.RejectReason)
}

func TestDecideApplication_RejectNeedsReason(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotAM, "2024-10-07", "2024-10-07")

	_, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID: director, ApplicationID: res.Application.ID, Decision: wfh.DecisionReject,
	})

	var ve *wfh.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "manager_reject_reason", ve.Field)
	assert.Equal(t, wfh.StatusPendingApproval, f.booking(t, res.Bookings[0].ID).Status)
}

func TestDecideApplication_WrongManagerChangesNothing(t *testing.T) {
	// GIVEN: Susan's pending application
	// WHEN: A manager who is not her reporting manager approves it
	// THEN: WrongManager, every booking still pending
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotAM, "2024-10-07", "2024-10-21")

	for _, mgr := range []wfh.StaffID{outsider, ceo, susan} {
		dec, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
			ManagerID: mgr, ApplicationID: res.Application.ID, Decision: wfh.DecisionApprove,
		})
		require.NoError(t, err)
		assert.Equal(t, wfh.OutcomeWrongManager, dec.Outcome, "manager %d", mgr)
		assert.ErrorIs(t, dec.Err(), wfh.ErrWrongManager)
	}
	for _, b := range res.Bookings {
		assert.Equal(t, wfh.StatusPendingApproval, f.booking(t, b.ID).Status)
	}
}

func TestDecideApplication_NothingPending(t *testing.T) {
	f := newFixture(t)
	b := f.approved(t, susan, wfh.SlotAM, "2024-10-07")

	dec, err := f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID: director, ApplicationID: b.ApplicationID, Decision: wfh.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeNothingPending, dec.Outcome)

	dec, err = f.svc.DecideApplication(context.Background(), wfh.DecisionRequest{
		ManagerID: director, ApplicationID: "no-such-application", Decision: wfh.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeNothingPending, dec.Outcome)
}

func TestDecideBooking_TouchesOnlyThatDay(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotPM, "2024-10-07", "2024-10-21")
	target := res.Bookings[1]

	dec, err := f.svc.DecideBooking(context.Background(), wfh.DecisionRequest{
		ManagerID:     director,
		ApplicationID: res.Application.ID,
		BookingID:     target.ID,
		Decision:      wfh.DecisionApprove,
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	assert.Equal(t, wfh.StatusApproved, f.booking(t, target.ID).Status)
	assert.Equal(t, wfh.StatusPendingApproval, f.booking(t, res.Bookings[0].ID).Status)
	assert.Equal(t, wfh.StatusPendingApproval, f.booking(t, res.Bookings[2].ID).Status)
}

func TestDecideBooking_RequiresBookingID(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotPM, "2024-10-07", "2024-10-07")

	_, err := f.svc.DecideBooking(context.Background(), wfh.DecisionRequest{
		ManagerID: director, ApplicationID: res.Application.ID, Decision: wfh.DecisionApprove,
	})
	assert.ErrorIs(t, err, wfh.ErrValidation)
}

// =============================================================================
// WITHDRAWAL
// =============================================================================

func TestWithdrawal_RoundTripApproved(t *testing.T) {
	// GIVEN: An approved booking four days out
	// WHEN: Staff requests withdrawal, manager approves it
	// THEN: Approved -> Pending_Withdrawal -> Withdrawn, one withdrawal record
	f := newFixture(t)
	ctx := context.Background()
	b := f.approved(t, susan, wfh.SlotAM, "2024-10-05")

	res, err := f.svc.RequestWithdrawal(ctx, wfh.WithdrawalRequest{
		StaffID: susan, Slot: wfh.SlotAM, Date: d("2024-10-05"), Reason: "back in office",
	})
	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeEscalated, res.Outcome)
	assert.Equal(t, wfh.StatusPendingWithdrawal, f.booking(t, b.ID).Status)

	dec, err := f.svc.DecideWithdrawal(ctx, wfh.DecisionRequest{
		ManagerID: director, ApplicationID: b.ApplicationID, BookingID: b.ID, Decision: wfh.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	assert.Equal(t, "Withdrawal Approved", dec.Message)
	assert.Equal(t, wfh.StatusWithdrawn, f.booking(t, b.ID).Status)

	records := f.store.Withdrawals(b.ID)
	require.Len(t, records, 1)
	assert.Equal(t, "back in office", records[0].StaffReason)
	assert.Nil(t, records[0].RejectReason)
}

func TestWithdrawal_RejectRestoresApproved(t *testing.T) {
	// GIVEN: A booking withdrawn twice (first withdrawal rejected)
	// WHEN: The second withdrawal is rejected
	// THEN: Approved again; the reason lands on the latest record only
	f := newFixture(t)
	ctx := context.Background()
	b := f.approved(t, susan, wfh.SlotAM, "2024-10-05")
	withdraw := wfh.WithdrawalRequest{StaffID: susan, Slot: wfh.SlotAM, Date: d("2024-10-05"), Reason: "first"}
	reject := wfh.DecisionRequest{
		ManagerID: director, ApplicationID: b.ApplicationID, BookingID: b.ID,
		Decision: wfh.DecisionReject, RejectReason: "need you there",
	}

	_, err := f.svc.RequestWithdrawal(ctx, withdraw)
	require.NoError(t, err)
	_, err = f.svc.DecideWithdrawal(ctx, reject)
	require.NoError(t, err)

	withdraw.Reason = "second"
	reject.RejectReason = "still need you"
	_, err = f.svc.RequestWithdrawal(ctx, withdraw)
	require.NoError(t, err)
	dec, err := f.svc.DecideWithdrawal(ctx, reject)
	require.NoError(t, err)

	assert.Equal(t, wfh.OutcomeDecided, dec.Outcome)
	assert.Equal(t, wfh.StatusApproved, f.booking(t, b.ID).Status)
	records := f.store.Withdrawals(b.ID)
	require.Len(t, records, 2)
	assert.Equal(t, "need you there", *records[0].RejectReason)
	assert.Equal(t, "still need you", *records[1].RejectReason)
}

func TestWithdrawal_PendingIsWithdrawnDirectly(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, susan, wfh.SlotPM, "2024-10-08", "2024-10-08")

	out, err := f.svc.RequestWithdrawal(context.Background(), wfh.WithdrawalRequest{
		StaffID: susan, Slot: wfh.SlotPM, Date: d("2024-10-08"), ExpectedStatus: wfh.StatusPendingApproval,
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeWithdrawn, out.Outcome)
	assert.Equal(t, wfh.StatusWithdrawn, f.booking(t, res.Bookings[0].ID).Status)
	assert.Len(t, f.store.Withdrawals(res.Bookings[0].ID), 1)
}

func TestWithdrawal_TopExecSkipsReview(t *testing.T) {
	f := newFixture(t)
	res := f.submit(t, ceo, wfh.SlotFull, "2024-10-08", "2024-10-08")

	out, err := f.svc.RequestWithdrawal(context.Background(), wfh.WithdrawalRequest{
		StaffID: ceo, Slot: wfh.SlotFull, Date: d("2024-10-08"),
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeWithdrawn, out.Outcome)
	assert.Equal(t, wfh.StatusWithdrawn, f.booking(t, res.Bookings[0].ID).Status)
}

func TestWithdrawal_OutOfWindowChangesNothing(t *testing.T) {
	// GIVEN: An approved booking 16 days out
	// WHEN: Staff asks to withdraw
	// THEN: OutOfWindow, no record written
	f := newFixture(t)
	b := f.approved(t, susan, wfh.SlotAM, "2024-10-17")

	out, err := f.svc.RequestWithdrawal(context.Background(), wfh.WithdrawalRequest{
		StaffID: susan, Slot: wfh.SlotAM, Date: d("2024-10-17"),
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeOutOfWindow, out.Outcome)
	assert.ErrorIs(t, out.Err(), wfh.ErrOutsideWindow)
	assert.Equal(t, wfh.StatusApproved, f.booking(t, b.ID).Status)
	assert.Empty(t, f.store.Withdrawals(b.ID))
}

func TestWithdrawal_NotFound(t *testing.T) {
	f := newFixture(t)
	f.approved(t, susan, wfh.SlotAM, "2024-10-05")

	out, err := f.svc.RequestWithdrawal(context.Background(), wfh.WithdrawalRequest{
		StaffID: susan, Slot: wfh.SlotPM, Date: d("2024-10-05"),
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeNotFound, out.Outcome)
}

func TestDecideWithdrawal_WrongManager(t *testing.T) {
	f := newFixture(t)
	b := f.approved(t, susan, wfh.SlotAM, "2024-10-05")
	_, err := f.svc.RequestWithdrawal(context.Background(), wfh.WithdrawalRequest{StaffID: susan, Slot: wfh.SlotAM, Date: d("2024-10-05")})
	require.NoError(t, err)

	dec, err := f.svc.DecideWithdrawal(context.Background(), wfh.DecisionRequest{
		ManagerID: outsider, ApplicationID: b.ApplicationID, BookingID: b.ID, Decision: wfh.DecisionApprove,
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeWrongManager, dec.Outcome)
	assert.Equal(t, wfh.StatusPendingWithdrawal, f.booking(t, b.ID).Status)
}

// =============================================================================
// FORCE WITHDRAWAL
// =============================================================================

func TestForceWithdraw_FullDayMatchesHalfRequest(t *testing.T) {
	f := newFixture(t)
	b := f.approved(t, susan, wfh.SlotFull, "2024-10-20")

	out, err := f.svc.ForceWithdraw(context.Background(), wfh.ForceWithdrawRequest{
		StaffID: susan, Slot: wfh.SlotAM, Date: d("2024-10-20"), Reason: "client on site",
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeWithdrawn, out.Outcome)
	got := f.booking(t, b.ID)
	assert.Equal(t, wfh.StatusWithdrawn, got.Status)
	require.NotNil(t, got.ForceWithdrawReason)
	assert.Equal(t, "client on site", *got.ForceWithdrawReason)
}

func TestForceWithdraw_Window(t *testing.T) {
	f := newFixture(t)
	b := f.approved(t, susan, wfh.SlotPM, "2024-11-04")

	out, err := f.svc.ForceWithdraw(context.Background(), wfh.ForceWithdrawRequest{
		StaffID: susan, Slot: wfh.SlotPM, Date: d("2024-11-04"), Reason: "client on site",
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeOutOfWindow, out.Outcome)
	assert.Equal(t, wfh.StatusApproved, f.booking(t, b.ID).Status)
}

func TestForceWithdraw_OnlyApproved(t *testing.T) {
	f := newFixture(t)
	f.submit(t, susan, wfh.SlotPM, "2024-10-20", "2024-10-20")

	out, err := f.svc.ForceWithdraw(context.Background(), wfh.ForceWithdrawRequest{
		StaffID: susan, Slot: wfh.SlotPM, Date: d("2024-10-20"), Reason: "client on site",
	})

	require.NoError(t, err)
	assert.Equal(t, wfh.OutcomeNotFound, out.Outcome)
}

// =============================================================================
// SCHEDULE
// =============================================================================

func TestSchedule_HidesManagerRemovedBookings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.approved(t, susan, wfh.SlotAM, "2024-10-03")
	forced := f.approved(t, susan, wfh.SlotAM, "2024-10-04")
	pending := f.submit(t, susan, wfh.SlotPM, "2024-10-02", "2024-10-02")

	_, err := f.svc.ForceWithdraw(ctx, wfh.ForceWithdrawRequest{StaffID: susan, Slot: wfh.SlotAM, Date: forced.Date, Reason: "audit"})
	require.NoError(t, err)

	got, err := f.svc.Schedule(ctx, susan)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, pending.Bookings[0].ID, got[0].ID)
	assert.Equal(t, kept.ID, got[1].ID)
}

func TestSchedule_KeepsSiblingsOfRejectedDay(t *testing.T) {
	// GIVEN: A three-week PM request with day 1 approved and day 2 rejected
	// WHEN: Susan lists her schedule
	// THEN: Days 1 and 3 are still live and listed
	f := newFixture(t)
	ctx := context.Background()
	res := f.submit(t, susan, wfh.SlotPM, "2024-10-07", "2024-10-21")
	require.Len(t, res.Bookings, 3)
	for i, dec := range []wfh.Decision{wfh.DecisionApprove, wfh.DecisionReject} {
		_, err := f.svc.DecideBooking(ctx, wfh.DecisionRequest{
			ManagerID: director, ApplicationID: res.Application.ID, BookingID: res.Bookings[i].ID,
			Decision: dec, RejectReason: "no cover",
		})
		require.NoError(t, err)
	}

	got, err := f.svc.Schedule(ctx, susan)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, res.Bookings[0].ID, got[0].ID)
	assert.Equal(t, wfh.StatusApproved, got[0].Status)
	assert.Equal(t, res.Bookings[2].ID, got[1].ID)
	assert.Equal(t, wfh.StatusPendingApproval, got[1].Status)
}
