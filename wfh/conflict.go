/*
conflict.go - Double-booking detection

INVARIANT:
  For one staff member, at most one live booking (Approved, Pending_Approval,
  Pending_Withdrawal) may occupy a given half-day.

SLOT RULES:
  requested AM   conflicts with existing AM or FULL
  requested PM   conflicts with existing PM or FULL
  requested FULL conflicts with any live booking that day

DECISION (over the whole candidate date list, all-or-nothing):
  conflicts == 0                   -> create everything
  conflicts == len(candidates)     -> duplicate
  0 < conflicts < len(candidates)  -> partial recurring conflict
  otherwise                        -> duplicate

The application-level count runs inside the Submit unit of work. Stores also
enforce the invariant (see store/sqlite booking_halves) so that two racing
submissions cannot both pass the count.
*/
package wfh

import "context"

// ConflictingSlots returns the existing-booking slots that clash with a new
// request for slot. A nil result means every slot clashes.
func ConflictingSlots(slot Slot) []Slot {
	switch slot {
	case SlotAM:
		return []Slot{SlotAM, SlotFull}
	case SlotPM:
		return []Slot{SlotPM, SlotFull}
	default:
		return nil
	}
}

// Classify turns a conflict count into the submission outcome.
func Classify(conflicts, candidates int) Outcome {
	switch {
	case conflicts == 0:
		return OutcomeCreated
	case conflicts == candidates:
		return OutcomeDuplicateConflict
	case conflicts < candidates:
		return OutcomePartialConflict
	default:
		return OutcomeDuplicateConflict
	}
}

// CountConflicts counts live bookings of staffID on dates that clash with slot.
func CountConflicts(ctx context.Context, s Store, staffID StaffID, slot Slot, dates []Date) (int, error) {
	return s.CountBookings(ctx, BookingFilter{
		StaffID:  &staffID,
		Dates:    dates,
		Slots:    ConflictingSlots(slot),
		Statuses: LiveStatuses,
	})
}
