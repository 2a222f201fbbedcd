package wfh

// =============================================================================
// OUTCOMES - Machine-checkable result tags
// =============================================================================
//
// Every operation returns (Result, error). The error is reserved for
// validation, store and unexpected failures. Business refusals (conflicts,
// wrong manager, outside window, nothing pending) come back as a Result whose
// Outcome says why, with no state changed. The transport decides how loudly
// to surface them; an out-of-window withdrawal is a normal answer, not a fault.

type Outcome string

const (
	OutcomeCreated           Outcome = "created"
	OutcomeDuplicateConflict Outcome = "duplicate_conflict"
	OutcomePartialConflict   Outcome = "partial_conflict"
	OutcomeDecided           Outcome = "decided"
	OutcomeWrongManager      Outcome = "wrong_manager"
	OutcomeNothingPending    Outcome = "nothing_pending"
	OutcomeEscalated         Outcome = "escalated"
	OutcomeWithdrawn         Outcome = "withdrawn"
	OutcomeOutOfWindow       Outcome = "out_of_window"
	OutcomeNotFound          Outcome = "not_found"
)

// Success reports whether the outcome changed state.
func (o Outcome) Success() bool {
	switch o {
	case OutcomeCreated, OutcomeDecided, OutcomeEscalated, OutcomeWithdrawn:
		return true
	}
	return false
}

// Result carries an outcome plus whatever the operation touched.
type Result struct {
	Outcome     Outcome
	Message     string
	Application *Application
	Bookings    []Booking // bookings after the change (or the conflicting candidates)
}

func (r Result) OK() bool { return r.Outcome.Success() }

// Err maps a refusal onto the error taxonomy. Successful results return nil.
func (r Result) Err() error {
	switch r.Outcome {
	case OutcomeDuplicateConflict, OutcomePartialConflict:
		return ErrConflict
	case OutcomeWrongManager:
		return ErrWrongManager
	case OutcomeOutOfWindow:
		return ErrOutsideWindow
	case OutcomeNothingPending, OutcomeNotFound:
		return ErrNotFound
	}
	return nil
}

var outcomeMessages = map[Outcome]string{
	OutcomeCreated:           "Application Success!",
	OutcomeDuplicateConflict: "Application already exists!",
	OutcomePartialConflict:   "Application already exists on some recurring days!",
	OutcomeWrongManager:      "wrong reporting manager",
	OutcomeNothingPending:    "No pending requests found",
	OutcomeEscalated:         "Sending Manager for Approval",
	OutcomeWithdrawn:         "Successful Withdrawal!",
	OutcomeOutOfWindow:       "cannot withdraw outside the allowed window",
	OutcomeNotFound:          "No matching arrangement found",
}

func result(o Outcome) Result {
	return Result{Outcome: o, Message: outcomeMessages[o]}
}
