package wfh

// =============================================================================
// STATE MACHINE - One table, no status comparisons elsewhere
// =============================================================================
//
//   Pending_Approval ──approve──────────────▶ Approved
//   Pending_Approval ──reject / system──────▶ Rejected            (terminal)
//   Pending_Approval ──withdraw (direct)────▶ Withdrawn           (terminal)
//   Approved ─────────request withdrawal────▶ Pending_Withdrawal
//   Approved ─────────withdraw (top exec)───▶ Withdrawn
//   Approved ─────────force withdraw────────▶ Withdrawn
//   Pending_Withdrawal ─approve withdrawal──▶ Withdrawn
//   Pending_Withdrawal ─reject / system─────▶ Approved

type Action string

const (
	ActionApprove                Action = "approve"
	ActionReject                 Action = "reject"
	ActionRequestWithdrawal      Action = "request withdrawal of"
	ActionWithdrawDirect         Action = "withdraw"
	ActionApproveWithdrawal      Action = "approve withdrawal of"
	ActionRejectWithdrawal       Action = "reject withdrawal of"
	ActionForceWithdraw          Action = "force-withdraw"
	ActionSystemReject           Action = "auto-reject"
	ActionSystemRevertWithdrawal Action = "auto-revert withdrawal of"
)

type transitionKey struct {
	from   Status
	action Action
}

var transitions = map[transitionKey]Status{
	{StatusPendingApproval, ActionApprove}:                  StatusApproved,
	{StatusPendingApproval, ActionReject}:                   StatusRejected,
	{StatusPendingApproval, ActionSystemReject}:             StatusRejected,
	{StatusPendingApproval, ActionWithdrawDirect}:           StatusWithdrawn,
	{StatusApproved, ActionRequestWithdrawal}:               StatusPendingWithdrawal,
	{StatusApproved, ActionWithdrawDirect}:                  StatusWithdrawn,
	{StatusApproved, ActionForceWithdraw}:                   StatusWithdrawn,
	{StatusPendingWithdrawal, ActionApproveWithdrawal}:      StatusWithdrawn,
	{StatusPendingWithdrawal, ActionRejectWithdrawal}:       StatusApproved,
	{StatusPendingWithdrawal, ActionSystemRevertWithdrawal}: StatusApproved,
}

// Transition returns the state reached by applying action in from.
func Transition(from Status, action Action) (Status, error) {
	to, ok := transitions[transitionKey{from, action}]
	if !ok {
		return from, &TransitionError{From: from, Action: action}
	}
	return to, nil
}

// CanTransition reports whether action is defined for from.
func CanTransition(from Status, action Action) bool {
	_, ok := transitions[transitionKey{from, action}]
	return ok
}

// InitialStatus is the status of freshly created bookings.
func InitialStatus(staffID, topExec StaffID) Status {
	if staffID == topExec {
		return StatusApproved
	}
	return StatusPendingApproval
}

// apply moves b through action, mutating it only on success.
func (b *Booking) apply(action Action) error {
	to, err := Transition(b.Status, action)
	if err != nil {
		return err
	}
	b.Status = to
	return nil
}
