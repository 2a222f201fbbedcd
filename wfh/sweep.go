package wfh

import (
	"context"
	"time"
)

// =============================================================================
// AUTO-RESOLUTION SWEEP
// =============================================================================
//
// A booking still awaiting a manager once now is past date + StaleAfterDays
// is resolved by the system:
//
//   Pending_Approval    every Pending_Approval booking of the same
//                       application -> Rejected; application reject reason
//                       set to SystemRejectReason
//   Pending_Withdrawal  booking -> Approved; the latest withdrawal record
//                       gets SystemRejectReason unless it already has one
//
// Each candidate is resolved in its own unit of work and re-read first, so a
// booking a manager decided in the meantime is skipped and a second run over
// the same state changes nothing. One failure is logged and counted; it never
// stops the batch.

// SweepSummary counts what one sweep run did.
type SweepSummary struct {
	Rejected            int `json:"rejected"`
	RevertedWithdrawals int `json:"reverted_withdrawals"`
	Failed              int `json:"failed"`
}

// Sweep resolves every stale pending booking as of now.
func (s *Service) Sweep(ctx context.Context, now time.Time) (SweepSummary, error) {
	var summary SweepSummary

	cutoff := s.Policy.Today(now).AddDays(-s.Policy.StaleAfterDays)
	candidates, err := s.Store.FindBookings(ctx, BookingFilter{
		Statuses: []Status{StatusPendingApproval, StatusPendingWithdrawal},
		DateTo:   &cutoff,
	})
	if err != nil {
		return summary, storeErr("sweep", err)
	}

	for _, c := range candidates {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if !s.Policy.IsStale(c.Date, now) {
			continue
		}

		var rejected, reverted int
		err := s.Store.WithTx(ctx, func(tx Store) error {
			var err error
			rejected, reverted, err = s.resolveStale(ctx, tx, c.ID)
			return err
		})
		if err != nil {
			summary.Failed++
			s.logf("[Sweep] booking %s (%s, %s): %v", c.ID, c.Date, c.Status, err)
			continue
		}
		summary.Rejected += rejected
		summary.RevertedWithdrawals += reverted
	}

	if summary.Rejected+summary.RevertedWithdrawals+summary.Failed > 0 {
		s.logf("[Sweep] rejected=%d reverted=%d failed=%d", summary.Rejected, summary.RevertedWithdrawals, summary.Failed)
	}
	return summary, nil
}

func (s *Service) resolveStale(ctx context.Context, tx Store, id BookingID) (rejected, reverted int, err error) {
	b, err := tx.GetBooking(ctx, id)
	if err != nil || b == nil {
		return 0, 0, err
	}

	switch b.Status {
	case StatusPendingApproval:
		pending, err := tx.FindBookings(ctx, BookingFilter{
			ApplicationID: b.ApplicationID,
			Statuses:      []Status{StatusPendingApproval},
		})
		if err != nil {
			return 0, 0, err
		}
		for i := range pending {
			if err := pending[i].apply(ActionSystemReject); err != nil {
				return 0, 0, err
			}
			if err := tx.UpdateBooking(ctx, pending[i]); err != nil {
				return 0, 0, err
			}
		}
		if err := tx.SetApplicationRejectReason(ctx, b.ApplicationID, SystemRejectReason); err != nil {
			return 0, 0, err
		}
		return len(pending), 0, nil

	case StatusPendingWithdrawal:
		if err := b.apply(ActionSystemRevertWithdrawal); err != nil {
			return 0, 0, err
		}
		if err := tx.UpdateBooking(ctx, *b); err != nil {
			return 0, 0, err
		}
		w, err := tx.LatestWithdrawal(ctx, b.ID)
		if err != nil {
			return 0, 0, err
		}
		if w != nil && w.RejectReason == nil {
			w.RejectReason = strPtr(SystemRejectReason)
			if err := tx.UpdateWithdrawal(ctx, *w); err != nil {
				return 0, 0, err
			}
		}
		return 0, 1, nil
	}

	// Decided since the candidate list was read.
	return 0, 0, nil
}
