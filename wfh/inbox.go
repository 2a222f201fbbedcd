package wfh

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MANAGER INBOX
// =============================================================================
//
// Everything a manager still has to act on, grouped the way it is decided:
//
//   Pending_Approval    one group per Application (batch approve/reject)
//   Pending_Withdrawal  one group per Booking (withdrawals are per day)
//
// Each entry carries the share of the manager's direct team already working
// from home in that half-day (Approved or Pending_Withdrawal, FULL counting
// for both halves), floored to a whole percent.

// InboxEntry is one booking awaiting a decision.
type InboxEntry struct {
	Booking Booking
	Staff   Employee
	Reason  string // apply reason, or the latest withdrawal reason
	Start   time.Time
	End     time.Time

	// Share is the team WFH percentage for the booking's half-day.
	// FULL bookings leave it zero and fill AMShare and PMShare instead.
	Share   decimal.Decimal
	AMShare decimal.Decimal
	PMShare decimal.Decimal
}

// InboxGroup is one unit of decision.
type InboxGroup struct {
	Key         string
	Status      Status
	Application Application
	Entries     []InboxEntry
}

// SlotHours returns the office hours a slot covers.
func SlotHours(slot Slot) (start, end int) {
	switch slot {
	case SlotAM:
		return 9, 13
	case SlotPM:
		return 14, 18
	default:
		return 9, 18
	}
}

var hundred = decimal.NewFromInt(100)

// teamShare is floor(count * 100 / teamSize), zero for an empty team.
func teamShare(count, teamSize int) decimal.Decimal {
	if teamSize == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(count)).Mul(hundred).Div(decimal.NewFromInt(int64(teamSize))).Floor()
}

// occupancy tallies live team bookings per date and slot.
type occupancy map[string]map[Slot]int

func (o occupancy) half(d Date, half Slot) int {
	day := o[d.String()]
	return day[half] + day[SlotFull]
}

// PendingForManager lists the requests managerID's direct reports are waiting on.
func (s *Service) PendingForManager(ctx context.Context, managerID StaffID) ([]InboxGroup, error) {
	if _, err := s.Directory.GetEmployee(ctx, managerID); err != nil {
		return nil, fmt.Errorf("inbox of %d: %w", managerID, err)
	}
	team, err := directTeam(ctx, s.Directory, managerID)
	if err != nil {
		return nil, storeErr("inbox", err)
	}
	if len(team) == 0 {
		return nil, nil
	}

	staff := make(map[StaffID]Employee, len(team))
	ids := make([]StaffID, len(team))
	for i, e := range team {
		staff[e.ID] = e
		ids[i] = e.ID
	}

	pending, err := s.Store.FindBookings(ctx, BookingFilter{
		StaffIDs: ids,
		Statuses: []Status{StatusPendingApproval, StatusPendingWithdrawal},
	})
	if err != nil {
		return nil, storeErr("inbox", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	occ, err := s.teamOccupancy(ctx, ids, pending)
	if err != nil {
		return nil, storeErr("inbox", err)
	}

	apps := make(map[ApplicationID]*Application)
	groups := make(map[string]*InboxGroup)
	var order []string
	for _, b := range pending {
		app, seen := apps[b.ApplicationID]
		if !seen {
			if app, err = s.Store.GetApplication(ctx, b.ApplicationID); err != nil {
				return nil, storeErr("inbox", err)
			}
			apps[b.ApplicationID] = app
		}
		if app == nil {
			continue
		}

		entry := s.inboxEntry(b, staff[b.StaffID], app.Reason, occ, len(team))
		key := string(app.ID)
		if b.Status == StatusPendingWithdrawal {
			key = string(app.ID) + "-" + string(b.ID)
			w, err := s.Store.LatestWithdrawal(ctx, b.ID)
			if err != nil {
				return nil, storeErr("inbox", err)
			}
			if w != nil {
				entry.Reason = w.StaffReason
			}
		}

		g, ok := groups[key]
		if !ok {
			g = &InboxGroup{Key: key, Status: b.Status, Application: *app}
			groups[key] = g
			order = append(order, key)
		}
		g.Entries = append(g.Entries, entry)
	}

	out := make([]InboxGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Entries[0].Booking.Date.Before(out[j].Entries[0].Booking.Date)
	})
	return out, nil
}

func (s *Service) teamOccupancy(ctx context.Context, team []StaffID, pending []Booking) (occupancy, error) {
	seen := make(map[string]bool)
	var dates []Date
	for _, b := range pending {
		if !seen[b.Date.String()] {
			seen[b.Date.String()] = true
			dates = append(dates, b.Date)
		}
	}

	live, err := s.Store.FindBookings(ctx, BookingFilter{
		StaffIDs: team,
		Dates:    dates,
		Statuses: []Status{StatusApproved, StatusPendingWithdrawal},
	})
	if err != nil {
		return nil, err
	}
	occ := make(occupancy)
	for _, b := range live {
		day, ok := occ[b.Date.String()]
		if !ok {
			day = make(map[Slot]int)
			occ[b.Date.String()] = day
		}
		day[b.Slot]++
	}
	return occ, nil
}

func (s *Service) inboxEntry(b Booking, e Employee, reason string, occ occupancy, teamSize int) InboxEntry {
	startHour, endHour := SlotHours(b.Slot)
	loc := s.Policy.location()
	entry := InboxEntry{
		Booking: b,
		Staff:   e,
		Reason:  reason,
		Start:   time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), startHour, 0, 0, 0, loc),
		End:     time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), endHour, 0, 0, 0, loc),
	}
	if b.Slot == SlotFull {
		entry.AMShare = teamShare(occ.half(b.Date, SlotAM), teamSize)
		entry.PMShare = teamShare(occ.half(b.Date, SlotPM), teamSize)
	} else {
		entry.Share = teamShare(occ.half(b.Date, b.Slot), teamSize)
	}
	return entry
}
