package wfh

import "time"

// =============================================================================
// TIME-WINDOW POLICY - Pure functions of (booking date, now)
// =============================================================================

// SystemRejectReason is stamped on everything the sweep resolves.
const SystemRejectReason = "rejected by system"

// DefaultTopExecID is the staff id whose requests skip approval.
const DefaultTopExecID StaffID = 130002

// Window is a closed interval around a booking date. Days and Months add up,
// so {Days: 14} is two weeks and {Months: 3} is three calendar months.
type Window struct {
	BeforeDays, BeforeMonths int
	AfterDays, AfterMonths   int
}

// Policy holds every tunable of the lifecycle.
type Policy struct {
	// Location interprets booking dates (a booking starts at midnight here).
	Location *time.Location

	// TopExecID submits straight to Approved and withdraws without review.
	TopExecID StaffID

	// Withdrawal bounds a staff withdrawal request.
	Withdrawal Window

	// Force bounds a manager force-withdrawal.
	Force Window

	// StaleAfterDays: a pending booking is stale once now > date + this.
	StaleAfterDays int

	// MaxRecurrence caps dates per submission (0 = no cap).
	MaxRecurrence int
}

// DefaultPolicy: withdraw within two weeks either side, force-withdraw from
// one month before to three months after, stale after eight weeks.
func DefaultPolicy() Policy {
	loc, err := time.LoadLocation("Asia/Singapore")
	if err != nil {
		loc = time.FixedZone("SGT", 8*60*60)
	}
	return Policy{
		Location:       loc,
		TopExecID:      DefaultTopExecID,
		Withdrawal:     Window{BeforeDays: 14, AfterDays: 14},
		Force:          Window{BeforeMonths: 1, AfterMonths: 3},
		StaleAfterDays: 8 * 7,
	}
}

// Contains reports whether now lies in [date - before, date + after].
func (w Window) Contains(date Date, now time.Time, loc *time.Location) bool {
	open := date.AddMonths(-w.BeforeMonths).AddDays(-w.BeforeDays).Midnight(loc)
	closeAt := date.AddMonths(w.AfterMonths).AddDays(w.AfterDays).Midnight(loc)
	return !now.Before(open) && !now.After(closeAt)
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// Today is the calendar date of now in the policy location.
func (p Policy) Today(now time.Time) Date {
	return DateOf(now.In(p.location()))
}

// CanWithdraw is the staff withdrawal window.
func (p Policy) CanWithdraw(date Date, now time.Time) bool {
	return p.Withdrawal.Contains(date, now, p.Location)
}

// CanForceWithdraw is the manager force-withdrawal window.
func (p Policy) CanForceWithdraw(date Date, now time.Time) bool {
	return p.Force.Contains(date, now, p.Location)
}

// IsStale reports whether a pending booking on date should be auto-resolved.
func (p Policy) IsStale(date Date, now time.Time) bool {
	return now.After(date.AddDays(p.StaleAfterDays).Midnight(p.Location))
}
