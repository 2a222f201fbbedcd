package wfh

import "fmt"

// RecurrenceStep is the distance between two occurrences of a recurring
// request: "this weekday, every week".
const RecurrenceStep = 7

// Expand turns a (start, end) request into the concrete dates to book.
// A single-day request yields [start]. Otherwise every date start+7k that is
// not after end; end itself appears only when it lies on that weekly grid.
// A positive limit caps the number of generated dates.
func Expand(start, end Date, limit int) ([]Date, error) {
	if start.IsZero() || end.IsZero() {
		return nil, &ValidationError{Field: "start_date", Message: "start_date and end_date are required"}
	}
	if end.Before(start) {
		return nil, &ValidationError{Field: "end_date", Message: fmt.Sprintf("end_date %s is before start_date %s", end, start)}
	}
	if start.Equal(end) {
		return []Date{start}, nil
	}

	dates := make([]Date, 0, DaysBetween(start, end)/RecurrenceStep+1)
	for d := start; !d.After(end); d = d.AddDays(RecurrenceStep) {
		if limit > 0 && len(dates) == limit {
			return nil, &ValidationError{
				Field:   "end_date",
				Message: fmt.Sprintf("recurring request would create more than %d bookings", limit),
			}
		}
		dates = append(dates, d)
	}
	return dates, nil
}
