// internal/schedule/window.go
package schedule

import (
	"time"
)

// Window is an inclusive calendar date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// DefaultWindow returns the bounded expansion window used for active
// date generation and ICS conflict checks: from the first of the
// current month to the later of 18 months out or December 31 of next
// year, never more than 24 months out.
func DefaultWindow(now time.Time) Window {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	end := start.AddDate(0, 18, -1)
	if endOfNextYear := time.Date(now.Year()+1, time.December, 31, 0, 0, 0, 0, now.Location()); end.Before(endOfNextYear) {
		end = endOfNextYear
	}

	if cap := start.AddDate(0, 24, -1); end.After(cap) {
		end = cap
	}
	return Window{Start: start, End: end}
}

// ActiveDates expands the resolver over the window, day by day
// inclusive, and returns the ordered list of YYYY-MM-DD dates on which
// the venue is open. Same config and window always yield the same
// output.
func ActiveDates(cfg Config, w Window) []string {
	var dates []string
	for day := w.Start; !day.After(w.End); day = day.AddDate(0, 0, 1) {
		date := day.Format(DateLayout)
		if Resolve(cfg, date).Open {
			dates = append(dates, date)
		}
	}
	return dates
}

// ActiveDateSet is ActiveDates as a membership set, the shape the ICS
// busy-date reduction consumes.
func ActiveDateSet(cfg Config, w Window) map[string]struct{} {
	dates := ActiveDates(cfg, w)
	set := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	return set
}
