// internal/ics/expand.go
package ics

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	rrule "github.com/teambition/rrule-go"

	"github.com/coneyproductions/vms-sub001/internal/schedule"
)

const (
	// windowPadDays widens the expansion window on both sides so
	// boundary weeks are not lost to timezone skew.
	windowPadDays = 14

	// maxOccurrencesPerEvent caps expansion of a single recurring
	// event. Malformed UNTIL/COUNT values must never run away.
	maxOccurrencesPerEvent = 4000
)

// Evening show window: an occurrence marks a calendar day busy only if
// it overlaps 17:00-23:59 local time on that day. Vendors book evening
// events; a morning delivery slot is not a conflict.
const (
	showWindowStartHour = 17
	showWindowEndHour   = 23
	showWindowEndMinute = 59
)

// Occurrence is one concrete start/end produced by expansion.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// BusyDates expands events into occurrences within the window and
// reduces them to the set of YYYY-MM-DD dates on which the vendor is
// busy during the evening show window. Only dates present in active
// are retained; a nil active set keeps every date (callers without a
// venue context, such as the background sync, filter later).
func BusyDates(events []Event, active map[string]struct{}, window schedule.Window, loc *time.Location) map[string]struct{} {
	if loc == nil {
		loc = time.Local
	}

	masters, overrides := groupByUID(events)

	busy := make(map[string]struct{})
	for uid, master := range masters {
		occurrences := expandMaster(master, overrides[uid], window)
		for _, occ := range occurrences {
			markBusyDays(busy, occ, active, loc)
		}
	}
	return busy
}

// ExtractBusyDates is the parse-then-expand convenience used by the
// availability sync: raw feed bytes in, busy date set out.
func ExtractBusyDates(body []byte, active map[string]struct{}, window schedule.Window, loc *time.Location) (map[string]struct{}, error) {
	events, err := Parse(body, loc)
	if err != nil {
		return nil, err
	}
	return BusyDates(events, active, window, loc), nil
}

// groupByUID splits records into masters and overrides. Within a UID
// the record without a RECURRENCE-ID is the master; when several
// qualify the one carrying an RRULE wins. Overrides with no matching
// master are discarded by the caller's lookup.
func groupByUID(events []Event) (map[string]Event, map[string][]Event) {
	masters := make(map[string]Event)
	overrides := make(map[string][]Event)

	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		existing, ok := masters[ev.UID]
		if !ok || (existing.RawRRule == "" && ev.RawRRule != "") {
			masters[ev.UID] = ev
		}
	}
	return masters, overrides
}

func expandMaster(master Event, overrides []Event, window schedule.Window) []Occurrence {
	padStart := window.Start.AddDate(0, 0, -windowPadDays)
	padEnd := window.End.AddDate(0, 0, windowPadDays+1)

	if master.RawRRule == "" {
		return expandSingle(master, overrides, padStart, padEnd)
	}
	return expandWeekly(master, overrides, padStart, padEnd)
}

func expandSingle(master Event, overrides []Event, padStart, padEnd time.Time) []Occurrence {
	if master.Cancelled() {
		return nil
	}

	start, end := master.Start, master.End
	if ov, ok := findOverride(overrides, start); ok {
		if ov.Cancelled() {
			return nil
		}
		start, end = ov.Start, ov.End
	}
	if end.Before(start) {
		end = start
	}
	if !rangesOverlap(start, end, padStart, padEnd) {
		return nil
	}
	return []Occurrence{{Start: start, End: end}}
}

// expandWeekly expands a FREQ=WEEKLY rule honoring INTERVAL, BYDAY
// (defaulting to DTSTART's weekday), UNTIL and COUNT. Other
// frequencies are skipped: vendor feeds in the wild are overwhelmingly
// weekly and nothing downstream expects daily or monthly rules yet.
func expandWeekly(master Event, overrides []Event, padStart, padEnd time.Time) []Occurrence {
	if !strings.Contains(strings.ToUpper(master.RawRRule), "FREQ=WEEKLY") {
		log.Warn().Str("uid", master.UID).Str("rrule", master.RawRRule).Msg("Skipping non-weekly RRULE")
		return nil
	}

	rule, err := rrule.StrToRRule(master.RawRRule)
	if err != nil {
		log.Warn().Err(err).Str("uid", master.UID).Str("rrule", master.RawRRule).Msg("Skipping unparseable RRULE")
		return nil
	}
	rule.DTStart(master.Start)

	var set rrule.Set
	set.RRule(rule)
	for _, ex := range master.ExDates {
		set.ExDate(ex.In(master.Start.Location()))
	}

	starts := set.Between(
		padStart.In(master.Start.Location()),
		padEnd.In(master.Start.Location()),
		true,
	)
	if len(starts) > maxOccurrencesPerEvent {
		log.Warn().Str("uid", master.UID).Int("cap", maxOccurrencesPerEvent).Msg("Truncating recurring event expansion")
		starts = starts[:maxOccurrencesPerEvent]
	}

	duration := master.Duration()
	occurrences := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		end := start.Add(duration)
		if master.AllDay {
			day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start = day
			end = day.Add(24 * time.Hour)
		}

		if ov, ok := findOverride(overrides, start); ok {
			if ov.Cancelled() {
				continue
			}
			start, end = ov.Start, ov.End
			if !rangesOverlap(start, end, padStart, padEnd) {
				continue
			}
		}
		if end.Before(start) {
			end = start
		}
		occurrences = append(occurrences, Occurrence{Start: start, End: end})
	}

	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences
}

// findOverride matches an override whose RECURRENCE-ID equals the
// occurrence start with exact time equality.
func findOverride(overrides []Event, start time.Time) (Event, bool) {
	for _, ov := range overrides {
		if ov.RecurrenceID == nil {
			continue
		}
		if ov.RecurrenceID.In(start.Location()).Equal(start) {
			return ov, true
		}
	}
	return Event{}, false
}

// markBusyDays walks every calendar day the occurrence spans and marks
// the day busy when the occurrence overlaps that day's evening show
// window.
func markBusyDays(busy map[string]struct{}, occ Occurrence, active map[string]struct{}, loc *time.Location) {
	start := occ.Start.In(loc)
	end := occ.End.In(loc)
	if end.Before(start) {
		end = start
	}

	firstDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	lastDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)

	for day := firstDay; !day.After(lastDay); day = day.AddDate(0, 0, 1) {
		windowStart := time.Date(day.Year(), day.Month(), day.Day(), showWindowStartHour, 0, 0, 0, loc)
		windowEnd := time.Date(day.Year(), day.Month(), day.Day(), showWindowEndHour, showWindowEndMinute, 59, 0, loc)
		if !rangesOverlap(start, end, windowStart, windowEnd) {
			continue
		}

		date := day.Format(schedule.DateLayout)
		if active != nil {
			if _, ok := active[date]; !ok {
				continue
			}
		}
		busy[date] = struct{}{}
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
