// internal/ics/parse.go
package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog/log"
)

// Event is the normalized representation of one VEVENT block. Records
// carrying a RECURRENCE-ID are overrides for a single occurrence of
// the master event with the same UID.
type Event struct {
	UID string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	Status   string // e.g. CONFIRMED, CANCELLED

	ExDates      []time.Time
	RecurrenceID *time.Time
}

// Cancelled reports whether the event carries STATUS:CANCELLED.
func (e Event) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), "CANCELLED")
}

// Duration is the master's start-to-end span, never negative.
func (e Event) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Parse parses a raw ICS payload into a list of Events. The library
// handles RFC 5545 line unfolding and VTIMEZONE/TZID resolution.
// Unparseable VEVENTs are logged and skipped so one bad block never
// discards the rest of the feed. Floating (no TZID, no Zulu) times are
// interpreted in loc; nil loc means time.Local.
func Parse(body []byte, loc *time.Location) ([]Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			log.Warn().Err(perr).Msg("Skipping unparseable VEVENT")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (Event, error) {
	var out Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	start, err := ve.GetStartAt()
	if err != nil {
		return out, errors.New("missing or invalid DTSTART")
	}
	out.Start = start

	if end, err := ve.GetEndAt(); err == nil {
		out.End = end
	} else {
		// No DTEND: zero-duration event.
		out.End = start
	}

	if dtStart := ve.GetProperty(ical.ComponentPropertyDtStart); dtStart != nil {
		out.AllDay = isAllDay(dtStart)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = p.Value
	}

	// EXDATE may appear on multiple lines, each comma-separated.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, terr := parseICSTime(part, loc); terr == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, terr := parseICSTime(p.Value, loc); terr == nil {
			out.RecurrenceID = &t
		}
	}

	return out, nil
}

func isAllDay(dtStart *ical.IANAProperty) bool {
	if params := dtStart.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(dtStart.Value, "T")
}

// parseICSTime parses the DATE-TIME forms seen in EXDATE and
// RECURRENCE-ID values: Zulu, local with a time component, and
// date-only.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
